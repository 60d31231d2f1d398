package community

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chat-backend/internal/apperr"
	"chat-backend/internal/user"
)

// ServerInput carries the fields of a create or update. Nil fields are left
// unchanged.
type ServerInput struct {
	Name        *string
	CategoryID  *uint
	Description *string
}

func (in ServerInput) validate(create bool) error {
	if err := checkText("name", in.Name, 100, create); err != nil {
		return err
	}
	if err := checkText("description", in.Description, 300, false); err != nil {
		return err
	}
	if create && in.CategoryID == nil {
		return apperr.FieldValidation("category", "This field is required.")
	}
	return nil
}

func (in ServerInput) apply(srv *Server) {
	if in.Name != nil {
		srv.Name = *in.Name
	}
	if in.CategoryID != nil {
		srv.CategoryID = *in.CategoryID
	}
	if in.Description != nil {
		srv.Description = in.Description
	}
}

// checkCategory makes sure a server always points at an existing category.
func checkCategory(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&Category{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.FieldValidation("category", "Invalid pk \"%d\" - object does not exist.", id)
	}
	return nil
}

func canManageServer(actor *user.Account, srv *Server) bool {
	return actor != nil && (actor.IsAdmin || actor.ID == srv.OwnerID)
}

// GetServer returns one server with its category, channels and member count.
func (s *Service) GetServer(ctx context.Context, id uint) (*Server, error) {
	servers, err := AllServers().WithNumMembers().WithID(id).Find(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("get server: %w", err)
	}
	if len(servers) == 0 {
		return nil, apperr.NotFound("server", id)
	}
	return &servers[0], nil
}

// ListServers runs q. A query narrowed to one id that matches nothing is a
// validation error rather than an empty list.
func (s *Service) ListServers(ctx context.Context, q ServerQuery) ([]Server, error) {
	servers, err := q.Find(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	if id, ok := q.ServerID(); ok && len(servers) == 0 {
		return nil, apperr.Validation("Server with id %d not found", id)
	}
	return servers, nil
}

// CreateServer creates a server owned by actor, who also becomes its first
// member.
func (s *Service) CreateServer(ctx context.Context, actor *user.Account, in ServerInput) (*Server, error) {
	if err := requireAccount(actor); err != nil {
		return nil, err
	}
	if err := in.validate(true); err != nil {
		return nil, err
	}

	srv := &Server{OwnerID: actor.ID}
	in.apply(srv)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCategory(tx, srv.CategoryID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(srv).Error; err != nil {
			return err
		}
		return addMember(tx, srv.ID, actor.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Server %s created by %s", srv, actor.Username)
	return s.GetServer(ctx, srv.ID)
}

func (s *Service) UpdateServer(ctx context.Context, actor *user.Account, id uint, in ServerInput) (*Server, error) {
	if err := requireAccount(actor); err != nil {
		return nil, err
	}
	if err := in.validate(false); err != nil {
		return nil, err
	}

	err := s.withRecordLock(ctx, fmt.Sprintf("server:%d", id), func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var srv Server
			if err := tx.Clauses(lockForUpdate).First(&srv, id).Error; err != nil {
				return notFoundAs(err, "server", id)
			}
			if !canManageServer(actor, &srv) {
				return apperr.ErrPermissionDenied
			}
			in.apply(&srv)
			if in.CategoryID != nil {
				if err := checkCategory(tx, srv.CategoryID); err != nil {
					return err
				}
			}
			return tx.Omit(clause.Associations).Save(&srv).Error
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetServer(ctx, id)
}

// DeleteServer removes the server and its channels. Channel files are
// deleted before the rows.
func (s *Service) DeleteServer(ctx context.Context, actor *user.Account, id uint) error {
	if err := requireAccount(actor); err != nil {
		return err
	}

	return s.withRecordLock(ctx, fmt.Sprintf("server:%d", id), func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var srv Server
			if err := tx.Clauses(lockForUpdate).First(&srv, id).Error; err != nil {
				return notFoundAs(err, "server", id)
			}
			if !canManageServer(actor, &srv) {
				return apperr.ErrPermissionDenied
			}

			// Locking the channel rows waits out in-flight channel updates, so
			// the file list below is the committed one.
			var channels []Channel
			if err := tx.Clauses(lockForUpdate).Where("server_id = ?", id).Order("id").Find(&channels).Error; err != nil {
				return err
			}
			removeFiles(ctx, s.files, channelFiles(channels)...)

			if err := deleteServerRows(tx, []uint{id}); err != nil {
				return err
			}
			log.Printf("Server %s deleted by %s", &srv, actor.Username)
			return nil
		})
	})
}

// JoinServer adds actor to the server's members. Joining twice is a no-op.
func (s *Service) JoinServer(ctx context.Context, actor *user.Account, id uint) error {
	if err := requireAccount(actor); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var srv Server
		if err := tx.Select("id").First(&srv, id).Error; err != nil {
			return notFoundAs(err, "server", id)
		}
		return addMember(tx, id, actor.ID)
	})
}

// LeaveServer removes actor from the server's members. The owner cannot
// leave their own server.
func (s *Service) LeaveServer(ctx context.Context, actor *user.Account, id uint) error {
	if err := requireAccount(actor); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var srv Server
		if err := tx.First(&srv, id).Error; err != nil {
			return notFoundAs(err, "server", id)
		}
		if srv.OwnerID == actor.ID {
			return apperr.Validation("The owner cannot leave their own server.")
		}
		res := tx.Where("server_id = ? AND account_id = ?", id, actor.ID).Delete(&membership{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Validation("You are not a member of this server.")
		}
		return nil
	})
}

func addMember(tx *gorm.DB, serverID, accountID uint) error {
	m := membership{ServerID: serverID, AccountID: accountID}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error
}
