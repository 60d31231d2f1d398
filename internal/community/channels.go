package community

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"chat-backend/internal/apperr"
	"chat-backend/internal/storage"
	"chat-backend/internal/user"
)

// ChannelInput carries the fields of a create or update. Nil fields are
// left unchanged; ServerID is only honoured on create.
type ChannelInput struct {
	Name        *string
	Topic       *string
	ServerID    *uint
	Icon        *storage.Upload
	Banner      *storage.Upload
	ClearIcon   bool
	ClearBanner bool
}

func (in ChannelInput) validate(create bool) error {
	if err := checkText("name", in.Name, 100, create); err != nil {
		return err
	}
	if err := checkText("topic", in.Topic, 100, false); err != nil {
		return err
	}
	if create && in.ServerID == nil {
		return apperr.FieldValidation("server", "This field is required.")
	}
	if err := checkImage("banner", in.Banner, true, false); err != nil {
		return err
	}
	return checkImage("icon", in.Icon, true, true)
}

func (in ChannelInput) apply(ch *Channel) {
	if in.Name != nil {
		ch.Name = *in.Name
	}
	if in.Topic != nil {
		ch.Topic = *in.Topic
	}
	if in.ClearIcon {
		ch.Icon = ""
	}
	if in.ClearBanner {
		ch.Banner = ""
	}
}

// storeUploads writes the uploaded images under the channel's paths.
func (in ChannelInput) storeUploads(ctx context.Context, st *staging, ch *Channel) error {
	if in.Icon != nil {
		p, err := st.put(ctx, storage.ChannelIconPath(ch.ID, in.Icon.Filename), in.Icon)
		if err != nil {
			return err
		}
		ch.Icon = p
	}
	if in.Banner != nil {
		p, err := st.put(ctx, storage.ChannelBannerPath(ch.ID, in.Banner.Filename), in.Banner)
		if err != nil {
			return err
		}
		ch.Banner = p
	}
	return nil
}

func (s *Service) GetChannel(ctx context.Context, id uint) (*Channel, error) {
	var ch Channel
	if err := s.db.WithContext(ctx).First(&ch, id).Error; err != nil {
		return nil, notFoundAs(err, "channel", id)
	}
	return &ch, nil
}

func (s *Service) ListChannels(ctx context.Context, serverID uint) ([]Channel, error) {
	var srv Server
	if err := s.db.WithContext(ctx).Select("id").First(&srv, serverID).Error; err != nil {
		return nil, notFoundAs(err, "server", serverID)
	}
	var channels []Channel
	if err := s.db.WithContext(ctx).Where("server_id = ?", serverID).Order("id").Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return channels, nil
}

// CreateChannel adds a channel to a server managed by actor.
func (s *Service) CreateChannel(ctx context.Context, actor *user.Account, in ChannelInput) (*Channel, error) {
	if err := requireAccount(actor); err != nil {
		return nil, err
	}
	if err := in.validate(true); err != nil {
		return nil, err
	}

	ch := &Channel{OwnerID: actor.ID, ServerID: *in.ServerID}
	in.apply(ch)
	st := &staging{files: s.files}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var srv Server
		if err := tx.First(&srv, ch.ServerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.FieldValidation("server", "Invalid pk \"%d\" - object does not exist.", ch.ServerID)
			}
			return err
		}
		if !canManageServer(actor, &srv) {
			return apperr.ErrPermissionDenied
		}
		if err := tx.Create(ch).Error; err != nil {
			return err
		}
		if in.Icon == nil && in.Banner == nil {
			return nil
		}
		if err := in.storeUploads(ctx, st, ch); err != nil {
			return err
		}
		return tx.Save(ch).Error
	})
	if err != nil {
		st.discard(ctx)
		return nil, err
	}

	log.Printf("Channel %q created in server %d by %s", ch.Name, ch.ServerID, actor.Username)
	return ch, nil
}

// UpdateChannel applies in to channel id. The channel owner, the owner of
// its server and administrators may update it.
func (s *Service) UpdateChannel(ctx context.Context, actor *user.Account, id uint, in ChannelInput) (*Channel, error) {
	if err := requireAccount(actor); err != nil {
		return nil, err
	}
	if err := in.validate(false); err != nil {
		return nil, err
	}

	var ch Channel
	st := &staging{files: s.files}
	err := s.withRecordLock(ctx, fmt.Sprintf("channel:%d", id), func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(lockForUpdate).First(&ch, id).Error; err != nil {
				return notFoundAs(err, "channel", id)
			}
			if err := s.canManageChannel(tx, actor, &ch); err != nil {
				return err
			}
			if in.ServerID != nil && *in.ServerID != ch.ServerID {
				return apperr.FieldValidation("server", "A channel cannot be moved to another server.")
			}
			in.apply(&ch)
			if err := in.storeUploads(ctx, st, &ch); err != nil {
				return err
			}
			return saveWithFiles(ctx, tx, s.files, &ch)
		})
	})
	if err != nil {
		st.discard(ctx)
		return nil, err
	}
	return &ch, nil
}

// DeleteChannel removes the channel after deleting its icon and banner.
func (s *Service) DeleteChannel(ctx context.Context, actor *user.Account, id uint) error {
	if err := requireAccount(actor); err != nil {
		return err
	}

	return s.withRecordLock(ctx, fmt.Sprintf("channel:%d", id), func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var ch Channel
			if err := tx.Clauses(lockForUpdate).First(&ch, id).Error; err != nil {
				return notFoundAs(err, "channel", id)
			}
			if err := s.canManageChannel(tx, actor, &ch); err != nil {
				return err
			}
			removeFiles(ctx, s.files, ch.fileRefs()...)
			return tx.Delete(&ch).Error
		})
	})
}

func (s *Service) canManageChannel(tx *gorm.DB, actor *user.Account, ch *Channel) error {
	if actor.IsAdmin || actor.ID == ch.OwnerID {
		return nil
	}
	var srv Server
	if err := tx.Select("id", "owner_id").First(&srv, ch.ServerID).Error; err != nil {
		return notFoundAs(err, "server", ch.ServerID)
	}
	if srv.OwnerID != actor.ID {
		return apperr.ErrPermissionDenied
	}
	return nil
}
