package community

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"chat-backend/internal/storage"
	"chat-backend/internal/user"
)

// CategoryInput carries the fields of a create or update. Nil fields are
// left unchanged.
type CategoryInput struct {
	Name        *string
	Description *string
	Icon        *storage.Upload
	ClearIcon   bool
}

// validate checks the text fields. The category icon is a plain file
// attachment and is stored as uploaded.
func (in CategoryInput) validate(create bool) error {
	return checkText("name", in.Name, 100, create)
}

func (in CategoryInput) apply(c *Category) {
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Description != nil {
		c.Description = in.Description
	}
	if in.ClearIcon {
		c.Icon = ""
	}
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := s.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *Service) GetCategory(ctx context.Context, id uint) (*Category, error) {
	var c Category
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFoundAs(err, "category", id)
	}
	return &c, nil
}

// CreateCategory inserts a category, storing its icon under the new id.
func (s *Service) CreateCategory(ctx context.Context, actor *user.Account, in CategoryInput) (*Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := in.validate(true); err != nil {
		return nil, err
	}

	c := &Category{}
	in.apply(c)
	st := &staging{files: s.files}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		if in.Icon == nil {
			return nil
		}
		p, err := st.put(ctx, storage.CategoryIconPath(c.ID, in.Icon.Filename), in.Icon)
		if err != nil {
			return err
		}
		c.Icon = p
		return tx.Save(c).Error
	})
	if err != nil {
		st.discard(ctx)
		return nil, fmt.Errorf("create category: %w", err)
	}

	log.Printf("Category %q created by %s", c.Name, actor.Username)
	return c, nil
}

// UpdateCategory applies in to category id. A replaced or cleared icon is
// deleted from storage just before the new state is persisted.
func (s *Service) UpdateCategory(ctx context.Context, actor *user.Account, id uint, in CategoryInput) (*Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := in.validate(false); err != nil {
		return nil, err
	}

	var c Category
	st := &staging{files: s.files}
	err := s.withRecordLock(ctx, fmt.Sprintf("category:%d", id), func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(lockForUpdate).First(&c, id).Error; err != nil {
				return notFoundAs(err, "category", id)
			}
			in.apply(&c)
			if in.Icon != nil {
				p, err := st.put(ctx, storage.CategoryIconPath(c.ID, in.Icon.Filename), in.Icon)
				if err != nil {
					return err
				}
				c.Icon = p
			}
			return saveWithFiles(ctx, tx, s.files, &c)
		})
	})
	if err != nil {
		st.discard(ctx)
		return nil, err
	}
	return &c, nil
}

// DeleteCategory removes the category with its servers and their channels.
// Files owned by any of them are deleted before the rows.
func (s *Service) DeleteCategory(ctx context.Context, actor *user.Account, id uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	return s.withRecordLock(ctx, fmt.Sprintf("category:%d", id), func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var c Category
			if err := tx.Clauses(lockForUpdate).First(&c, id).Error; err != nil {
				return notFoundAs(err, "category", id)
			}

			var serverIDs []uint
			if err := tx.Model(&Server{}).Where("category_id = ?", id).Pluck("id", &serverIDs).Error; err != nil {
				return err
			}
			var channels []Channel
			if len(serverIDs) > 0 {
				if err := tx.Clauses(lockForUpdate).Where("server_id IN ?", serverIDs).Order("id").Find(&channels).Error; err != nil {
					return err
				}
			}

			removeFiles(ctx, s.files, c.fileRefs()...)
			removeFiles(ctx, s.files, channelFiles(channels)...)

			if len(serverIDs) > 0 {
				if err := deleteServerRows(tx, serverIDs); err != nil {
					return err
				}
			}
			if err := tx.Delete(&c).Error; err != nil {
				return err
			}

			log.Printf("Category %q deleted by %s (%d servers, %d channels)", c.Name, actor.Username, len(serverIDs), len(channels))
			return nil
		})
	})
}

// deleteServerRows removes the servers with their channels and memberships.
func deleteServerRows(tx *gorm.DB, serverIDs []uint) error {
	if err := tx.Where("server_id IN ?", serverIDs).Delete(&Channel{}).Error; err != nil {
		return fmt.Errorf("delete channels: %w", err)
	}
	if err := tx.Where("server_id IN ?", serverIDs).Delete(&membership{}).Error; err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	if err := tx.Where("id IN ?", serverIDs).Delete(&Server{}).Error; err != nil {
		return fmt.Errorf("delete servers: %w", err)
	}
	return nil
}
