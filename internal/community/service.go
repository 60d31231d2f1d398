package community

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"chat-backend/internal/apperr"
	"chat-backend/internal/cache"
	"chat-backend/internal/metrics"
	"chat-backend/internal/storage"
	"chat-backend/internal/user"
	"chat-backend/internal/validate"
)

// Service owns every write to categories, servers and channels together
// with the files those records reference.
type Service struct {
	db    *gorm.DB
	files storage.Storage
	locks cache.Locker
}

func NewService(db *gorm.DB, files storage.Storage, locks cache.Locker) *Service {
	if locks == nil {
		locks = cache.NewLocalLocker()
	}
	return &Service{db: db, files: files, locks: locks}
}

// withRecordLock runs fn while holding the per-record lock for key.
func (s *Service) withRecordLock(ctx context.Context, key string, fn func() error) error {
	unlock, err := s.locks.Lock(ctx, key)
	if err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	defer unlock()
	return fn()
}

// staging collects uploads written during a transaction so they can be
// removed again when the transaction does not commit.
type staging struct {
	files storage.Storage
	paths []string
}

func (st *staging) put(ctx context.Context, name string, u *storage.Upload) (string, error) {
	p, err := st.files.Save(ctx, name, u.Reader())
	if err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}
	metrics.RecordFileStored()
	st.paths = append(st.paths, p)
	return p, nil
}

func (st *staging) discard(ctx context.Context) {
	removeFiles(context.WithoutCancel(ctx), st.files, st.paths...)
	st.paths = nil
}

func requireAccount(actor *user.Account) error {
	if actor == nil {
		return apperr.ErrAuthenticationFailed
	}
	return nil
}

func requireAdmin(actor *user.Account) error {
	if err := requireAccount(actor); err != nil {
		return err
	}
	if !actor.IsAdmin {
		return apperr.ErrPermissionDenied
	}
	return nil
}

// checkImage validates an uploaded image for field. Channel images must
// also carry an allowed extension, and icons must fit within 70x70.
func checkImage(field string, u *storage.Upload, extension, icon bool) error {
	if u == nil {
		return nil
	}
	if extension {
		if err := validate.ImageFileExtension(u.Filename); err != nil {
			return onField(field, err)
		}
	}
	if err := validate.Image(u.Reader()); err != nil {
		return onField(field, err)
	}
	if icon {
		if err := validate.IconImageSize(u.Reader()); err != nil {
			return onField(field, err)
		}
	}
	return nil
}

func onField(field string, err error) error {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) && ve.Field == "" {
		return &apperr.ValidationError{Field: field, Message: ve.Message}
	}
	return err
}

func checkText(field string, value *string, max int, required bool) error {
	if value == nil {
		if required {
			return apperr.FieldValidation(field, "This field is required.")
		}
		return nil
	}
	if required && *value == "" {
		return apperr.FieldValidation(field, "This field may not be blank.")
	}
	if n := len([]rune(*value)); n > max {
		return apperr.FieldValidation(field, "Ensure this field has no more than %d characters.", max)
	}
	return nil
}

func notFoundAs(err error, resource string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(resource, id)
	}
	return err
}

func channelFiles(channels []Channel) []string {
	var paths []string
	for i := range channels {
		paths = append(paths, channels[i].fileRefs()...)
	}
	return paths
}
