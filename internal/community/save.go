package community

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chat-backend/internal/apperr"
	"chat-backend/internal/metrics"
	"chat-backend/internal/storage"
)

// fileOwner is a record whose columns reference stored files. fileRefs must
// return the references in a fixed order.
type fileOwner interface {
	primaryKey() uint
	fileRefs() []string
}

var lockForUpdate = clause.Locking{Strength: "UPDATE"}

// saveWithFiles persists rec. When rec already exists, every file it used to
// reference that is no longer referenced is deleted from storage first.
// tx must be a transaction; the persisted row is locked for its duration.
func saveWithFiles[T any, P interface {
	*T
	fileOwner
}](ctx context.Context, tx *gorm.DB, files storage.Storage, rec P) error {
	if id := rec.primaryKey(); id != 0 {
		existing := P(new(T))
		err := tx.Clauses(lockForUpdate).First(existing, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(recordName(rec), id)
		}
		if err != nil {
			return err
		}

		current := rec.fileRefs()
		for i, old := range existing.fileRefs() {
			if old == "" || old == current[i] {
				continue
			}
			if err := files.Delete(ctx, old); err != nil {
				return fmt.Errorf("delete replaced file %s: %w", old, err)
			}
			metrics.RecordFileDeleted()
		}
	}
	return tx.Omit(clause.Associations).Save(rec).Error
}

// removeFiles deletes files owned by records that are being deleted.
// Failures are logged and never returned: the row is the source of truth.
func removeFiles(ctx context.Context, files storage.Storage, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := files.Delete(ctx, p); err != nil {
			log.Printf("Warning: failed to delete file %s: %v", p, err)
			metrics.RecordFileDeleteFailure()
			continue
		}
		metrics.RecordFileDeleted()
	}
}

func recordName(rec interface{}) string {
	switch rec.(type) {
	case *Category:
		return "category"
	case *Channel:
		return "channel"
	default:
		return "record"
	}
}
