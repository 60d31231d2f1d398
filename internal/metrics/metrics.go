package metrics

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"chat-backend/internal/middleware"
)

type MetricsSnapshot struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Timestamp          time.Time `gorm:"index" json:"timestamp"`
	HTTPBytesOut       int64     `gorm:"default:0" json:"http_bytes_out"`
	HTTPRequests       int64     `gorm:"default:0" json:"http_requests"`
	FilesStored        int64     `gorm:"default:0" json:"files_stored"`
	FilesDeleted       int64     `gorm:"default:0" json:"files_deleted"`
	FileDeleteFailures int64     `gorm:"default:0" json:"file_delete_failures"`
	CreatedAt          time.Time `json:"created_at"`
}

func (MetricsSnapshot) TableName() string {
	return "metrics_snapshots"
}

var (
	FilesStored        int64
	FilesDeleted       int64
	FileDeleteFailures int64
)

func RecordFileStored()        { atomic.AddInt64(&FilesStored, 1) }
func RecordFileDeleted()       { atomic.AddInt64(&FilesDeleted, 1) }
func RecordFileDeleteFailure() { atomic.AddInt64(&FileDeleteFailures, 1) }

// Current reads the live counters.
func Current() MetricsSnapshot {
	return MetricsSnapshot{
		Timestamp:          time.Now(),
		HTTPBytesOut:       atomic.LoadInt64(&middleware.TotalBytesOut),
		HTTPRequests:       atomic.LoadInt64(&middleware.TotalRequests),
		FilesStored:        atomic.LoadInt64(&FilesStored),
		FilesDeleted:       atomic.LoadInt64(&FilesDeleted),
		FileDeleteFailures: atomic.LoadInt64(&FileDeleteFailures),
	}
}

// MetricsService periodically persists counter snapshots and prunes old ones.
type MetricsService struct {
	db        *gorm.DB
	interval  time.Duration
	retention time.Duration
}

func NewMetricsService(db *gorm.DB, interval time.Duration) *MetricsService {
	return &MetricsService{
		db:        db,
		interval:  interval,
		retention: 7 * 24 * time.Hour, // Keep detailed snapshots for 7 days
	}
}

// Run saves snapshots until ctx is cancelled, then saves a final one.
func (ms *MetricsService) Run(ctx context.Context) {
	log.Println("Starting metrics service...")

	snapshotTicker := time.NewTicker(ms.interval)
	cleanupTicker := time.NewTicker(24 * time.Hour)
	defer snapshotTicker.Stop()
	defer cleanupTicker.Stop()

	ms.saveSnapshot()
	for {
		select {
		case <-snapshotTicker.C:
			ms.saveSnapshot()
		case <-cleanupTicker.C:
			ms.cleanup()
		case <-ctx.Done():
			ms.saveSnapshot()
			log.Println("Metrics service stopped")
			return
		}
	}
}

func (ms *MetricsService) saveSnapshot() {
	snapshot := Current()
	if err := ms.db.Create(&snapshot).Error; err != nil {
		log.Printf("Error saving metrics snapshot: %v", err)
	}
}

func (ms *MetricsService) cleanup() {
	cutoff := time.Now().Add(-ms.retention)

	result := ms.db.Where("timestamp < ?", cutoff).Delete(&MetricsSnapshot{})
	if result.Error != nil {
		log.Printf("Error cleaning up old snapshots: %v", result.Error)
	} else if result.RowsAffected > 0 {
		log.Printf("Cleaned up %d old metrics snapshots", result.RowsAffected)
	}
}

// GetSnapshotHistory returns snapshots from the last minutes, newest first.
func (ms *MetricsService) GetSnapshotHistory(ctx context.Context, minutes int) ([]MetricsSnapshot, error) {
	var snapshots []MetricsSnapshot

	cutoff := time.Now().Add(-time.Duration(minutes) * time.Minute)

	err := ms.db.WithContext(ctx).Where("timestamp >= ?", cutoff).
		Order("timestamp DESC").
		Find(&snapshots).Error

	return snapshots, err
}
