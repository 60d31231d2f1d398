package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"chat-backend/internal/config"
)

var DB *gorm.DB

// Init opens the database described by config.Conf and stores it in DB.
func Init() error {
	conn, err := Open(config.Conf.Database)
	if err != nil {
		return err
	}
	DB = conn
	return nil
}

// Open connects to the configured driver. SQLite goes through the pure Go
// modernc driver, so the data directory is created on demand.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	switch cfg.Driver {
	case "", "sqlite":
		if dir := sqliteDir(cfg.DSN); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
		return gorm.Open(sqlite.Dialector{
			DriverName: "sqlite",
			DSN:        cfg.DSN,
		}, gormCfg)
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DSN), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate creates or updates the tables for the given models.
func Migrate(conn *gorm.DB, models ...interface{}) error {
	return conn.AutoMigrate(models...)
}

func sqliteDir(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return ""
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return ""
	}
	return dir
}
