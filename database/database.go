package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/CUknot/arena_backend/config"
	"github.com/CUknot/arena_backend/models"
)

// Connect opens the database selected by cfg.Driver.
func Connect(cfg config.DBConfig, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	// Lookups of absent rows are routine for the directories.
	gormLog := logger.New(slog.NewLogLogger(log.Handler(), slog.LevelWarn), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Driver, err)
	}

	log.Info("database connection established", "driver", cfg.Driver)
	return db, nil
}

// Migrate creates or updates every table the server uses.
func Migrate(db *gorm.DB, log *slog.Logger) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.ChatRoom{},
		&models.Participant{},
		&models.Message{},
		&models.GameResult{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("database migration completed")
	return nil
}
