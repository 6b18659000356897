package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kbconsole/config"
	"kbconsole/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init opens the database described by cfg.
// For sqlite, DSN "memory" (or empty) selects a shared in-memory database and any other
// value is treated as a file path. For postgres the DSN is passed through unchanged.
func Init(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	log = log.Named("Database")

	gormLogger := logger.New(
		zap.NewStdLog(log),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gormConfig := &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true, // unique violations surface as gorm.ErrDuplicatedKey on every driver
	}

	dsn := cfg.Database.DSN
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "postgres":
		log.Info("initializing postgres database")
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		if dsn == "memory" || dsn == "" {
			log.Info("initializing in-memory sqlite database")
			dialector = sqlite.Open("file::memory:?cache=shared")
		} else {
			log.Info("initializing file-based sqlite database", zap.String("dsn", dsn))
			if err := ensureDir(dsn, log); err != nil {
				return nil, err
			}
			dialector = sqlite.Open(dsn)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		log.Error("failed to connect to database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
		return nil, fmt.Errorf("failed to connect to database (driver %q): %w", cfg.Database.Driver, err)
	}

	log.Info("database connection established")
	return db, nil
}

func ensureDir(dsn string, log *zap.Logger) error {
	dbDir := filepath.Dir(dsn)
	if dbDir == "." || dbDir == "/" {
		return nil
	}
	if _, statErr := os.Stat(dbDir); os.IsNotExist(statErr) {
		log.Info("creating database directory", zap.String("dir", dbDir))
		if mkdirErr := os.MkdirAll(dbDir, 0o755); mkdirErr != nil {
			return fmt.Errorf("failed to create database directory '%s': %w", dbDir, mkdirErr)
		}
	}
	return nil
}

// Migrate creates or updates every table the application owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.KnowledgeArticle{},
		&models.ArticleVersion{},
		&models.ArticleFavorite{},
		&models.ArticleView{},
		&models.CostMetric{},
		&models.SecurityAlert{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}
