package database

import (
	"fmt"
	"time"

	"chatline/backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the database for the given driver ("postgres" or "sqlite")
// and runs migrations.
func Connect(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	// Configure GORM logger
	customLogger := logger.New(
		zap.NewStdLog(log.With(zap.String("component", "gorm"))),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         customLogger,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	if driver == "sqlite" {
		// A single connection serializes writers and keeps ":memory:" databases shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("database: pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("Database connection established.", zap.String("driver", driver))

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("database: migrate: %w", err)
	}

	log.Info("Database migrated successfully.")
	return db, nil
}

// Migrate creates or updates every table the application needs.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RevokedToken{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.Message{},
	)
}
