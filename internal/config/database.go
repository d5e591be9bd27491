package config

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"alfredoptarigan/careerforge/internal/models"
)

// ErrDatabaseDisabled is returned by InitDatabase when DB_ENABLED is false.
var ErrDatabaseDisabled = errors.New("database is disabled")

// InitDatabase connects to Postgres, applies the pool settings and migrates
// the chat and evaluation tables.
func InitDatabase(cfg *Config) (*gorm.DB, error) {
	if !cfg.Database.Enabled {
		return nil, ErrDatabaseDisabled
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.Server.Env)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	configurePool(sqlDB, cfg.Database)

	log.Printf("✅ Database connected successfully (%s:%s/%s, max %d conns)\n",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, cfg.Database.MaxOpenConns)

	if err := db.AutoMigrate(
		&models.Chat{},
		&models.Message{},
		&models.Evaluation{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Println("✅ Database migration completed")

	return db, nil
}

func configurePool(sqlDB *sql.DB, cfg DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// SQL statements are logged in development only.
func gormLogLevel(env string) logger.LogLevel {
	if env == "development" {
		return logger.Info
	}
	return logger.Warn
}
