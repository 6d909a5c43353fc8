package db

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"eventplanner/internal/config"
	"eventplanner/internal/model"
)

// DSN applies the database name and I/O timeouts to the configured MySQL DSN.
func DSN(cfg config.DatabaseConfig) (string, error) {
	parsed, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	if parsed.DBName == "" {
		parsed.DBName = cfg.Name
	}
	parsed.ParseTime = true
	parsed.Timeout = cfg.Timeout
	parsed.ReadTimeout = cfg.Timeout
	parsed.WriteTimeout = cfg.Timeout
	return parsed.FormatDSN(), nil
}

// NewMySQL returns a connected GORM DB instance.
func NewMySQL(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("mysql pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// Migrate creates or updates the tables for every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
