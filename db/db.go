// db/db.go
package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aegis-admin/aegis/config"
	logger "github.com/aegis-admin/aegis/logging"
	"github.com/aegis-admin/aegis/model"
)

var DB *gorm.DB

func InitDB() error {
	dsn := config.GetConfig().Postgres.DSN

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(DB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Successfully connected to Postgres")
	return nil
}

// Migrate creates or updates the admin-panel schema
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Dept{},
		&model.User{},
		&model.Role{},
		&model.Menu{},
		&model.DataRule{},
		&model.LoginLog{},
		&model.OperaLog{},
	)
}

func CloseDB() {
	if DB == nil {
		return
	}
	sqlDB, err := DB.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("Error closing Postgres connection")
		}
	}
}
