package db

import (
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Models lists every table owned by the service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Category{},
		&model.Listing{},
		&model.Review{},
		&model.Notification{},
		&model.Message{},
	}
}

// Migrate runs the schema migration on the global connection and seeds the
// canonical categories.
func Migrate(categories []string) error {
	logger.Info("Running database migrations...")

	if err := MigrateDB(DB); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := SeedCategories(DB, categories); err != nil {
		logger.Error("Failed to seed categories during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(Models()),
	})
	return nil
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// SeedCategories inserts the canonical categories missing from the table.
// Existing rows, including ones renamed by an administrator, are left alone.
func SeedCategories(db *gorm.DB, names []string) error {
	var count int64
	if err := db.Model(&model.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Categories already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	if len(names) == 0 {
		return nil
	}

	categories := make([]model.Category, 0, len(names))
	for _, name := range names {
		categories = append(categories, model.Category{Name: name})
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
		return err
	}

	logger.Info("Categories seeded successfully", map[string]interface{}{
		"total_records": len(categories),
	})
	return nil
}
