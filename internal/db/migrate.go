package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/openlangar/langar/internal/models"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Meal{},
		&models.MenuItem{},
		&models.DiningHall{},
		&models.MealMenuItem{},
		&models.PotAssignment{},
		&models.ActiveMeal{},
	}
}

// AutoMigrate creates or updates all tables, including the composite unique
// indexes that back idempotent assignment upserts.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
