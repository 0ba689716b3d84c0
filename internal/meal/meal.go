// Package meal provides meal lifecycle operations and the shared
// active-meal pointer.
package meal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openlangar/langar/internal/feed"
	"github.com/openlangar/langar/internal/models"
)

// ErrNotFound is returned when a meal id does not exist.
var ErrNotFound = errors.New("meal: not found")

// ErrNoActiveMeal is returned by Active when no meal is being broadcast.
var ErrNoActiveMeal = errors.New("meal: no active meal")

// Create inserts a new meal. Name is trimmed and must be non-empty.
func Create(db *gorm.DB, hub *feed.Hub, name string) (*models.Meal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("meal: name is required")
	}

	m := models.Meal{
		ID:        models.NewID(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&m).Error; err != nil {
		return nil, fmt.Errorf("meal: create %q: %w", name, err)
	}

	hub.Publish(feed.Event{Topic: feed.TopicMeals, Kind: feed.KindMealCreated, MealID: m.ID})
	return &m, nil
}

// Get returns a meal by id.
func Get(db *gorm.DB, id string) (*models.Meal, error) {
	var m models.Meal
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("meal: get %s: %w", id, err)
	}
	return &m, nil
}

// List returns all meals, oldest first.
func List(db *gorm.DB) ([]models.Meal, error) {
	var meals []models.Meal
	if err := db.Order("created_at ASC, name ASC").Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("meal: list: %w", err)
	}
	return meals, nil
}

// ListActive returns meals that have not been completed, oldest first.
func ListActive(db *gorm.DB) ([]models.Meal, error) {
	var meals []models.Meal
	if err := db.Where("is_complete = ?", false).
		Order("created_at ASC, name ASC").Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("meal: list active: %w", err)
	}
	return meals, nil
}

// Complete marks a meal complete and stamps the completion time. The
// transition is one-way: completing an already-complete meal changes
// nothing, and no operation reverts it.
func Complete(db *gorm.DB, hub *feed.Hub, id string) (*models.Meal, error) {
	m, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if m.IsComplete {
		return m, nil
	}

	now := time.Now()
	if err := db.Model(&models.Meal{}).Where("id = ? AND is_complete = ?", id, false).
		Updates(map[string]interface{}{
			"is_complete":  true,
			"completed_at": now,
		}).Error; err != nil {
		return nil, fmt.Errorf("meal: complete %s: %w", id, err)
	}
	m.IsComplete = true
	m.CompletedAt = &now

	hub.Publish(feed.Event{Topic: feed.TopicMeals, Kind: feed.KindMealCompleted, MealID: id})
	hub.Publish(feed.Event{Topic: feed.MealTopic(id), Kind: feed.KindMealCompleted, MealID: id})
	return m, nil
}

// SetActive points the shared active-meal broadcast at the given meal.
// Full replacement of the singleton row, last write wins, no locking.
func SetActive(db *gorm.DB, hub *feed.Hub, mealID string) error {
	if _, err := Get(db, mealID); err != nil {
		return err
	}

	row := models.ActiveMeal{
		ID:        models.ActiveMealRowID,
		MealID:    mealID,
		UpdatedAt: time.Now(),
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"meal_id", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("meal: set active %s: %w", mealID, err)
	}

	hub.Publish(feed.Event{Topic: feed.TopicActive, Kind: feed.KindActiveChanged, MealID: mealID})
	return nil
}

// ClearActive removes the broadcast pointer; viewers fall back to "no
// active meal".
func ClearActive(db *gorm.DB, hub *feed.Hub) error {
	if err := db.Delete(&models.ActiveMeal{}, models.ActiveMealRowID).Error; err != nil {
		return fmt.Errorf("meal: clear active: %w", err)
	}
	hub.Publish(feed.Event{Topic: feed.TopicActive, Kind: feed.KindActiveChanged})
	return nil
}

// Active returns the currently broadcast meal id. Absence of the pointer
// row means no meal is active.
func Active(db *gorm.DB) (string, error) {
	var row models.ActiveMeal
	if err := db.Where("id = ?", models.ActiveMealRowID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNoActiveMeal
		}
		return "", fmt.Errorf("meal: read active pointer: %w", err)
	}
	return row.MealID, nil
}
