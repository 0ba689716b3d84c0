// Package assign manages per-meal menu assignments, per-hall pot
// assignments, and delivery tracking.
package assign

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openlangar/langar/internal/feed"
	"github.com/openlangar/langar/internal/models"
)

// ErrNotFound is returned when a pot assignment id does not exist.
var ErrNotFound = errors.New("assign: not found")

// AssignMenuItems records desired total pot counts of dishes for a meal.
// Only strictly positive counts are written; each write is an upsert keyed
// by the (meal_id, menu_item_id) unique index, so repeating a submission
// updates rows in place instead of duplicating them. Writes for one
// submission are issued concurrently; the call returns after all have
// resolved and reports the first failure. A partial failure leaves the
// successful writes in place.
func AssignMenuItems(db *gorm.DB, hub *feed.Hub, mealID string, counts map[string]int) error {
	if mealID == "" {
		return fmt.Errorf("assign: meal id is required")
	}

	var items []models.MenuItem
	if err := db.Find(&items).Error; err != nil {
		return fmt.Errorf("assign: load menu catalog: %w", err)
	}
	names := make(map[string]string, len(items))
	for _, it := range items {
		names[it.ID] = it.Name
	}

	type task struct {
		itemID string
		pots   int
	}
	var tasks []task
	for itemID, pots := range counts {
		if pots <= 0 {
			continue
		}
		if _, ok := names[itemID]; !ok {
			return fmt.Errorf("assign: unknown menu item: %s", itemID)
		}
		tasks = append(tasks, task{itemID: itemID, pots: pots})
	}
	if len(tasks) == 0 {
		return nil
	}

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, tk := range tasks {
		wg.Add(1)
		go func(i int, tk task) {
			defer wg.Done()
			row := models.MealMenuItem{
				ID:         models.NewID(),
				MealID:     mealID,
				MenuItemID: tk.itemID,
				DishName:   names[tk.itemID],
				TotalPots:  tk.pots,
				CreatedAt:  time.Now(),
				UpdatedAt:  time.Now(),
			}
			err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "meal_id"}, {Name: "menu_item_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"dish_name", "total_pots", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				errs[i] = fmt.Errorf("assign: menu item %s: %w", tk.itemID, err)
			}
		}(i, tk)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	hub.Publish(feed.Event{Topic: feed.MealTopic(mealID), Kind: feed.KindMenuAssigned, MealID: mealID})
	return nil
}

// AssignPots records desired assigned pot counts of dishes for one dining
// hall. Upserts are keyed by the (meal_id, menu_item_id, dining_hall_id)
// unique index; new rows start with zero delivered pots, updates preserve
// the delivered count. Writes are sequential — volumes are small and each
// row is disjoint.
func AssignPots(db *gorm.DB, hub *feed.Hub, mealID, hallID string, counts map[string]int) error {
	if mealID == "" || hallID == "" {
		return fmt.Errorf("assign: meal id and dining hall id are required")
	}

	wrote := false
	for itemID, pots := range counts {
		if pots <= 0 {
			continue
		}
		row := models.PotAssignment{
			ID:            models.NewID(),
			MealID:        mealID,
			MenuItemID:    itemID,
			DiningHallID:  hallID,
			AssignedPots:  pots,
			DeliveredPots: 0,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "meal_id"}, {Name: "menu_item_id"}, {Name: "dining_hall_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"assigned_pots", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("assign: pots for item %s hall %s: %w", itemID, hallID, err)
		}
		wrote = true
	}

	if wrote {
		hub.Publish(feed.Event{Topic: feed.MealTopic(mealID), Kind: feed.KindPotsAssigned, MealID: mealID})
	}
	return nil
}

// Get returns a pot assignment by id.
func Get(db *gorm.DB, id string) (*models.PotAssignment, error) {
	var pa models.PotAssignment
	if err := db.Where("id = ?", id).First(&pa).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("assign: get %s: %w", id, err)
	}
	return &pa, nil
}

// MenuForMeal returns the meal's menu assignments in insertion order.
func MenuForMeal(db *gorm.DB, mealID string) ([]models.MealMenuItem, error) {
	var rows []models.MealMenuItem
	if err := db.Where("meal_id = ?", mealID).
		Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("assign: menu for meal %s: %w", mealID, err)
	}
	return rows, nil
}

// PotsForMeal returns the meal's pot assignments in insertion order. The
// order is display-significant: the grouped dashboard table preserves it.
func PotsForMeal(db *gorm.DB, mealID string) ([]models.PotAssignment, error) {
	var rows []models.PotAssignment
	if err := db.Where("meal_id = ?", mealID).
		Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("assign: pots for meal %s: %w", mealID, err)
	}
	return rows, nil
}

// SetDelivered sets a pot assignment's delivered count to an exact value.
// The value must lie within [0, assigned_pots].
func SetDelivered(db *gorm.DB, hub *feed.Hub, id string, delivered int) error {
	if delivered < 0 {
		return fmt.Errorf("assign: delivered pots cannot be negative")
	}

	pa, err := Get(db, id)
	if err != nil {
		return err
	}
	if delivered > pa.AssignedPots {
		return fmt.Errorf("assign: delivered pots %d exceeds assigned %d", delivered, pa.AssignedPots)
	}

	if err := db.Model(&models.PotAssignment{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"delivered_pots": delivered,
			"updated_at":     time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("assign: set delivered %s: %w", id, err)
	}

	hub.Publish(feed.Event{Topic: feed.MealTopic(pa.MealID), Kind: feed.KindDelivered, MealID: pa.MealID})
	return nil
}

// IncrementDelivered bumps a pot assignment's delivered count by one, as a
// single guarded UPDATE so concurrent incrementers cannot lose updates.
// At the assigned bound the increment is a no-op and Delivered reports the
// unchanged row. Returns the row as of after the attempt.
func IncrementDelivered(db *gorm.DB, hub *feed.Hub, id string) (*models.PotAssignment, error) {
	result := db.Model(&models.PotAssignment{}).
		Where("id = ? AND delivered_pots < assigned_pots", id).
		Updates(map[string]interface{}{
			"delivered_pots": gorm.Expr("delivered_pots + 1"),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("assign: increment delivered %s: %w", id, result.Error)
	}

	pa, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	if result.RowsAffected > 0 {
		hub.Publish(feed.Event{Topic: feed.MealTopic(pa.MealID), Kind: feed.KindDelivered, MealID: pa.MealID})
	}
	return pa, nil
}
