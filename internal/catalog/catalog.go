// Package catalog manages the append-only menu-item and dining-hall
// catalogs.
package catalog

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/openlangar/langar/internal/feed"
	"github.com/openlangar/langar/internal/models"
)

// AddMenuItem inserts a new catalog dish. Name is trimmed and must be
// non-empty.
func AddMenuItem(db *gorm.DB, hub *feed.Hub, name string) (*models.MenuItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("catalog: menu item name is required")
	}

	item := models.MenuItem{
		ID:        models.NewID(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("catalog: add menu item %q: %w", name, err)
	}

	hub.Publish(feed.Event{Topic: feed.TopicMeals, Kind: feed.KindCatalogAdded})
	return &item, nil
}

// AddDiningHall inserts a new distribution location. Name is trimmed and
// must be non-empty.
func AddDiningHall(db *gorm.DB, hub *feed.Hub, name string) (*models.DiningHall, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("catalog: dining hall name is required")
	}

	hall := models.DiningHall{
		ID:        models.NewID(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&hall).Error; err != nil {
		return nil, fmt.Errorf("catalog: add dining hall %q: %w", name, err)
	}

	hub.Publish(feed.Event{Topic: feed.TopicMeals, Kind: feed.KindCatalogAdded})
	return &hall, nil
}

// MenuItems returns the full dish catalog in one unbounded fetch, oldest
// first.
func MenuItems(db *gorm.DB) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := db.Order("created_at ASC, name ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("catalog: list menu items: %w", err)
	}
	return items, nil
}

// DiningHalls returns the full hall catalog in one unbounded fetch, oldest
// first.
func DiningHalls(db *gorm.DB) ([]models.DiningHall, error) {
	var halls []models.DiningHall
	if err := db.Order("created_at ASC, name ASC").Find(&halls).Error; err != nil {
		return nil, fmt.Errorf("catalog: list dining halls: %w", err)
	}
	return halls, nil
}

// HallNames returns a hall-id to name lookup for view enrichment.
func HallNames(db *gorm.DB) (map[string]string, error) {
	halls, err := DiningHalls(db)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(halls))
	for _, h := range halls {
		names[h.ID] = h.Name
	}
	return names, nil
}
