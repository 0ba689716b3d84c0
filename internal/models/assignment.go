package models

import "time"

// MealMenuItem says "this meal includes this dish at this total pot count".
// The composite unique index makes upserts a storage-level constraint
// rather than a query-then-write race.
type MealMenuItem struct {
	ID         string `gorm:"primaryKey;size:32"`
	MealID     string `gorm:"size:32;not null;uniqueIndex:idx_meal_menu_item,priority:1"`
	MenuItemID string `gorm:"size:32;not null;uniqueIndex:idx_meal_menu_item,priority:2"`
	DishName   string `gorm:"size:128;not null"`
	TotalPots  int    `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Meal     Meal     `gorm:"foreignKey:MealID"`
	MenuItem MenuItem `gorm:"foreignKey:MenuItemID"`
}

// PotAssignment says "N pots of this dish, for this meal, go to this hall;
// M have been delivered". DeliveredPots is kept within [0, AssignedPots]
// by the mutation layer.
type PotAssignment struct {
	ID            string `gorm:"primaryKey;size:32"`
	MealID        string `gorm:"size:32;not null;uniqueIndex:idx_meal_item_hall,priority:1"`
	MenuItemID    string `gorm:"size:32;not null;uniqueIndex:idx_meal_item_hall,priority:2"`
	DiningHallID  string `gorm:"size:32;not null;uniqueIndex:idx_meal_item_hall,priority:3"`
	AssignedPots  int    `gorm:"not null;default:0"`
	DeliveredPots int    `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Meal       Meal       `gorm:"foreignKey:MealID"`
	MenuItem   MenuItem   `gorm:"foreignKey:MenuItemID"`
	DiningHall DiningHall `gorm:"foreignKey:DiningHallID"`
}
