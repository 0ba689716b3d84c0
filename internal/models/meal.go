package models

import "time"

// Meal is a named food-service event. IsComplete only ever transitions
// false -> true; meals are never deleted.
type Meal struct {
	ID          string `gorm:"primaryKey;size:32"`
	Name        string `gorm:"size:128;not null"`
	IsComplete  bool   `gorm:"default:false;index"`
	CreatedAt   time.Time
	CompletedAt *time.Time

	MenuItems   []MealMenuItem  `gorm:"foreignKey:MealID"`
	Assignments []PotAssignment `gorm:"foreignKey:MealID"`
}

// ActiveMeal is the singleton pointer to the meal currently shown on the
// public dashboard. One row with ID 1, replaced in full on every change;
// last write wins. Absence of the row means no meal is broadcast.
type ActiveMeal struct {
	ID        uint   `gorm:"primaryKey"`
	MealID    string `gorm:"size:32;not null"`
	UpdatedAt time.Time
}

// ActiveMealRowID is the fixed primary key of the singleton ActiveMeal row.
const ActiveMealRowID uint = 1
