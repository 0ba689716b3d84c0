package models

import "time"

// MenuItem is a reusable catalog dish. The catalog is append-only.
type MenuItem struct {
	ID        string `gorm:"primaryKey;size:32"`
	Name      string `gorm:"size:128;not null"`
	CreatedAt time.Time
}

// DiningHall is a physical distribution location receiving pot allocations.
// The catalog is append-only.
type DiningHall struct {
	ID        string `gorm:"primaryKey;size:32"`
	Name      string `gorm:"size:128;not null"`
	CreatedAt time.Time
}
