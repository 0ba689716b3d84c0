// Package view builds the denormalized dashboard view: per-meal menu rows
// plus pot assignments enriched with dish and hall names and grouped by
// hall. Recomputation is always full and side-effect-free; at tens of rows
// there is nothing worth patching incrementally.
package view

import (
	"gorm.io/gorm"

	"github.com/openlangar/langar/internal/assign"
	"github.com/openlangar/langar/internal/catalog"
	"github.com/openlangar/langar/internal/meal"
	"github.com/openlangar/langar/internal/models"
)

// Sentinels used when a referenced dish or hall cannot be resolved.
const (
	UnknownDish = "Unknown Dish"
	UnknownHall = "Unknown Hall"
)

// MenuRow is one dish on the meal's menu.
type MenuRow struct {
	MenuItemID string `json:"menuItemId"`
	DishName   string `json:"dishName"`
	TotalPots  int    `json:"totalPots"`
}

// Row is one pot assignment enriched with resolved names.
type Row struct {
	AssignmentID  string `json:"assignmentId"`
	MenuItemID    string `json:"menuItemId"`
	DiningHallID  string `json:"diningHallId"`
	DishName      string `json:"dishName"`
	HallName      string `json:"hallName"`
	AssignedPots  int    `json:"assignedPots"`
	DeliveredPots int    `json:"deliveredPots"`
}

// HallGroup is the rows for one hall, in original assignment order.
type HallGroup struct {
	HallName       string `json:"hallName"`
	Rows           []Row  `json:"rows"`
	AssignedTotal  int    `json:"assignedTotal"`
	DeliveredTotal int    `json:"deliveredTotal"`
}

// MealView is the full derived dashboard state for one meal.
type MealView struct {
	MealID         string      `json:"mealId"`
	MealName       string      `json:"mealName"`
	IsComplete     bool        `json:"isComplete"`
	Menu           []MenuRow   `json:"menu"`
	Halls          []HallGroup `json:"halls"`
	AssignedTotal  int         `json:"assignedTotal"`
	DeliveredTotal int         `json:"deliveredTotal"`
}

// Aggregate joins pot assignments against the meal's menu and the hall
// catalog. Dish names resolve through the menu assignment's menu-item
// reference (not its own row id); misses fall back to the Unknown
// sentinels. Groups appear in first-seen hall order and rows keep their
// input order — both orderings are display-significant for row-span
// rendering.
func Aggregate(menu []models.MealMenuItem, pots []models.PotAssignment, hallNames map[string]string) ([]HallGroup, int, int) {
	dishByItem := make(map[string]string, len(menu))
	for _, m := range menu {
		dishByItem[m.MenuItemID] = m.DishName
	}

	var (
		order  []string
		groups = make(map[string]*HallGroup)

		assignedTotal  int
		deliveredTotal int
	)
	for _, p := range pots {
		dish, ok := dishByItem[p.MenuItemID]
		if !ok || dish == "" {
			dish = UnknownDish
		}
		hall, ok := hallNames[p.DiningHallID]
		if !ok || hall == "" {
			hall = UnknownHall
		}

		g, ok := groups[hall]
		if !ok {
			g = &HallGroup{HallName: hall}
			groups[hall] = g
			order = append(order, hall)
		}
		g.Rows = append(g.Rows, Row{
			AssignmentID:  p.ID,
			MenuItemID:    p.MenuItemID,
			DiningHallID:  p.DiningHallID,
			DishName:      dish,
			HallName:      hall,
			AssignedPots:  p.AssignedPots,
			DeliveredPots: p.DeliveredPots,
		})
		g.AssignedTotal += p.AssignedPots
		g.DeliveredTotal += p.DeliveredPots
		assignedTotal += p.AssignedPots
		deliveredTotal += p.DeliveredPots
	}

	out := make([]HallGroup, 0, len(order))
	for _, hall := range order {
		out = append(out, *groups[hall])
	}
	return out, assignedTotal, deliveredTotal
}

// Build loads everything the view needs and aggregates it. All three
// inputs must load successfully before anything is derived; a failed load
// aborts the build rather than emitting a partial view.
func Build(db *gorm.DB, mealID string) (*MealView, error) {
	m, err := meal.Get(db, mealID)
	if err != nil {
		return nil, err
	}
	menu, err := assign.MenuForMeal(db, mealID)
	if err != nil {
		return nil, err
	}
	pots, err := assign.PotsForMeal(db, mealID)
	if err != nil {
		return nil, err
	}
	hallNames, err := catalog.HallNames(db)
	if err != nil {
		return nil, err
	}

	halls, assigned, delivered := Aggregate(menu, pots, hallNames)

	menuRows := make([]MenuRow, len(menu))
	for i, row := range menu {
		menuRows[i] = MenuRow{
			MenuItemID: row.MenuItemID,
			DishName:   row.DishName,
			TotalPots:  row.TotalPots,
		}
	}

	return &MealView{
		MealID:         m.ID,
		MealName:       m.Name,
		IsComplete:     m.IsComplete,
		Menu:           menuRows,
		Halls:          halls,
		AssignedTotal:  assigned,
		DeliveredTotal: delivered,
	}, nil
}
