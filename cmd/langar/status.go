package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/openlangar/langar/internal/meal"
	"github.com/openlangar/langar/internal/view"
)

func newStatusCmd() *cobra.Command {
	var (
		configPath string
		mealID     string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show delivery progress for the active meal",
		Long:  "Prints the menu and per-hall delivery table for the active meal,\nor for a specific meal with --meal. With --watch, refreshes every 2s.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, configPath, mealID, watch)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "langar.yaml", "path to Langar config file")
	cmd.Flags().StringVar(&mealID, "meal", "", "meal id (defaults to the active meal)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "refresh until interrupted")
	return cmd
}

func runStatus(cmd *cobra.Command, configPath, mealID string, watch bool) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if !watch {
		return printStatus(out, gormDB, mealID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		fmt.Fprint(out, "\033[2J\033[H")
		if err := printStatus(out, gormDB, mealID); err != nil {
			return err
		}
		fmt.Fprintln(out, "\n(Ctrl+C to stop)")

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func printStatus(out io.Writer, gormDB *gorm.DB, mealID string) error {
	if mealID == "" {
		id, err := meal.Active(gormDB)
		if err != nil {
			if errors.Is(err, meal.ErrNoActiveMeal) {
				fmt.Fprintln(out, "No meal is being served right now.")
				return nil
			}
			return err
		}
		mealID = id
	}

	v, err := view.Build(gormDB, mealID)
	if err != nil {
		return err
	}

	title := v.MealName
	if v.IsComplete {
		title += " [complete]"
	}
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, strings.Repeat("=", utf8.RuneCountInString(title)))

	if len(v.Menu) > 0 {
		fmt.Fprintln(out, "\nMenu:")
		for _, row := range v.Menu {
			fmt.Fprintf(out, "  %-24s %d pots\n", row.DishName, row.TotalPots)
		}
	}

	if len(v.Halls) == 0 {
		fmt.Fprintln(out, "\nNo pots distributed yet.")
		return nil
	}

	fmt.Fprintf(out, "\nDelivery (%d/%d pots):\n", v.DeliveredTotal, v.AssignedTotal)
	for _, hall := range v.Halls {
		fmt.Fprintf(out, "  %s (%d/%d)\n", hall.HallName, hall.DeliveredTotal, hall.AssignedTotal)
		for _, row := range hall.Rows {
			mark := " "
			if row.DeliveredPots >= row.AssignedPots {
				mark = "x"
			}
			fmt.Fprintf(out, "    [%s] %-22s %d/%d\n", mark, row.DishName, row.DeliveredPots, row.AssignedPots)
		}
	}
	return nil
}
