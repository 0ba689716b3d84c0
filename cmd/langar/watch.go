package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/openlangar/langar/internal/meal"
	"github.com/openlangar/langar/internal/view"
)

func newWatchCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream delivery events to the terminal",
		Long:  "Polls the active meal and prints a line whenever pots are delivered,\nthe meal changes, or the meal is marked complete.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "langar.yaml", "path to Langar config file")
	return cmd
}

// watchState tracks what has already been reported, keyed by assignment id.
type watchState struct {
	mealID    string
	complete  bool
	delivered map[string]int
}

func runWatch(cmd *cobra.Command, configPath string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Watching deliveries... (Ctrl+C to stop)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var state watchState
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := pollDeliveries(out, gormDB, &state); err != nil {
				fmt.Fprintf(out, "poll error: %v\n", err)
			}
		}
	}
}

func pollDeliveries(out io.Writer, gormDB *gorm.DB, state *watchState) error {
	id, err := meal.Active(gormDB)
	if err != nil {
		if errors.Is(err, meal.ErrNoActiveMeal) {
			if state.mealID != "" {
				fmt.Fprintf(out, "[%s] active meal cleared\n", time.Now().Format("15:04:05"))
				*state = watchState{}
			}
			return nil
		}
		return err
	}

	v, err := view.Build(gormDB, id)
	if err != nil {
		return err
	}

	ts := time.Now().Format("15:04:05")
	if id != state.mealID {
		fmt.Fprintf(out, "[%s] now serving %q (%d/%d pots delivered)\n", ts, v.MealName, v.DeliveredTotal, v.AssignedTotal)
		*state = watchState{mealID: id, delivered: map[string]int{}}
		for _, hall := range v.Halls {
			for _, row := range hall.Rows {
				state.delivered[row.AssignmentID] = row.DeliveredPots
			}
		}
		state.complete = v.IsComplete
		return nil
	}

	for _, hall := range v.Halls {
		for _, row := range hall.Rows {
			prev, seen := state.delivered[row.AssignmentID]
			if seen && row.DeliveredPots == prev {
				continue
			}
			if seen {
				fmt.Fprintf(out, "[%s] %s / %s: %d/%d delivered\n", ts, hall.HallName, row.DishName, row.DeliveredPots, row.AssignedPots)
			}
			state.delivered[row.AssignmentID] = row.DeliveredPots
		}
	}

	if v.IsComplete && !state.complete {
		fmt.Fprintf(out, "[%s] meal %q marked complete\n", ts, v.MealName)
		state.complete = true
	}
	return nil
}
