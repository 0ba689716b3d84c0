package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openlangar/langar/internal/meal"
)

func newMealCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meal",
		Short: "Meal lifecycle commands",
	}

	cmd.AddCommand(newMealListCmd())
	cmd.AddCommand(newMealCreateCmd())
	cmd.AddCommand(newMealCompleteCmd())
	cmd.AddCommand(newMealActivateCmd())
	cmd.AddCommand(newMealDeactivateCmd())
	return cmd
}

func newMealListCmd() *cobra.Command {
	var (
		configPath string
		activeOnly bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List meals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMealList(cmd, configPath, activeOnly)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "langar.yaml", "path to Langar config file")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only meals not yet complete")
	return cmd
}

func runMealList(cmd *cobra.Command, configPath string, activeOnly bool) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	list := meal.List
	if activeOnly {
		list = meal.ListActive
	}
	meals, err := list(gormDB)
	if err != nil {
		return err
	}
	if len(meals) == 0 {
		fmt.Fprintln(out, "No meals.")
		return nil
	}

	currentID, err := meal.Active(gormDB)
	if err != nil && !errors.Is(err, meal.ErrNoActiveMeal) {
		return err
	}

	for _, m := range meals {
		marks := []string{}
		if m.ID == currentID {
			marks = append(marks, "active")
		}
		if m.IsComplete {
			marks = append(marks, "complete")
		}
		suffix := ""
		if len(marks) > 0 {
			suffix = " [" + strings.Join(marks, ", ") + "]"
		}
		fmt.Fprintf(out, "%s  %s%s\n", m.ID, m.Name, suffix)
	}
	return nil
}

func newMealCreateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a meal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			m, err := meal.Create(gormDB, nil, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created meal %s (%s)\n", m.Name, m.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "langar.yaml", "path to Langar config file")
	return cmd
}

func newMealCompleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "complete MEAL_ID",
		Short: "Mark a meal complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			m, err := meal.Complete(gormDB, nil, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Meal %s marked complete\n", m.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "langar.yaml", "path to Langar config file")
	return cmd
}

func newMealActivateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "activate MEAL_ID",
		Short: "Point the dashboard at a meal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := meal.SetActive(gormDB, nil, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Meal %s is now active\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "langar.yaml", "path to Langar config file")
	return cmd
}

func newMealDeactivateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Clear the active meal pointer",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := meal.ClearActive(gormDB, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Active meal cleared")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "langar.yaml", "path to Langar config file")
	return cmd
}
