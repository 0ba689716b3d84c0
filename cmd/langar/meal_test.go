package main

import (
	"strings"
	"testing"
)

// initTestDB initializes a throwaway sqlite database and returns the config
// path commands should use.
func initTestDB(t *testing.T) string {
	t.Helper()
	cfgPath := writeTestConfig(t)
	if out, err := runCmd(t, "db", "init", "--config", cfgPath); err != nil {
		t.Fatalf("db init failed: %v\n%s", err, out)
	}
	return cfgPath
}

// mealID extracts the id from "Created meal Name (id)" output.
func mealID(t *testing.T, createOut string) string {
	t.Helper()
	start := strings.LastIndex(createOut, "(")
	end := strings.LastIndex(createOut, ")")
	if start < 0 || end <= start {
		t.Fatalf("unexpected create output: %s", createOut)
	}
	return createOut[start+1 : end]
}

func TestMealCreateAndList(t *testing.T) {
	cfgPath := initTestDB(t)

	out, err := runCmd(t, "meal", "create", "Sunday Lunch", "--config", cfgPath)
	if err != nil {
		t.Fatalf("meal create failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Created meal Sunday Lunch") {
		t.Errorf("output = %s", out)
	}

	out, err = runCmd(t, "meal", "list", "--config", cfgPath)
	if err != nil {
		t.Fatalf("meal list failed: %v", err)
	}
	if !strings.Contains(out, "Sunday Lunch") {
		t.Errorf("list output = %s, want the created meal", out)
	}
}

func TestMealComplete(t *testing.T) {
	cfgPath := initTestDB(t)

	out, _ := runCmd(t, "meal", "create", "Lunch", "--config", cfgPath)
	id := mealID(t, out)

	out, err := runCmd(t, "meal", "complete", id, "--config", cfgPath)
	if err != nil {
		t.Fatalf("meal complete failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "marked complete") {
		t.Errorf("output = %s", out)
	}

	out, _ = runCmd(t, "meal", "list", "--config", cfgPath)
	if !strings.Contains(out, "[complete]") {
		t.Errorf("list output = %s, want complete marker", out)
	}

	// Completed meals drop out of the active filter.
	out, _ = runCmd(t, "meal", "list", "--active", "--config", cfgPath)
	if !strings.Contains(out, "No meals.") {
		t.Errorf("active list = %s, want empty", out)
	}
}

func TestMealComplete_UnknownMeal(t *testing.T) {
	cfgPath := initTestDB(t)

	if _, err := runCmd(t, "meal", "complete", "nope", "--config", cfgPath); err == nil {
		t.Fatal("expected error for unknown meal")
	}
}

func TestMealActivateAndDeactivate(t *testing.T) {
	cfgPath := initTestDB(t)

	out, _ := runCmd(t, "meal", "create", "Lunch", "--config", cfgPath)
	id := mealID(t, out)

	if out, err := runCmd(t, "meal", "activate", id, "--config", cfgPath); err != nil {
		t.Fatalf("meal activate failed: %v\n%s", err, out)
	}

	out, _ = runCmd(t, "meal", "list", "--config", cfgPath)
	if !strings.Contains(out, "[active]") {
		t.Errorf("list output = %s, want active marker", out)
	}

	if out, err := runCmd(t, "meal", "deactivate", "--config", cfgPath); err != nil {
		t.Fatalf("meal deactivate failed: %v\n%s", err, out)
	}

	out, _ = runCmd(t, "meal", "list", "--config", cfgPath)
	if strings.Contains(out, "[active]") {
		t.Errorf("list output = %s, active marker should be gone", out)
	}
}

func TestMealActivate_UnknownMeal(t *testing.T) {
	cfgPath := initTestDB(t)

	if _, err := runCmd(t, "meal", "activate", "nope", "--config", cfgPath); err == nil {
		t.Fatal("expected error for unknown meal")
	}
}
