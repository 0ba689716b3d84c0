package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestDBInit_Sqlite(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCmd(t, "db", "init", "--config", cfgPath)
	if err != nil {
		t.Fatalf("db init failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Migrated 6 tables") {
		t.Errorf("output = %s, want migrated table count", out)
	}
	if !strings.Contains(out, "initialized successfully") {
		t.Errorf("output = %s, want success message", out)
	}
}

func TestDBReset_SqliteWithYes(t *testing.T) {
	cfgPath := writeTestConfig(t)

	if _, err := runCmd(t, "db", "init", "--config", cfgPath); err != nil {
		t.Fatalf("db init failed: %v", err)
	}
	if _, err := runCmd(t, "meal", "create", "Lunch", "--config", cfgPath); err != nil {
		t.Fatalf("meal create failed: %v", err)
	}

	out, err := runCmd(t, "db", "reset", "--config", cfgPath, "--yes")
	if err != nil {
		t.Fatalf("db reset failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "reset successfully") {
		t.Errorf("output = %s, want reset message", out)
	}

	// The meal created before the reset is gone.
	out, err = runCmd(t, "meal", "list", "--config", cfgPath)
	if err != nil {
		t.Fatalf("meal list failed: %v", err)
	}
	if !strings.Contains(out, "No meals.") {
		t.Errorf("output = %s, want empty list", out)
	}
}

func TestDBReset_AbortsWithoutConfirmation(t *testing.T) {
	cfgPath := writeTestConfig(t)
	if _, err := runCmd(t, "db", "init", "--config", cfgPath); err != nil {
		t.Fatalf("db init failed: %v", err)
	}

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader("no\n"))
	cmd.SetArgs([]string{"db", "reset", "--config", cfgPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("db reset failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Aborted.") {
		t.Errorf("output = %s, want abort message", buf.String())
	}
}
