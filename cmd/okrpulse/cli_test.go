package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperengineering/okrpulse/internal/store"
)

// executeCmd runs the root command with captured output against the database at dbPath.
func executeCmd(t *testing.T, dbPath string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	// Cobra parses into these variables, so stale values from previous
	// tests would leak if not reset.
	dbPathOverride = ""
	jsonOutput = false
	trendObjective = ""
	trendDepartment = ""
	trendPeriod = ""
	for _, c := range []string{"objective", "department", "period"} {
		if f := trendCmd.Flags().Lookup(c); f != nil {
			f.Changed = false
		}
	}

	fullArgs := append(args, "--db", dbPath)

	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	rootCmd.SetOut(outBuf)
	rootCmd.SetErr(errBuf)
	rootCmd.SetArgs(fullArgs)

	err = rootCmd.Execute()

	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetArgs(nil)

	return outBuf.String(), errBuf.String(), err
}

// tempDB returns a fresh database path and a store opened on it for seeding.
func tempDB(t *testing.T) (string, *store.SQLiteStore) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "okrpulse.db")
	s, err := store.NewSQLiteStore(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return path, s
}
