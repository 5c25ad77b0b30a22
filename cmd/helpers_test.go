package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chris/worklog/internal/db"
	"github.com/chris/worklog/pkg/models"
)

// today is a Wednesday in 2025-W11
var today = time.Date(2025, time.March, 12, 12, 0, 0, 0, time.Local)

// setupTestEnv points every XDG directory at a temp dir, fixes the clock
// and resets flag values left over from earlier runs
func setupTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	prev := nowFunc
	nowFunc = func() time.Time { return today }
	t.Cleanup(func() { nowFunc = prev })

	dbPath, configPath = "", ""
	addAt = ""
	weeksCount, weeksFrom, weeksExpand, weeksMetricsFile = 0, "", false, ""
	summarizeMetricsFile, browseMetricsFile = "", ""
	require.NoError(t, rootCmd.Flags().Set("version", "false"))
}

// setupTestDB creates an initialized journal holding entries
func setupTestDB(t *testing.T, entries ...*models.Entry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	database, err := db.NewForTesting(path)
	require.NoError(t, err)
	defer database.Close()

	for _, e := range entries {
		_, err := database.InsertEntry(context.Background(), e)
		require.NoError(t, err)
	}
	return path
}

// openTestDB reopens the journal at path for assertions
func openTestDB(t *testing.T, path string) *db.DB {
	t.Helper()
	database, err := db.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

// runCommand executes the root command with args and returns its output
func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return out.String(), err
}

func at(month time.Month, day, hour, minute int) time.Time {
	return time.Date(2025, month, day, hour, minute, 0, 0, time.Local)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}
