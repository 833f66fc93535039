package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/service"
	"github.com/cchome2024/FinanceSync/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const revenueText = `[{"recordType":"revenue","payload":{"company_id":"C1","occurred_on":"2025-02-10","amount":123456.78,"category_path":["主营业务收入","产品销售"]}}]`

// setupCLI isolates configuration and storage in a temporary home.
func setupCLI(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("FINANCESYNC_STORAGE_LOCAL_PATH", filepath.Join(home, "attachments"))
	cfgFile = ""
	return filepath.Join(home, "financesync.db")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func importedJobs(t *testing.T, dbPath string) []model.ImportJob {
	t.Helper()
	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	jobs, err := store.ListImportJobs(context.Background(), service.ImportJobFilter{})
	require.NoError(t, err)
	return jobs
}

func TestRootCmd(t *testing.T) {
	cmd := newRootCmd()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"migrate", "import", "review", "confirm", "jobs", "categories", "ledger", "forecast", "sync", "serve", "watch", "version"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}

func TestConfirmCmdFlags(t *testing.T) {
	cmd := confirmCmd()
	for _, name := range []string{"approve-all", "reject-all", "actions", "overwrite"} {
		assert.NotNil(t, cmd.Flag(name), "flag %s should exist", name)
	}
	assert.Error(t, cmd.Args(cmd, nil))
}

func TestWatchCmdDefaults(t *testing.T) {
	cmd := watchCmd()
	flag := cmd.Flag("settle")
	require.NotNil(t, flag)
	assert.Equal(t, "500ms", flag.DefValue)
}

func TestImportConfirmLedger(t *testing.T) {
	dbPath := setupCLI(t)

	out, err := execute(t, "import", "--db", dbPath, "--text", revenueText)
	require.NoError(t, err)
	assert.Contains(t, out, "1 record(s) pending review")

	jobs := importedJobs(t, dbPath)
	require.Len(t, jobs, 1)
	assert.Equal(t, model.StatusPendingReview, jobs[0].Status)
	assert.Equal(t, model.SourceAIChat, jobs[0].SourceType)

	out, err = execute(t, "confirm", "--db", dbPath, "--approve-all", jobs[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "1 approved, 0 rejected")

	out, err = execute(t, "ledger", "revenue", "--db", dbPath, "--company", "C1")
	require.NoError(t, err)
	assert.Contains(t, out, "123456.78")
	assert.Contains(t, out, "主营业务收入/产品销售")

	t.Run("a second import of the same record conflicts", func(t *testing.T) {
		_, err := execute(t, "import", "--db", dbPath, "--text", revenueText)
		require.NoError(t, err)

		jobs := importedJobs(t, dbPath)
		require.Len(t, jobs, 2)
		var pending string
		for _, j := range jobs {
			if j.Status == model.StatusPendingReview {
				pending = j.ID
			}
		}
		require.NotEmpty(t, pending)

		_, err = execute(t, "confirm", "--db", dbPath, "--approve-all", pending)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrDuplicateRecord)
		assert.Contains(t, err.Error(), "--overwrite")

		_, err = execute(t, "confirm", "--db", dbPath, "--approve-all", "--overwrite", pending)
		require.NoError(t, err)
	})
}

func TestImportFailedParse(t *testing.T) {
	dbPath := setupCLI(t)

	out, err := execute(t, "import", "--db", dbPath, "--text", `{"note": "nothing extracted"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "failed")

	jobs := importedJobs(t, dbPath)
	require.Len(t, jobs, 1)
	assert.Equal(t, model.StatusFailed, jobs[0].Status)
}

func TestConfirmRequiresDecision(t *testing.T) {
	dbPath := setupCLI(t)

	_, err := execute(t, "confirm", "--db", dbPath, "job-1")
	assert.Error(t, err)
}


func TestImportNothing(t *testing.T) {
	dbPath := setupCLI(t)

	_, err := execute(t, "import", "--db", dbPath)
	require.Error(t, err)
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.Error(), "Nothing to import")
}

func TestForecastCommands(t *testing.T) {
	dbPath := setupCLI(t)

	out, err := execute(t, "forecast", "add", "--db", dbPath, "--company", "C1",
		"--month", "2025-06", "--amount", "1200.50", "--category", "房租", "--description", "office rent")
	require.NoError(t, err)
	assert.Contains(t, out, "Added expense forecast")

	forecasts := func() []model.Forecast {
		store, err := storage.NewSQLiteStorage(dbPath)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		rows, err := store.ListForecasts(context.Background(), model.ForecastExpense, "C1")
		require.NoError(t, err)
		return rows
	}
	rows := forecasts()
	require.Len(t, rows, 1)
	id := rows[0].ID

	out, err = execute(t, "ledger", "expense-forecasts", "--db", dbPath, "--company", "C1")
	require.NoError(t, err)
	assert.Contains(t, out, "1200.50")
	assert.Contains(t, out, "office rent")

	_, err = execute(t, "forecast", "update", "--db", dbPath, "--amount", "900", "--certainty", "uncertain", id)
	require.NoError(t, err)
	rows = forecasts()
	require.Len(t, rows, 1)
	assert.Equal(t, "900.00", rows[0].ExpectedAmount.StringFixed(2))
	assert.Equal(t, model.CertaintyUncertain, rows[0].Certainty)
	assert.Equal(t, "office rent", *rows[0].Description)

	_, err = execute(t, "forecast", "update", "--db", dbPath, "--amount", "lots", id)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = execute(t, "forecast", "delete", "--db", dbPath, id)
	require.NoError(t, err)
	assert.Empty(t, forecasts())

	_, err = execute(t, "forecast", "delete", "--db", dbPath, id)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
