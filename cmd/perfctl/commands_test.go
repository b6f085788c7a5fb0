package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/godilite/perf-dashboard/internal/service"
)

func writeExampleWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName(f.GetSheetName(0), "StakeholderA"))
	require.NoError(t, f.SetSheetRow("StakeholderA", "A1", &[]any{"Division", "Name", "Target", "Actual"}))
	require.NoError(t, f.SetSheetRow("StakeholderA", "A2", &[]any{"Ops", "X", 10, 12}))

	_, err := f.NewSheet("StakeholderB")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("StakeholderB", "A1", &[]any{"Division", "Name", "Traget", "Actual"}))
	require.NoError(t, f.SetSheetRow("StakeholderB", "A2", &[]any{"Ops", "Y", 20, 10}))
	require.NoError(t, f.SetSheetRow("StakeholderB", "A3", &[]any{"Sales", "Z", 0, 4}))

	path := filepath.Join(t.TempDir(), "detaileddata.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// fieldsOf returns the whitespace separated cells of each output line.
func fieldsOf(out string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if f := strings.Fields(line); len(f) > 0 {
			rows = append(rows, f)
		}
	}
	return rows
}

func TestSummaryCommand(t *testing.T) {
	path := writeExampleWorkbook(t)

	t.Run("table", func(t *testing.T) {
		out, err := run(t, "--file", path, "summary", "--by", "division")
		require.NoError(t, err)

		rows := fieldsOf(out)
		require.Len(t, rows, 3)
		assert.Equal(t, []string{"Division", "Target", "Actual", "Performance"}, rows[0])
		assert.Equal(t, []string{"Ops", "30", "22", "73.3%"}, rows[1])
		assert.Equal(t, []string{"Sales", "0", "4", "n/a"}, rows[2])
	})

	t.Run("json", func(t *testing.T) {
		out, err := run(t, "--file", path, "--json", "summary", "--by", "stakeholder")
		require.NoError(t, err)

		var summary service.Summary
		require.NoError(t, json.Unmarshal([]byte(out), &summary))
		assert.Equal(t, service.GroupByStakeholder, summary.GroupBy)
		require.Len(t, summary.Groups, 2)
		assert.Equal(t, "StakeholderA", summary.Groups[0].Stakeholder)
		assert.Equal(t, "green", string(summary.Groups[0].Color))
		assert.Equal(t, "StakeholderB", summary.Groups[1].Stakeholder)
		assert.EqualValues(t, 20, summary.Groups[1].Target)
	})

	t.Run("pair", func(t *testing.T) {
		out, err := run(t, "--file", path, "summary", "--by", "pair")
		require.NoError(t, err)

		rows := fieldsOf(out)
		require.Len(t, rows, 4)
		assert.Equal(t, []string{"Ops", "StakeholderA", "10", "12", "120.0%"}, rows[1])
	})

	t.Run("invalid grouping", func(t *testing.T) {
		_, err := run(t, "--file", path, "summary", "--by", "name")
		require.Error(t, err)
		assert.ErrorIs(t, err, service.ErrInvalidGroupBy)
	})
}

func TestSelectionCommands(t *testing.T) {
	path := writeExampleWorkbook(t)

	out, err := run(t, "--file", path, "divisions")
	require.NoError(t, err)
	assert.Equal(t, "Ops\nSales\n", out)

	out, err = run(t, "--file", path, "stakeholders", "Ops")
	require.NoError(t, err)
	assert.Equal(t, "StakeholderA\nStakeholderB\n", out)

	out, err = run(t, "--file", path, "--json", "stakeholders", "Unknown")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestBreakdownCommand(t *testing.T) {
	path := writeExampleWorkbook(t)

	t.Run("match", func(t *testing.T) {
		out, err := run(t, "--file", path, "breakdown", "--division", "Ops", "--stakeholder", "StakeholderB")
		require.NoError(t, err)

		rows := fieldsOf(out)
		require.Len(t, rows, 4)
		assert.Equal(t, []string{"StakeholderB", "20", "10", "50.0%"}, rows[1])
		assert.Equal(t, []string{"Name", "Target", "Actual", "Performance", "%"}, rows[2])
		assert.Equal(t, []string{"Y", "20", "10", "50.0%"}, rows[3])
	})

	t.Run("empty selection", func(t *testing.T) {
		out, err := run(t, "--file", path, "breakdown", "--division", "Sales", "--stakeholder", "StakeholderA")
		require.NoError(t, err)
		assert.Equal(t, noDataMessage+"\n", out)
	})

	t.Run("missing flags", func(t *testing.T) {
		_, err := run(t, "--file", path, "breakdown", "--division", "Ops")
		assert.Error(t, err)
	})
}

func TestMissingWorkbook(t *testing.T) {
	_, err := run(t, "--file", filepath.Join(t.TempDir(), "absent.xlsx"), "divisions")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.xlsx")
}
