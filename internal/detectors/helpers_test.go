package detectors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"claimsight/internal/dataset"
)

func buildTable(t *testing.T, columns []string, rows ...[]dataset.Value) *dataset.Table {
	t.Helper()
	tbl, err := dataset.New(columns)
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, tbl.AppendRow(row))
	}
	return tbl
}

func classify(tbl *dataset.Table) *dataset.Schema {
	return dataset.NewClassifier().Classify(tbl)
}

// claimsTable builds a clean n-row table with unique ids and amounts spread
// evenly between lo and hi.
func claimsTable(t *testing.T, n int, lo, hi float64) *dataset.Table {
	t.Helper()
	tbl, err := dataset.New([]string{"claim_id", "claim_amount"})
	require.NoError(t, err)
	step := 0.0
	if n > 1 {
		step = (hi - lo) / float64(n-1)
	}
	for i := 0; i < n; i++ {
		require.NoError(t, tbl.AppendRow([]dataset.Value{
			dataset.String(fmt.Sprintf("CLM%06d", i+1)),
			dataset.Number(lo + float64(i)*step),
		}))
	}
	return tbl
}

func date(t *testing.T, value string) dataset.Value {
	t.Helper()
	parsed, ok := dataset.ParseDate(value)
	require.True(t, ok, "test date %q must parse", value)
	return dataset.Time(parsed)
}
