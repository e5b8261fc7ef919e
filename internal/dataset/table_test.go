package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		columns     []string
		expectError bool
	}{
		{name: "valid columns", columns: []string{"claim_id", "claim_amount"}, expectError: false},
		{name: "single column", columns: []string{"claim_id"}, expectError: false},
		{name: "no columns", columns: nil, expectError: true},
		{name: "empty column name", columns: []string{"claim_id", ""}, expectError: true},
		{name: "blank column name", columns: []string{"claim_id", "   "}, expectError: true},
		{name: "duplicate column name", columns: []string{"claim_id", "claim_id"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := New(tt.columns)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, tbl)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.columns, tbl.Columns())
				assert.Equal(t, 0, tbl.NumRows())
			}
		})
	}
}

func TestTable_AppendRow(t *testing.T) {
	tbl, err := New([]string{"claim_id", "claim_amount"})
	require.NoError(t, err)

	require.NoError(t, tbl.AppendRow([]Value{String("CLM000001"), Number(5000)}))
	assert.Equal(t, 1, tbl.NumRows())

	err = tbl.AppendRow([]Value{String("CLM000002")})
	assert.Error(t, err)
	assert.Equal(t, 1, tbl.NumRows())
}

func TestTable_AtAndSet(t *testing.T) {
	tbl, err := New([]string{"claim_id", "claim_amount"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]Value{String("CLM000001"), Number(5000)}))

	f, ok := tbl.At(0, "claim_amount").Float()
	require.True(t, ok)
	assert.Equal(t, 5000.0, f)

	// Unknown column and out-of-range row read as missing.
	assert.True(t, tbl.At(0, "nope").IsMissing())
	assert.True(t, tbl.At(5, "claim_id").IsMissing())
	assert.True(t, tbl.At(-1, "claim_id").IsMissing())

	tbl.Set(0, "claim_amount", Number(750))
	f, ok = tbl.At(0, "claim_amount").Float()
	require.True(t, ok)
	assert.Equal(t, 750.0, f)

	// Writes outside the table are dropped, not panics.
	tbl.Set(9, "claim_amount", Number(1))
	tbl.Set(0, "nope", Number(1))
	assert.Equal(t, 1, tbl.NumRows())
}

func TestTable_RowAccess(t *testing.T) {
	tbl, err := New([]string{"claim_id", "claim_amount"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]Value{String("CLM000001"), Number(5000)}))

	row := tbl.Row(0)
	require.Len(t, row, 2)
	// Mutating the returned slice must not touch the table.
	row[1] = Number(-1)
	f, _ := tbl.At(0, "claim_amount").Float()
	assert.Equal(t, 5000.0, f)

	m := tbl.RowMap(0)
	require.NotNil(t, m)
	id, ok := m["claim_id"].Text()
	require.True(t, ok)
	assert.Equal(t, "CLM000001", id)

	assert.Nil(t, tbl.Row(3))
	assert.Nil(t, tbl.RowMap(-1))
}

func TestTable_Column(t *testing.T) {
	tbl, err := New([]string{"claim_id", "claim_amount"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]Value{String("CLM000001"), Number(100)}))
	require.NoError(t, tbl.AppendRow([]Value{String("CLM000002"), Number(200)}))

	col := tbl.Column("claim_amount")
	require.Len(t, col, 2)
	col[0] = Number(-1)
	f, _ := tbl.At(0, "claim_amount").Float()
	assert.Equal(t, 100.0, f, "Column must return a copy")

	assert.Nil(t, tbl.Column("missing_column"))
}

func TestTable_Select(t *testing.T) {
	tbl, err := New([]string{"claim_id"})
	require.NoError(t, err)
	for _, id := range []string{"A", "B", "C", "D"} {
		require.NoError(t, tbl.AppendRow([]Value{String(id)}))
	}

	sub, kept := tbl.Select([]int{3, 1, 99, -2})
	assert.Equal(t, []int{3, 1}, kept, "out-of-range ids are skipped, order preserved")
	require.Equal(t, 2, sub.NumRows())

	v, _ := sub.At(0, "claim_id").Text()
	assert.Equal(t, "D", v)
	v, _ = sub.At(1, "claim_id").Text()
	assert.Equal(t, "B", v)
}

func TestTable_SelectIsolatesColumnIndex(t *testing.T) {
	tbl, err := New([]string{"claim_id"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]Value{String("CLM000001")}))
	require.NoError(t, tbl.AppendRow([]Value{String("CLM000002")}))

	sub, _ := tbl.Select([]int{0})
	require.NoError(t, sub.AddColumn("flag", []Value{String("dup")}))

	assert.Equal(t, []string{"claim_id", "flag"}, sub.Columns())
	assert.False(t, tbl.HasColumn("flag"), "projection columns must not leak into the parent")
	v, _ := tbl.At(1, "claim_id").Text()
	assert.Equal(t, "CLM000002", v)
}

func TestTable_AddColumn(t *testing.T) {
	tbl, err := New([]string{"claim_id"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]Value{String("CLM000001")}))
	require.NoError(t, tbl.AppendRow([]Value{String("CLM000002")}))

	require.NoError(t, tbl.AddColumn("age", []Value{Number(41.5), Number(63.2)}))
	assert.Equal(t, []string{"claim_id", "age"}, tbl.Columns())
	f, ok := tbl.At(1, "age").Float()
	require.True(t, ok)
	assert.Equal(t, 63.2, f)

	assert.Error(t, tbl.AddColumn("age", []Value{Number(1), Number(2)}), "duplicate name")
	assert.Error(t, tbl.AddColumn("short", []Value{Number(1)}), "length mismatch")
	assert.Error(t, tbl.AddColumn("  ", []Value{Number(1), Number(2)}), "blank name")
}

func TestTable_RowKey(t *testing.T) {
	tbl, err := New([]string{"a", "b"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]Value{String("1"), String("x")}))
	require.NoError(t, tbl.AppendRow([]Value{Number(1), String("x")}))
	require.NoError(t, tbl.AppendRow([]Value{String("1"), String("x")}))

	// Same content gives the same key; same rendering with a different kind
	// does not.
	assert.Equal(t, tbl.RowKey(0), tbl.RowKey(2))
	assert.NotEqual(t, tbl.RowKey(0), tbl.RowKey(1))
	assert.Equal(t, "", tbl.RowKey(17))
}

func TestSortedRowIDs(t *testing.T) {
	ids := map[int]struct{}{7: {}, 2: {}, 93: {}, 0: {}}
	assert.Equal(t, []int{0, 2, 7, 93}, SortedRowIDs(ids))
	assert.Empty(t, SortedRowIDs(nil))
}
