package etl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"claimsight/internal/errors"
)

func TestExtractCSV(t *testing.T) {
	csvData := strings.Join([]string{
		"claim_id,patient_name,claim_amount",
		"CLM000001,John Smith,1500.50",
		"CLM000002,,2300",
		"CLM000003,Jane Doe,N/A",
	}, "\n")

	e := NewExtractor(nil)
	table, err := e.ExtractCSV(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Equal(t, 3, table.NumRows())
	assert.Equal(t, []string{"claim_id", "patient_name", "claim_amount"}, table.Columns())

	text, ok := table.At(0, "claim_id").Text()
	require.True(t, ok)
	assert.Equal(t, "CLM000001", text)

	// Empty strings and NA tokens ingest as missing.
	assert.True(t, table.At(1, "patient_name").IsMissing())
	assert.True(t, table.At(2, "claim_amount").IsMissing())
}

func TestExtractCSV_BOMHeader(t *testing.T) {
	csvData := "\uFEFFclaim_id,claim_amount\nCLM000001,100\n"

	e := NewExtractor(nil)
	table, err := e.ExtractCSV(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)
	assert.True(t, table.HasColumn("claim_id"))
}

func TestExtractCSV_DuplicateAndBlankHeaders(t *testing.T) {
	csvData := "claim_id,claim_id,\nCLM000001,CLM000002,x\n"

	e := NewExtractor(nil)
	table, err := e.ExtractCSV(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, []string{"claim_id", "claim_id.1", "Unnamed: 2"}, table.Columns())
}

func TestExtractCSV_Empty(t *testing.T) {
	e := NewExtractor(nil)

	_, err := e.ExtractCSV(context.Background(), strings.NewReader(""))
	require.Error(t, err, "missing header must fail")

	_, err = e.ExtractCSV(context.Background(), strings.NewReader("claim_id,amount\n"))
	require.ErrorIs(t, err, errors.ErrEmptyDataset, "header without rows must fail")
}

func TestExtractXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"claim_id", "claim_amount"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"CLM000001", 1500.5}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"CLM000002"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	e := NewExtractor(nil)
	table, err := e.ExtractXLSX(context.Background(), &buf)
	require.NoError(t, err)

	assert.Equal(t, 2, table.NumRows())
	// Short sheet rows pad with missing cells.
	assert.True(t, table.At(1, "claim_amount").IsMissing())
}
