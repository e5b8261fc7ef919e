package etl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimsight/internal/dataset"
)

func claimsRow(values ...dataset.Value) []dataset.Value {
	return values
}

func TestTransform_CleansClaimColumns(t *testing.T) {
	tbl, err := dataset.New([]string{"claim_id", "patient_name", "dob", "zip_code", "claim_amount"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow(claimsRow(
		dataset.String("  CLM000001  "),
		dataset.String("  john   o'brien-SMITH  "),
		dataset.String("1/2/1980"),
		dataset.String("123"),
		dataset.String("1500.50"),
	)))

	tr := NewTransformer(nil)
	out, err := tr.Transform(context.Background(), tbl)
	require.NoError(t, err)

	id, _ := out.At(0, "claim_id").Text()
	assert.Equal(t, "CLM000001", id, "plain string cells are trimmed")

	name, _ := out.At(0, "patient_name").Text()
	assert.Equal(t, "John Obrien-Smith", name, "apostrophe stripped, title-cased, spaces collapsed")

	dob, ok := out.At(0, "dob").Time()
	require.True(t, ok, "dob normalizes to a date cell")
	assert.Equal(t, "1980-01-02", dob.Format(dataset.DateLayout))

	zip, _ := out.At(0, "zip_code").Text()
	assert.Equal(t, "00123", zip, "short zips left-pad with zeros")

	amount, ok := out.At(0, "claim_amount").Float()
	require.True(t, ok)
	assert.InDelta(t, 1500.50, amount, 1e-9)
}

func TestTransform_KeepsUncleanableValues(t *testing.T) {
	tbl, err := dataset.New([]string{"dob", "zip_code", "patient_name", "claim_amount"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow(claimsRow(
		dataset.String("not-a-date"),
		dataset.String("no digits"),
		dataset.String("!!!"),
		dataset.String("abc"),
	)))

	tr := NewTransformer(nil)
	out, err := tr.Transform(context.Background(), tbl)
	require.NoError(t, err)

	// Unparseable dates keep their spelling so the consistency rules can
	// flag them later.
	text, ok := out.At(0, "dob").Text()
	require.True(t, ok)
	assert.Equal(t, "not-a-date", text)

	// Zip with no digits, name with no letters, unparseable amount all
	// resolve to missing.
	assert.True(t, out.At(0, "zip_code").IsMissing())
	assert.True(t, out.At(0, "patient_name").IsMissing())
	assert.True(t, out.At(0, "claim_amount").IsMissing())
}

func TestTransform_ZipTruncation(t *testing.T) {
	tbl, err := dataset.New([]string{"zip_code"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow(claimsRow(dataset.String("12345-6789"))))

	tr := NewTransformer(nil)
	out, err := tr.Transform(context.Background(), tbl)
	require.NoError(t, err)

	zip, _ := out.At(0, "zip_code").Text()
	assert.Equal(t, "12345", zip)
}

func TestTransform_DoesNotMutateInput(t *testing.T) {
	tbl, err := dataset.New([]string{"zip_code"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow(claimsRow(dataset.String("123"))))

	tr := NewTransformer(nil)
	_, err = tr.Transform(context.Background(), tbl)
	require.NoError(t, err)

	original, _ := tbl.At(0, "zip_code").Text()
	assert.Equal(t, "123", original)
}

func TestTransformSummary(t *testing.T) {
	before, err := dataset.New([]string{"claim_amount"})
	require.NoError(t, err)
	require.NoError(t, before.AppendRow(claimsRow(dataset.String("abc"))))
	require.NoError(t, before.AppendRow(claimsRow(dataset.String("100"))))

	tr := NewTransformer(nil)
	after, err := tr.Transform(context.Background(), before)
	require.NoError(t, err)

	summary := tr.Summary(before, after)
	assert.Equal(t, 2, summary.RowsProcessed)
	assert.Equal(t, 0, summary.MissingBefore["claim_amount"])
	assert.Equal(t, 1, summary.MissingAfter["claim_amount"], "uncoercible amount became missing")
}
