package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscrepancyKey(t *testing.T) {
	d := Discrepancy{SKU: "S1", Field: FieldPrice}
	assert.Equal(t, "S1-Price", d.Key())
}

func TestFieldKindProductLevel(t *testing.T) {
	tests := []struct {
		field FieldKind
		want  bool
	}{
		{FieldPrice, false},
		{FieldDuplicateSKU, false},
		{FieldComparePriceIssue, false},
		{FieldH1InDescription, true},
		{FieldMissingClearanceTag, true},
		{FieldUnexpectedClearance, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.field.ProductLevel())
		})
	}
}

func TestRemoveDiscrepancyIdempotent(t *testing.T) {
	result := &AuditResult{
		Discrepancies: []Discrepancy{
			{SKU: "S1", Field: FieldPrice},
			{SKU: "S2", Field: FieldPrice},
		},
	}

	result.RemoveDiscrepancy("S1-Price")
	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, "S2", result.Discrepancies[0].SKU)

	// Removing the same key again is a no-op.
	result.RemoveDiscrepancy("S1-Price")
	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, "S2", result.Discrepancies[0].SKU)

	// As is removing a key that never existed.
	result.RemoveDiscrepancy("S9-Price")
	assert.Len(t, result.Discrepancies, 1)
}

func TestRemoveMissingGroups(t *testing.T) {
	result := &AuditResult{
		MissingProductGroups: []MissingProductGroup{
			{Handle: "g1"},
			{Handle: "g2"},
			{Handle: "g3"},
		},
	}

	result.RemoveMissingGroups([]string{"g1", "g3", "g9"})
	require.Len(t, result.MissingProductGroups, 1)
	assert.Equal(t, "g2", result.MissingProductGroups[0].Handle)

	result.RemoveMissingGroup("g2")
	result.RemoveMissingGroup("g2")
	assert.Empty(t, result.MissingProductGroups)
}
