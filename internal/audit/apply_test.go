package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kirkidoo/ProductAudit/internal/types"
)

// mockMutator records calls and fails items on demand.
type mockMutator struct {
	fixed   []string
	created []string
	failOn  map[string]error
}

func newMockMutator() *mockMutator {
	return &mockMutator{failOn: make(map[string]error)}
}

func (m *mockMutator) FixDiscrepancy(_ context.Context, d types.Discrepancy) error {
	if err, ok := m.failOn[d.SKU]; ok {
		return err
	}
	m.fixed = append(m.fixed, d.SKU)
	return nil
}

func (m *mockMutator) CreateProduct(_ context.Context, g types.MissingProductGroup) (string, error) {
	if err, ok := m.failOn[g.Handle]; ok {
		return "", err
	}
	m.created = append(m.created, g.Handle)
	return "gid://shopify/Product/1", nil
}

func TestFixAllIsolatesFailures(t *testing.T) {
	mutator := newMockMutator()
	mutator.failOn["S2"] = errors.New("variant gone")

	items := []types.Discrepancy{
		{SKU: "S1", Field: types.FieldPrice},
		{SKU: "S2", Field: types.FieldPrice},
		{SKU: "S3", Field: types.FieldPrice},
	}

	var progress []ApplyProgress
	applier := NewApplier(mutator, zerolog.Nop(), nil)
	report := applier.FixAll(context.Background(), items, func(p ApplyProgress) {
		progress = append(progress, p)
	})

	// All three were attempted, in order.
	assert.Equal(t, []string{"S1", "S3"}, mutator.fixed)
	assert.Equal(t, []string{"S1-Price", "S3-Price"}, report.Succeeded)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, "S2-Price", report.Failed[0].Key)
	assert.Contains(t, report.Failed[0].Error, "variant gone")

	require.Len(t, progress, 3)
	assert.Equal(t, 1, progress[0].Index)
	assert.Equal(t, 3, progress[0].Total)
	assert.Equal(t, 3, progress[2].Index)
}

func TestCreateAllReportsByHandle(t *testing.T) {
	mutator := newMockMutator()
	mutator.failOn["g2"] = errors.New("sku conflict")

	groups := []types.MissingProductGroup{
		{Handle: "g1", Variants: []types.Product{{SKU: "A"}}},
		{Handle: "g2", Variants: []types.Product{{SKU: "B"}}},
	}

	applier := NewApplier(mutator, zerolog.Nop(), nil)
	report := applier.CreateAll(context.Background(), groups, nil)

	assert.Equal(t, []string{"g1"}, report.Succeeded)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "g2", report.Failed[0].Key)
}
