package audit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Kirkidoo/ProductAudit/internal/types"
)

// Mutator is the write surface the applier drives.
type Mutator interface {
	FixDiscrepancy(ctx context.Context, d types.Discrepancy) error
	CreateProduct(ctx context.Context, g types.MissingProductGroup) (string, error)
}

// ItemError is one failed item of a bulk run.
type ItemError struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Error string `json:"error"`
}

// ApplyReport summarizes a bulk run. Succeeded keys are meant to be pruned
// from the audit result; failed items stay visible for manual retry.
type ApplyReport struct {
	Succeeded []string    `json:"succeeded"`
	Failed    []ItemError `json:"failed"`
}

// ApplyProgress is emitted before each item is attempted.
type ApplyProgress struct {
	Index int
	Total int
	Label string
}

// ApplyProgressFunc receives bulk run progress events.
type ApplyProgressFunc func(ApplyProgress)

// Applier runs fixes and creates strictly one at a time, in caller order.
// One item failing never aborts the rest.
type Applier struct {
	mutator Mutator
	log     zerolog.Logger
	metrics *Metrics
}

// NewApplier wires the bulk applier. metrics may be nil.
func NewApplier(mutator Mutator, logger zerolog.Logger, metrics *Metrics) *Applier {
	return &Applier{
		mutator: mutator,
		log:     logger.With().Str("component", "applier").Logger(),
		metrics: metrics,
	}
}

// FixAll applies every discrepancy in order and reports per-item outcomes.
func (a *Applier) FixAll(ctx context.Context, items []types.Discrepancy, onProgress ApplyProgressFunc) ApplyReport {
	var report ApplyReport
	for i, d := range items {
		label := fmt.Sprintf("%s (%s)", d.SKU, d.Field)
		if onProgress != nil {
			onProgress(ApplyProgress{Index: i + 1, Total: len(items), Label: label})
		}
		err := a.mutator.FixDiscrepancy(ctx, d)
		a.record(&report, d.Key(), label, err)
		if a.metrics != nil {
			a.metrics.ObserveFix(d.Field, err)
		}
	}
	return report
}

// CreateAll creates every missing group in order and reports per-item
// outcomes keyed by handle.
func (a *Applier) CreateAll(ctx context.Context, groups []types.MissingProductGroup, onProgress ApplyProgressFunc) ApplyReport {
	var report ApplyReport
	for i, g := range groups {
		label := fmt.Sprintf("%s (%d variants)", g.Handle, len(g.Variants))
		if onProgress != nil {
			onProgress(ApplyProgress{Index: i + 1, Total: len(groups), Label: label})
		}
		_, err := a.mutator.CreateProduct(ctx, g)
		a.record(&report, g.Handle, label, err)
		if a.metrics != nil {
			a.metrics.ObserveCreate(err)
		}
	}
	return report
}

func (a *Applier) record(report *ApplyReport, key, label string, err error) {
	if err != nil {
		a.log.Error().Err(err).Str("item", label).Msg("bulk item failed")
		report.Failed = append(report.Failed, ItemError{Key: key, Label: label, Error: err.Error()})
		return
	}
	report.Succeeded = append(report.Succeeded, key)
}
