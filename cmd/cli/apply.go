package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kirkidoo/ProductAudit/internal/audit"
	"github.com/Kirkidoo/ProductAudit/internal/types"
)

var (
	applyForceRefresh bool
	applyCreate       bool
)

// applyCmd represents the apply command
var applyCmd = &cobra.Command{
	Use:   "apply <file>...",
	Short: "Audit feed files and push the automated fixes to the store",
	Long: `Run the same reconciliation as the audit command, then apply every
discrepancy that has an automated fix, one mutation at a time. Duplicate SKU
findings have no safe automated fix and are left for manual resolution.

With --create, products missing from the store are also created (as drafts)
after the fixes.`,
	Example: `  product-audit apply ./feeds/shopifyproductimport.csv
  product-audit apply ./feeds/clearance.csv --create`,
	Args: cobra.MinimumNArgs(1),
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().BoolVar(&applyForceRefresh, "force-refresh", false, "Bypass the local snapshot cache")
	applyCmd.Flags().BoolVar(&applyCreate, "create", false, "Also create missing products as drafts")
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	result, client, err := runFeedAudit(ctx, args, applyForceRefresh)
	if err != nil {
		return err
	}
	printSummary(result)

	fixable := make([]types.Discrepancy, 0, len(result.Discrepancies))
	manual := 0
	for _, d := range result.Discrepancies {
		if d.Field == types.FieldDuplicateSKU {
			manual++
			continue
		}
		fixable = append(fixable, d)
	}
	if manual > 0 {
		fmt.Printf("  Skipping %d duplicate SKU finding(s): manual resolution required\n", manual)
	}

	applier := audit.NewApplier(client, *logger, nil)
	onProgress := func(p audit.ApplyProgress) {
		logger.Info().Int("item", p.Index).Int("total", p.Total).Msg(p.Label)
	}

	if len(fixable) > 0 {
		report := applier.FixAll(ctx, fixable, onProgress)
		printApplyReport("Fixes", report)
	} else {
		fmt.Println("No automated fixes to apply.")
	}

	if applyCreate && len(result.MissingProductGroups) > 0 {
		report := applier.CreateAll(ctx, result.MissingProductGroups, onProgress)
		printApplyReport("Creates", report)
	}
	return nil
}

func printApplyReport(what string, report audit.ApplyReport) {
	fmt.Printf("%s: %d succeeded, %d failed\n", what, len(report.Succeeded), len(report.Failed))
	for _, item := range report.Failed {
		fmt.Printf("  FAILED %s: %s\n", item.Label, item.Error)
	}
}
