package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Kirkidoo/ProductAudit/internal/audit"
	"github.com/Kirkidoo/ProductAudit/internal/parsers/feed"
	"github.com/Kirkidoo/ProductAudit/internal/shopify"
	"github.com/Kirkidoo/ProductAudit/internal/storage"
	"github.com/Kirkidoo/ProductAudit/internal/types"
)

var (
	auditForceRefresh bool
	auditExportPath   string
	auditOutput       string
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit <file>...",
	Short: "Reconcile feed files against the store catalog",
	Long: `Parse one or more feed files, fetch the store's variant snapshot, and
report discrepancies and missing products.

The fetch strategy is derived from the filenames: a file whose name contains
the full-export marker selects the bulk snapshot (cached locally between
runs); otherwise only the feed's SKUs are looked up in batches and checks
requiring full-catalog context are skipped. A filename containing "clearance"
marks its records as clearance items.`,
	Example: `  product-audit audit ./feeds/shopifyproductimport.csv
  product-audit audit ./feeds/shopifyproductimport.csv ./feeds/clearance.csv --export report.xlsx
  product-audit audit ./feeds/weekly-update.csv --output json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().BoolVar(&auditForceRefresh, "force-refresh", false, "Bypass the local snapshot cache")
	auditCmd.Flags().StringVar(&auditExportPath, "export", "", "Write the report to a file (.csv or .xlsx)")
	auditCmd.Flags().StringVar(&auditOutput, "output", "summary", "Output format: summary or json")
}

func runAudit(cmd *cobra.Command, args []string) error {
	result, _, err := runFeedAudit(context.Background(), args, auditForceRefresh)
	if err != nil {
		return err
	}

	if auditOutput == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printSummary(result)
	}

	if auditExportPath != "" {
		return exportReport(result, auditExportPath)
	}
	return nil
}

// collectFeeds parses and merges the supplied feed files. Later files
// override earlier ones per SKU.
func collectFeeds(paths []string) (merged []types.Product, clearanceSKUs, sources []string, fullCatalog bool, err error) {
	index := make(map[string]int)

	for _, filePath := range paths {
		content, readErr := os.ReadFile(filePath)
		if readErr != nil {
			return nil, nil, nil, false, fmt.Errorf("failed to read %s: %w", filePath, readErr)
		}
		isClearance, isFullExport := audit.SourceSignals(filepath.Base(filePath))
		fullCatalog = fullCatalog || isFullExport
		sources = append(sources, filepath.Base(filePath))

		result, parseErr := feed.ParseBytes(content, isClearance)
		if parseErr != nil {
			return nil, nil, nil, false, fmt.Errorf("parsing %s: %w", filePath, parseErr)
		}
		for _, row := range result.Rows {
			if row.Warning != "" {
				logger.Warn().Str("file", filePath).Int("line", row.LineNumber).Msg(row.Warning)
			}
		}
		for _, p := range result.Products {
			if isClearance {
				clearanceSKUs = append(clearanceSKUs, p.SKU)
			}
			if i, seen := index[p.SKU]; seen {
				merged[i] = p
				continue
			}
			index[p.SKU] = len(merged)
			merged = append(merged, p)
		}
	}
	if len(merged) == 0 {
		return nil, nil, nil, false, fmt.Errorf("no valid records in the supplied files")
	}
	return merged, clearanceSKUs, sources, fullCatalog, nil
}

// runFeedAudit parses the files and runs the reconciliation. The client is
// returned so callers can go on to apply mutations.
func runFeedAudit(ctx context.Context, paths []string, forceRefresh bool) (*types.AuditResult, *shopify.Client, error) {
	merged, clearanceSKUs, sources, fullCatalog, err := collectFeeds(paths)
	if err != nil {
		return nil, nil, err
	}

	cache, err := storage.NewLocalStore(cfg.Cache.BasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening snapshot cache: %w", err)
	}
	client := shopify.NewClient(cfg.Shopify, cfg.RateLimit, *logger)
	runner := audit.NewRunner(client, cache, shopify.NormalizeOptions{
		LocationGID:      cfg.Shopify.LocationGID,
		LocationLegacyID: cfg.Shopify.LocationLegacyID,
	}, *logger, nil)

	result, err := runner.Run(ctx, merged, clearanceSKUs, audit.RunOptions{
		ForceRefresh: forceRefresh,
		FullCatalog:  fullCatalog,
		SourceFiles:  sources,
		OnProgress: func(p shopify.Progress) {
			logger.Info().Str("stage", string(p.Stage)).Msg(p.Message)
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return result, client, nil
}

func printSummary(result *types.AuditResult) {
	fmt.Printf("Audit complete (%s)\n", auditScope(result))
	fmt.Printf("  Missing product groups: %d\n", len(result.MissingProductGroups))
	fmt.Printf("  Discrepancies: %d\n", len(result.Discrepancies))

	byField := make(map[types.FieldKind]int)
	for _, d := range result.Discrepancies {
		byField[d.Field]++
	}
	for _, field := range types.AllFieldKinds {
		if byField[field] > 0 {
			fmt.Printf("    %s: %d\n", field, byField[field])
		}
	}
}

func auditScope(result *types.AuditResult) string {
	if result.PartialAudit {
		return "partial audit"
	}
	return "full catalog"
}

func exportReport(result *types.AuditResult, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		if err := os.WriteFile(path, audit.ExportCSV(result), 0644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	case ".xlsx":
		f, err := audit.ExportXLSX(result)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := f.SaveAs(path); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	default:
		return fmt.Errorf("unsupported export extension %q (use .csv or .xlsx)", filepath.Ext(path))
	}
	logger.Info().Str("path", path).Msg("Report written")
	return nil
}
