package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Kirkidoo/ProductAudit/internal/audit"
	"github.com/Kirkidoo/ProductAudit/internal/parsers/feed"
)

var parseOutput string

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a feed file and report validation results",
	Long: `Parse a local merchant feed export (CSV or TSV) without contacting the
store. The output shows parsing statistics: valid records, rows rejected with
warnings, and the detected source signals derived from the filename.`,
	Example: `  product-audit parse ./feeds/shopifyproductimport.csv
  product-audit parse ./feeds/clearance-week34.csv --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parseOutput, "output", "table", "Output format: table or json")
}

func runParse(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	logger.Info().Str("file", filePath).Msgf("Read %d bytes", len(content))

	isClearance, isFullExport := audit.SourceSignals(filepath.Base(filePath))
	result, err := feed.ParseBytes(content, isClearance)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	warnings := 0
	for _, row := range result.Rows {
		if row.Warning != "" {
			warnings++
		}
	}

	if parseOutput == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"file":         filePath,
			"clearance":    isClearance,
			"fullExport":   isFullExport,
			"totalRows":    len(result.Rows),
			"validRecords": len(result.Products),
			"rejectedRows": warnings,
			"rows":         result.Rows,
		})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "File:\t%s\n", filePath)
	fmt.Fprintf(w, "Clearance source:\t%v\n", isClearance)
	fmt.Fprintf(w, "Full export:\t%v\n", isFullExport)
	fmt.Fprintf(w, "Data rows:\t%d\n", len(result.Rows))
	fmt.Fprintf(w, "Valid records:\t%d\n", len(result.Products))
	fmt.Fprintf(w, "Rejected rows:\t%d\n", warnings)
	w.Flush()

	if warnings > 0 {
		fmt.Println()
		for _, row := range result.Rows {
			if row.Warning != "" {
				fmt.Printf("  line %d: %s\n", row.LineNumber, row.Warning)
			}
		}
	}
	return nil
}
