package main

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	exportForceRefresh bool
	exportOutPath      string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <file>...",
	Short: "Audit feed files and write the report to disk",
	Long: `Run the reconciliation and write the two-section report (missing
products, then discrepancies) to the given path. The extension selects the
format: .csv or .xlsx.`,
	Example: `  product-audit export ./feeds/shopifyproductimport.csv -o report.csv
  product-audit export ./feeds/clearance.csv -o report.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().BoolVar(&exportForceRefresh, "force-refresh", false, "Bypass the local snapshot cache")
	exportCmd.Flags().StringVarP(&exportOutPath, "out", "o", "", "Report path (.csv or .xlsx)")
	exportCmd.MarkFlagRequired("out")
}

func runExport(cmd *cobra.Command, args []string) error {
	result, _, err := runFeedAudit(context.Background(), args, exportForceRefresh)
	if err != nil {
		return err
	}
	printSummary(result)
	return exportReport(result, exportOutPath)
}
