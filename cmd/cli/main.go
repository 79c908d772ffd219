package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Kirkidoo/ProductAudit/config"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "product-audit",
	Short: "Product Audit CLI - merchant feed vs Shopify catalog reconciliation",
	Long: `A CLI tool for reconciling merchant CSV/TSV feed exports against a Shopify
store catalog. Parses feed files, fetches the store's variant snapshot (via a
bulk operation or a batched SKU lookup), reports price, compare-at, tag, and
markup discrepancies plus missing products, and can apply the corresponding
fixes and creations.`,
	PersistentPreRunE: persistentPreRun,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}
}

// persistentPreRun initializes shared dependencies before each command.
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	logger = initLogger()

	needsStore := false
	switch cmd.Name() {
	case "audit", "apply", "export", "verify":
		needsStore = true
	}
	if needsStore {
		if cfg == nil {
			return fmt.Errorf("config required for %s command but not loaded", cmd.Name())
		}
		if cfg.Shopify.StoreName == "" || cfg.Shopify.AccessToken == "" {
			return fmt.Errorf("SHOPIFY_STORE_NAME and SHOPIFY_ACCESS_TOKEN must be set for %s", cmd.Name())
		}
	}
	return nil
}

func initLogger() *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if cfg != nil {
		if parsed, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsed
		}
	}

	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	return &l
}
