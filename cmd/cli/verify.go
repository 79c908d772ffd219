package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kirkidoo/ProductAudit/internal/shopify"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the configured store credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := shopify.NewClient(cfg.Shopify, cfg.RateLimit, *logger)
		name, err := client.VerifyCredentials(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Connected to shop: %s\n", name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
