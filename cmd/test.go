package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptconduit/dashctx/internal/client"
	"github.com/promptconduit/dashctx/internal/config"
)

var testDescriptor string

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test data-access connectivity",
	Long: `Contact the data-access service to verify connectivity and authentication.
With --descriptor, also list the queries declared by that descriptor.

Prerequisites:
  - a data-access base URL (DASHCTX_DATA_ACCESS_URL or 'dashctx config set --data-access-url')`,
	RunE: runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	if !settings.DataAccess.IsConfigured() {
		return fmt.Errorf("data-access URL not configured. Set %s or run 'dashctx config set --data-access-url'", config.EnvDataAccessURL)
	}

	fmt.Printf("Testing connection to %s...\n", settings.DataAccess.BaseURL)

	broker := client.NewClient(settings.DataAccess, Version, logger)
	response := broker.TestConnection(cmd.Context())
	if !response.Success {
		return fmt.Errorf("data-access test failed: %s", response.Error)
	}

	fmt.Println("Success! Data-access service reachable.")
	fmt.Printf("  Status: %d\n", response.StatusCode)

	if testDescriptor == "" {
		return nil
	}

	ids, err := broker.QueriesFor(cmd.Context(), testDescriptor)
	if err != nil {
		return err
	}
	fmt.Printf("  Queries in %s: %d\n", testDescriptor, len(ids))
	for _, id := range ids {
		fmt.Printf("    - %s\n", id)
	}
	return nil
}

func init() {
	testCmd.Flags().StringVar(&testDescriptor, "descriptor", "", "descriptor path whose queries to list")
}
