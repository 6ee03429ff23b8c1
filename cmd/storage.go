package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Manage per-user dashboard storage snapshots",
	Long: `Manage the storage snapshot handed to dashboards as Dashboards.initialStorage.

Examples:
  dashctx storage put joe '{"filters":{"year":2024}}'
  echo '{"a":1}' | dashctx storage put joe -
  dashctx storage get joe
  dashctx storage delete joe`,
}

var storageGetCmd = &cobra.Command{
	Use:   "get <user>",
	Short: "Print a user's snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		snapshot, err := store.Snapshot(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if snapshot == "" {
			return fmt.Errorf("no storage for user '%s'", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), snapshot)
		return nil
	},
}

var storagePutCmd = &cobra.Command{
	Use:   "put <user> <json|->",
	Short: "Replace a user's snapshot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := argOrStdin(cmd, args[1])
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.PutSnapshot(cmd.Context(), args[0], value); err != nil {
			return err
		}
		cmd.Printf("Storage saved for '%s'\n", args[0])
		return nil
	},
}

var storageDeleteCmd = &cobra.Command{
	Use:   "delete <user>",
	Short: "Remove a user's snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteSnapshot(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Printf("Storage removed for '%s'\n", args[0])
		return nil
	},
}

// argOrStdin returns arg, or standard input when arg is "-"
func argOrStdin(cmd *cobra.Command, arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func init() {
	storageCmd.AddCommand(storageGetCmd)
	storageCmd.AddCommand(storagePutCmd)
	storageCmd.AddCommand(storageDeleteCmd)
}
