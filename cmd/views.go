package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptconduit/dashctx/internal/storage"
)

var viewsShared bool

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Manage saved dashboard views",
	Long: `Manage the saved views handed to dashboards as Dashboards.view.

A user's own view wins over a shared view with the same name.

Examples:
  dashctx views put joe overview '{"params":{"year":2024}}'
  dashctx views put --shared overview '{"params":{}}'
  dashctx views get joe overview
  dashctx views list joe`,
}

var viewsGetCmd = &cobra.Command{
	Use:   "get <user> <name>",
	Short: "Print the view a user would see",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		raw, err := store.View(cmd.Context(), args[1], args[0])
		if err != nil {
			return err
		}
		if raw == nil {
			return fmt.Errorf("view '%s' not found", args[1])
		}

		var out bytes.Buffer
		if err := json.Indent(&out, raw, "", "  "); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.String())
		return nil
	},
}

var viewsPutCmd = &cobra.Command{
	Use:   "put [<user>] <name> <json|->",
	Short: "Save a view for a user, or a shared view with --shared",
	Args: func(cmd *cobra.Command, args []string) error {
		if viewsShared {
			return cobra.ExactArgs(2)(cmd, args)
		}
		return cobra.ExactArgs(3)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		owner := storage.SharedOwner
		if !viewsShared {
			owner, args = args[0], args[1:]
		}

		value, err := argOrStdin(cmd, args[1])
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.PutView(cmd.Context(), owner, args[0], json.RawMessage(value)); err != nil {
			return err
		}
		cmd.Printf("View '%s' saved for %s\n", args[0], owner)
		return nil
	},
}

var viewsListCmd = &cobra.Command{
	Use:   "list [<user>]",
	Short: "List a user's views, or the shared views",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner := storage.SharedOwner
		if len(args) == 1 {
			owner = args[0]
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		names, err := store.ListViews(cmd.Context(), owner)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			cmd.Println("No views saved.")
			return nil
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var viewsDeleteCmd = &cobra.Command{
	Use:   "delete <user> <name>",
	Short: "Remove a view",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteView(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		cmd.Printf("View '%s' removed\n", args[1])
		return nil
	},
}

func init() {
	viewsCmd.AddCommand(viewsGetCmd)
	viewsCmd.AddCommand(viewsPutCmd)
	viewsCmd.AddCommand(viewsListCmd)
	viewsCmd.AddCommand(viewsDeleteCmd)

	viewsPutCmd.Flags().BoolVar(&viewsShared, "shared", false, "save as a view every user sees")
}
