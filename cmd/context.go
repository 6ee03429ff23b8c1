package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptconduit/dashctx/internal/dashctx"
	"github.com/promptconduit/dashctx/internal/schema"
	"github.com/promptconduit/dashctx/internal/session"
)

var (
	ctxPath          string
	ctxSolution      string
	ctxFile          string
	ctxAction        string
	ctxView          string
	ctxParams        []string
	ctxUser          string
	ctxAuthenticated bool
	ctxRoles         []string
	ctxAdmin         bool
	ctxLocale        string
	ctxInactive      int
	ctxJSON          bool
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Build the dashboard context for a request",
	Long: `Build the Dashboards.context initialization script for a dashboard.

The dashboard is identified either by --path, or by --solution/--path/--file
(old style, joined together; an .xcdf --action is appended).

Examples:
  dashctx context --path public/sales/dash.wcdf --user admin --authenticated
  dashctx context --solution public --path sales --file dash.wcdf
  dashctx context --path public/dash.wcdf --param paramregion=EU --param region=paramregion
  dashctx context --path public/dash.wcdf --json`,
	RunE: runContext,
}

func runContext(cmd *cobra.Command, args []string) error {
	params, err := parseParams(ctxParams)
	if err != nil {
		return err
	}
	setParam(params, schema.ParamSolution, ctxSolution)
	setParam(params, schema.ParamPath, ctxPath)
	setParam(params, schema.ParamFile, ctxFile)
	setParam(params, schema.ParamAction, ctxAction)
	setParam(params, schema.ParamView, ctxView)

	rt, err := newEngineRuntime(settings, true, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	sess := &session.Static{
		Name:     ctxUser,
		Authed:   ctxAuthenticated,
		RoleList: ctxRoles,
		Admin:    ctxAdmin,
		Lang:     ctxLocale,
	}

	if ctxJSON {
		req := dashctx.RequestFromParameters(params, ctxInactive)
		data, err := rt.engine.Build(cmd.Context(), req, sess).ToIndentedJSON()
		if err != nil {
			return fmt.Errorf("failed to serialize context: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), data)
		return nil
	}

	return rt.engine.Generate(cmd.Context(), cmd.OutOrStdout(), params, ctxInactive, sess)
}

// parseParams turns key=value pairs into a parameter map
func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, found := strings.Cut(p, "=")
		if !found || k == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", p)
		}
		params[k] = v
	}
	return params, nil
}

func setParam(params map[string]string, key, value string) {
	if value != "" {
		params[key] = value
	}
}

func init() {
	contextCmd.Flags().StringVar(&ctxPath, "path", "", "dashboard path")
	contextCmd.Flags().StringVar(&ctxSolution, "solution", "", "solution (old-style addressing)")
	contextCmd.Flags().StringVar(&ctxFile, "file", "", "dashboard file (old-style addressing)")
	contextCmd.Flags().StringVar(&ctxAction, "action", "", "dashboard action")
	contextCmd.Flags().StringVar(&ctxView, "view", "", "saved view id (defaults to the action)")
	contextCmd.Flags().StringArrayVar(&ctxParams, "param", nil, "request parameter key=value (repeatable)")
	contextCmd.Flags().StringVar(&ctxUser, "user", "", "session user name")
	contextCmd.Flags().BoolVar(&ctxAuthenticated, "authenticated", false, "treat the session as logged in")
	contextCmd.Flags().StringSliceVar(&ctxRoles, "roles", nil, "session roles")
	contextCmd.Flags().BoolVar(&ctxAdmin, "admin", false, "session user is an administrator")
	contextCmd.Flags().StringVar(&ctxLocale, "locale", "", "session locale (overrides settings)")
	contextCmd.Flags().IntVar(&ctxInactive, "inactive", 0, "session inactivity timeout in seconds")
	contextCmd.Flags().BoolVar(&ctxJSON, "json", false, "print the context document as JSON instead of a script")
}
