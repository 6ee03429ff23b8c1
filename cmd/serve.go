package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/promptconduit/dashctx/internal/watch"
)

var serveNoWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve dashboard contexts as MCP tools over stdio",
	Long: `Run an MCP server on stdin/stdout exposing the tools
dashboard_context, embedded_context, clear_cache and decompose_path.

Unless --no-watch is given, the include directory and the context
configuration files are watched and the auto-include cache is cleared
whenever they change.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := newEngineRuntime(settings, true, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if !serveNoWatch {
		dirs, files := rt.watchTargets(settings)
		watcher, err := watch.NewIncludesWatcher(dirs, rt.resolver.ClearCache, logger.Named("watch"), watch.WithFiles(files...))
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		g.Go(func() error {
			<-ctx.Done()
			watcher.Stop()
			return nil
		})
	}

	g.Go(func() error {
		// stdin closing ends the session and everything else with it
		defer cancel()

		stdio := server.NewStdioServer(newToolServer(rt, logger.Named("mcp")))
		stdio.SetErrorLogger(zap.NewStdLog(logger.Named("mcp")))

		logger.Info("MCP server starting on stdio", zap.String("version", Version))
		return stdio.Listen(ctx, os.Stdin, os.Stdout)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "do not watch include directories for changes")
}
