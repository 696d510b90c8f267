package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/staffassist/internal/adapters/filewatcher"
	httpserver "github.com/0xcro3dile/staffassist/internal/infrastructure/http"
)

type serveOptions struct {
	addr  string
	watch string
}

// newServeCmd creates the 'serve' command for running the HTTP API.
func newServeCmd(a *app) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the staff assistant HTTP API",
		Long: `Start the HTTP API. POST /api/staff-assistant answers a question,
GET /api/sessions?id=<id> returns a conversation log.

With --watch, every dataset in the directory is imported at startup and
re-imported whenever it changes.`,
		Example: `  staffassist serve --addr :9000
  staffassist serve --store memory --watch ./datasets`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&opts.watch, "watch", "", "dataset directory to import and watch")
	return cmd
}

// runServe runs the server until SIGINT/SIGTERM.
func (a *app) runServe(ctx context.Context, opts *serveOptions) error {
	if err := a.validate(true); err != nil {
		return err
	}
	if opts.addr != "" {
		a.cfg.Server.Addr = opts.addr
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(a.cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	assistant, err := a.newAssistant(ctx, st)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if opts.watch != "" {
		watcher, err := filewatcher.NewFSNotifyWatcher(nil, a.logger.Named("watcher"))
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		// Watch performs the initial import of the directory itself.
		seeder := a.newSeeder(st, watcher)
		g.Go(func() error {
			defer watcher.Stop()
			return seeder.Watch(ctx, opts.watch)
		})
	}

	server := httpserver.NewServer(assistant, httpserver.Options{
		Addr:         a.cfg.Server.Addr,
		ReadTimeout:  a.cfg.GetReadTimeout(),
		WriteTimeout: a.cfg.GetWriteTimeout(),
	}, a.logger.Named("http"))
	g.Go(func() error {
		return server.Start(ctx)
	})

	err = g.Wait()
	a.logger.Info("staffassist server stopped", zap.Error(err))
	return err
}
