package console

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/terraconstructs/nutria/cmd/nutriactl/internal/config"
	webconsole "github.com/terraconstructs/nutria/cmd/nutriactl/internal/console"
)

var addr string

// ConsoleCmd serves the local admin console
var ConsoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Serve the local admin console",
	Long: `Serves a local web console sharing the CLI session: a sign-in form,
logout, and every admin section guarded by its capability.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		session := cfg.ClientProvider.Session(cmd.Context())

		srv := &http.Server{
			Addr:              addr,
			Handler:           webconsole.NewRouter(session, cfg.Logger),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}

		serverErrors := make(chan error, 1)
		go func() {
			serverErrors <- srv.Serve(ln)
		}()
		pterm.Info.Printf("Console listening on http://%s (API %s)\n", ln.Addr(), cfg.ServerURL)

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case sig := <-shutdown:
			cfg.Logger.Info("shutting down console", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			return nil
		}
	},
}

func init() {
	ConsoleCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8765", "Listen address")
}
