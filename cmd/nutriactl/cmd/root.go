package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/terraconstructs/nutria/cmd/nutriactl/cmd/auth"
	"github.com/terraconstructs/nutria/cmd/nutriactl/cmd/console"
	"github.com/terraconstructs/nutria/cmd/nutriactl/cmd/nav"
	storeauth "github.com/terraconstructs/nutria/cmd/nutriactl/internal/auth"
	"github.com/terraconstructs/nutria/cmd/nutriactl/internal/client"
	"github.com/terraconstructs/nutria/cmd/nutriactl/internal/config"
	"github.com/terraconstructs/nutria/cmd/nutriactl/internal/telemetry"
)

var (
	configFile string
	cleanups   []func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "nutriactl",
	Short: "Nutria CLI - session and access control for the child-nutrition admin",
	Long: `nutriactl signs in to the nutrition backend, keeps the signed-in identity
between runs, and answers which sections and capabilities that identity has.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := readConfigFile(); err != nil {
			return err
		}
		if err := viper.BindPFlag("server_url", cmd.Flags().Lookup("server")); err != nil {
			return err
		}
		if err := viper.BindPFlag("debug", cmd.Flags().Lookup("debug")); err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logger := newLogger(cfg.Debug)
		slog.SetDefault(logger)

		ctx := cmd.Context()
		shutdown, err := telemetry.Init(ctx, cfg.Observability, logger)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, shutdown)

		backend, err := storeauth.Open(ctx, cfg.Store, logger)
		if err != nil {
			return fmt.Errorf("failed to open session store: %w", err)
		}
		cleanups = append(cleanups, func(context.Context) error { return backend.Close() })

		cmd.SetContext(config.InjectConfig(ctx, &config.GlobalConfig{
			Config:         cfg,
			Logger:         logger,
			ClientProvider: client.NewProvider(cfg.ServerURL, backend, logger),
		}))
		return nil
	},
}

// Execute runs the root command
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(cleanups) - 1; i >= 0; i-- {
		if cerr := cleanups[i](ctx); cerr != nil {
			slog.Warn("cleanup failed", "error", cerr)
		}
	}

	if err != nil {
		if !errors.Is(err, auth.ErrDenied) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.nutria/config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "Nutrition API base URL (also NUTRIA_SERVER_URL)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (also NUTRIA_DEBUG)")
	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(nav.NavCmd)
	rootCmd.AddCommand(console.ConsoleCmd)
}

// readConfigFile loads --config or ~/.nutria/config.yaml; a missing default file is fine.
func readConfigFile() error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		return nil
	}

	dir, err := config.DefaultDir()
	if err != nil {
		return err
	}
	viper.SetConfigFile(filepath.Join(dir, "config.yaml"))
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
