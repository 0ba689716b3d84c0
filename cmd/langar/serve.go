package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openlangar/langar/internal/auth"
	"github.com/openlangar/langar/internal/dashboard"
	"github.com/openlangar/langar/internal/db"
	"github.com/openlangar/langar/internal/feed"
	"github.com/openlangar/langar/internal/notify"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard and admin API server",
		Long:  "Starts the web server: the public delivery dashboard, the admin API,\nand the notification reporter if a chat platform is configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "langar.yaml", "path to Langar config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	if port <= 0 {
		port = cfg.Server.Port
	}

	hub := feed.NewHub()
	mgr := auth.New(cfg.Admin.Email, cfg.Admin.PasswordHash, cfg.Session.Secret,
		time.Duration(cfg.Session.TTLHours)*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	notifier, err := notify.FromConfig(cfg.Notify)
	if err != nil {
		return err
	}
	defer notifier.Close()
	if _, ok := notifier.(notify.Nop); !ok {
		slog.Info("notifications enabled", "platform", cfg.Notify.Platform)
		go notify.NewReporter(gormDB, hub, notifier, cfg.Notify.DigestCron).Run(ctx)
	}

	return dashboard.Start(ctx, dashboard.StartOpts{
		DB:   gormDB,
		Hub:  hub,
		Auth: mgr,
		Port: port,
		Out:  cmd.OutOrStdout(),
	})
}
