package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"contribdir.dev/cmd/contribdir/app"
	"contribdir.dev/internal/config"
	"contribdir.dev/internal/database"
	"contribdir.dev/internal/directory"
	"contribdir.dev/internal/directory/github"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

var (
	rootCmd = &cobra.Command{
		Use:   "contribdir",
		Short: "Project directory server and utilities",
	}
	serverCmd = &cobra.Command{
		Use:   "server",
		Short: "Run the API server",
		RunE:  runServer,
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}
	upCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  runMigrateUp,
	}
	downCmd = &cobra.Command{
		Use:   "down",
		Short: "Revert all applied migrations",
		RunE:  runMigrateDown,
	}

	// Flags
	addr string
	dsn  string
)

func init() {
	serverCmd.Flags().StringVar(&addr, "addr", "", "Address to run the server on (host:port). If empty, uses HOST and PORT environment variables")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database source name in the format driver://dataSourceName. Falls back to DSN environment variable")
	migrateCmd.AddCommand(upCmd, downCmd)
	rootCmd.AddCommand(serverCmd, migrateCmd)
}

func newConfig() *config.Config {
	cfg := config.New()
	if dsn != "" {
		cfg.Set("DSN", dsn)
	}
	return cfg
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := newConfig()
	config.SetupLog(cfg)

	ctx := cmd.Context()
	shutdownTelemetry, err := config.SetupTelemetry(ctx, cfg)
	if err != nil {
		slog.Warn("Telemetry setup failed; continuing without traces", "error", err)
	}
	defer shutdownTelemetry()

	db, err := database.NewForConfig(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var csOpts []directory.ClientSetOption
	if token := cfg.GetGitHubToken(); token != "" {
		csOpts = append(csOpts, directory.WithGitHubOptions(github.WithToken(token)))
	}
	csOpts = append(csOpts, directory.WithServiceOptions(
		directory.WithPageSizes(cfg.GetDefaultPageSize(), cfg.GetMaxPageSize()),
	))
	cs := directory.NewClientSet(db, csOpts...)

	srv := app.NewServer(cs)

	finalAddr := addr
	if finalAddr == "" {
		finalAddr = cfg.GetAddr()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(finalAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("Server failed", "error", err)
		}
	case sig := <-quit:
		slog.Info("Received signal; shutting down server", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
		slog.Info("Server stopped")
	}
	return nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg := newConfig()
	config.SetupLog(cfg)
	mg, err := database.NewMigratorForConfig(cfg)
	if err != nil {
		return err
	}
	return mg.Up()
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	cfg := newConfig()
	config.SetupLog(cfg)
	mg, err := database.NewMigratorForConfig(cfg)
	if err != nil {
		return err
	}
	return mg.Down()
}
