package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/roniherschmann/go-seqid/internal/config"
	"github.com/roniherschmann/go-seqid/internal/core"
	httpapi "github.com/roniherschmann/go-seqid/internal/http"
	"github.com/roniherschmann/go-seqid/internal/store"
)

func newServeCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve named sequences over HTTP",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (default ./seqid.yaml if present)")
	cmd.Flags().String("dsn", "", "SQLite DSN (overrides env DB_DSN)")
	cmd.Flags().Int("port", 0, "HTTP port (overrides env PORT)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		v, err := config.New(configFile)
		if err != nil {
			return err
		}
		if err := v.BindPFlag("db_dsn", cmd.Flags().Lookup("dsn")); err != nil {
			return err
		}
		if err := v.BindPFlag("port", cmd.Flags().Lookup("port")); err != nil {
			return err
		}
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		return serve(cfg)
	}
	return cmd
}

func serve(cfg config.Config) error {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := sql.Open("sqlite3", cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	// Positions are written under a per-sequence lock; one writer avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Migrate schema
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	// Create store + service
	sqlStore := store.NewSQLite(db)
	svc := core.NewService(sqlStore, cfg.IssueBuffer)

	for _, s := range cfg.Sequences {
		symbols, err := s.Symbols()
		if err != nil {
			return err
		}
		if err := svc.Ensure(s.Name, symbols, s.Prefix, s.Start); err != nil {
			return fmt.Errorf("bootstrap sequence %s: %w", s.Name, err)
		}
	}

	// Start async issue recorder
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.RunIssueRecorder(ctx)

	if n := cfg.Prewarm; n > 0 {
		if err := svc.Prewarm(n); err != nil {
			log.Warn().Err(err).Msg("prewarm sequences")
		}
	}

	// HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpapi.NewRouter(cfg, svc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Info().Msg("shutdown signal")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("bye")
	return nil
}
