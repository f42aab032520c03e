package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quorumworks/govscore/internal/api"
	"github.com/quorumworks/govscore/internal/config"
	"github.com/quorumworks/govscore/internal/engine"
	"github.com/quorumworks/govscore/internal/indexer"
	"github.com/quorumworks/govscore/internal/ledger"
	"github.com/quorumworks/govscore/internal/processor"
	"github.com/quorumworks/govscore/internal/rules"
)

func main() {
	appCfgPath := flag.String("config", "", "Path to app config YAML (defaults to ./configs/govscore.yaml)")
	flag.Parse()

	// ── App config ───────────────────────────────────────────────────────────
	appCfg, err := config.LoadApp(*appCfgPath)
	if err != nil {
		slog.Error("failed to load app config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(appCfg.Log.Level)}))
	slog.SetDefault(logger)

	// ── Rule table ───────────────────────────────────────────────────────────
	loader, err := config.NewLoader(appCfg.Rules.Path)
	if err != nil {
		slog.Error("failed to load rule config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	table, err := rules.Build(cfg)
	if err != nil {
		slog.Error("rule table build failed", "err", err)
		os.Exit(1)
	}
	tables := rules.NewProvider(table)
	slog.Info("rule table loaded", "version", table.Version(), "grace_window", table.GraceWindow())

	// ── Storage ──────────────────────────────────────────────────────────────
	db, err := ledger.Open(appCfg.Storage.DBPath)
	if err != nil {
		slog.Error("failed to open ledger database", "err", err)
		os.Exit(1)
	}
	store := ledger.NewStore(db)

	// ── Indexer client ───────────────────────────────────────────────────────
	idx := indexer.New(indexer.Config{
		Endpoint:        appCfg.Indexer.Endpoint,
		Timeout:         time.Duration(appCfg.Indexer.TimeoutMs) * time.Millisecond,
		MaxRetries:      appCfg.Indexer.MaxRetries,
		RetryMaxElapsed: time.Duration(appCfg.Indexer.RetryMaxElapsedMs) * time.Millisecond,
	})

	// ── Processor registry ───────────────────────────────────────────────────
	reg := engine.NewRegistry()
	reg.Register(processor.NewVoted(tables, idx, store))
	reg.Register(processor.NewRemovedVote(tables, idx, store))
	reg.Register(processor.NewBountyClaimed(tables, store))

	// ── Engine ───────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, reg, tables, cfg.Engine)

	// Finish any ledger records whose delta never reached the score
	// counter (crash between append and apply on a previous run).
	completeUnapplied(ctx, store)

	// ── Hot-reload watcher ───────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.RuleConfig) {
		newTable, err := rules.Build(newCfg)
		if err != nil {
			slog.Warn("reload skipped: rule table invalid", "err", err)
			return
		}
		eng.SwapTable(newTable)
		slog.Info("rule table reloaded", "version", newTable.Version())
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (reload endpoint still works)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	handler := api.New(eng, loader, store)
	srv := &http.Server{
		Addr:         appCfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", appCfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop worker pool
	eng.Shutdown()
	slog.Info("goodbye")
}

func completeUnapplied(ctx context.Context, store *ledger.Store) {
	recs, err := store.UnappliedRecords(ctx, 1000)
	if err != nil {
		slog.Warn("unapplied-record sweep failed", "err", err)
		return
	}
	for _, rec := range recs {
		if _, err := store.ApplyDelta(ctx, rec.DedupKey); err != nil {
			slog.Warn("could not complete score apply", "dedup_key", rec.DedupKey, "err", err)
		}
	}
	if len(recs) > 0 {
		slog.Info("completed pending score applies", "count", len(recs))
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
