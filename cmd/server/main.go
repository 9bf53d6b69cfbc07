package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"digsite.gg/internal/persistence/journal"
	"digsite.gg/internal/persistence/store"
	"digsite.gg/internal/sim/catalogs"
	"digsite.gg/internal/sim/commit"
	"digsite.gg/internal/sim/manager"
	"digsite.gg/internal/sim/tuning"
	"digsite.gg/internal/transport/ws"
)

// serverConfig carries the runtime knobs. Flags set the defaults and
// DIGSITE_* environment variables override them.
type serverConfig struct {
	Addr        string `env:"DIGSITE_ADDR"`
	DataDir     string `env:"DIGSITE_DATA_DIR"`
	TuningPath  string `env:"DIGSITE_TUNING"`
	EnablePprof bool   `env:"DIGSITE_ENABLE_PPROF"`
}

func main() {
	var (
		addr        = flag.String("addr", ":8080", "http listen address")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		tuningPath  = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		enablePprof = flag.Bool("pprof", false, "serve pprof endpoints")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg := serverConfig{
		Addr:        *addr,
		DataDir:     *dataDir,
		TuningPath:  *tuningPath,
		EnablePprof: *enablePprof,
	}
	if err := env.Parse(&cfg); err != nil {
		logger.Fatalf("parse env: %v", err)
	}

	tune, err := tuning.Load(cfg.TuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", cfg.TuningPath)
			tune = tuning.Default()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}
	cat := catalogs.Default()

	st, err := store.Open(filepath.Join(cfg.DataDir, "players.db"))
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer st.Close()

	actionLog := journal.NewActionLogger(cfg.DataDir)
	surfaceLog := journal.NewSurfaceLogger(cfg.DataDir)
	defer actionLog.Close()
	defer surfaceLog.Close()

	mgr := manager.New(manager.Options{
		Logger:    logger,
		Profiles:  st,
		Committer: commit.New(st, tune.CommitRetries),
		Actions:   actionLog,
		Surfaces:  surfaceLog,
		Catalog:   cat,
		Tuning:    tune,
	})

	ctx, cancel := signalContext()
	defer cancel()

	go mgr.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(mgr, logger).Handler())
	if cfg.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
