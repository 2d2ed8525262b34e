package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Runescape-Tracking/duelmate/internal/config"
	"github.com/Runescape-Tracking/duelmate/internal/duelapi"
	"github.com/Runescape-Tracking/duelmate/internal/engine"
	"github.com/Runescape-Tracking/duelmate/internal/gamestate"
	"github.com/Runescape-Tracking/duelmate/internal/history"
	"github.com/Runescape-Tracking/duelmate/internal/hub"
)

// staticCreds serves the credentials loaded at startup. In-game deployments
// plug in a provider backed by the account link instead.
type staticCreds struct{ cred engine.Credentials }

func (s staticCreds) Credentials() (engine.Credentials, bool) {
	if s.cred.VerificationCode == "" || s.cred.RSN == "" {
		return engine.Credentials{}, false
	}
	return s.cred, true
}

func main() {
	matchCode := flag.String("match", "", "match code to load on startup")
	flag.Parse()

	logger := zap.Must(zap.NewProduction())
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := duelapi.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, logger.Named("duelapi"))
	creds := staticCreds{cred: engine.Credentials{
		VerificationCode: cfg.VerificationCode,
		RSN:              cfg.RSN,
	}}

	// Headless mode has no live game client to observe; begin triggers
	// simply never fire and the daemon acts as a poller/reporter bridge.
	eng := engine.New(ctx, api, gamestate.NopObserver{}, creds, nil, logger.Named("engine"))

	if cfg.HistoryDSN != "" {
		rec, err := history.Open(cfg.HistoryDSN, logger.Named("history"))
		if err != nil {
			logger.Fatal("history", zap.Error(err))
		}
		updates := make(chan engine.Update, 16)
		eng.Inbox() <- engine.Subscribe{ID: "history", Outbox: updates}
		go rec.Run(ctx, updates)
	}

	if cfg.BindAddr != "" {
		bridge := hub.NewBridge(ctx, eng, logger.Named("hub"))
		srv := &http.Server{Addr: cfg.BindAddr, Handler: bridge.Routes()}
		go func() {
			logger.Info("bridge listening", zap.String("addr", cfg.BindAddr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("bridge server", zap.Error(err))
			}
		}()
		go func() {
			<-ctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutCtx)
		}()
	}

	if *matchCode != "" {
		eng.Inbox() <- engine.LoadMatch{Code: *matchCode}
	}

	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			eng.Inbox() <- engine.Shutdown{}
			return
		case <-ticker.C:
			eng.Inbox() <- engine.Tick{}
		}
	}
}
