package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/querypilot/backend/internal/config"
	"github.com/querypilot/backend/internal/handler"
	"github.com/querypilot/backend/internal/handler/notify"
	aiService "github.com/querypilot/backend/internal/service/ai"
	authService "github.com/querypilot/backend/internal/service/auth"
	queryService "github.com/querypilot/backend/internal/service/query"
	sessionService "github.com/querypilot/backend/internal/service/session"
	"github.com/querypilot/backend/internal/service/translate"
	"github.com/querypilot/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	st, closeStore, err := newStore(cfg.Storage)
	if err != nil {
		log.Fatalf("failed to initialize %s store: %v", cfg.Storage.Backend, err)
	}
	defer closeStore()

	hub := notify.NewHub()

	sessions := sessionService.NewManager(st, sessionService.WithNotifier(hub))
	state := sessions.Initialize()
	log.Printf("session state loaded: %d history entries, current session %q", len(state.History), state.Current.ID)

	// Prefer the LLM translator when Ark credentials are configured,
	// otherwise serve with the rule tables.
	var translator translate.Translator = translate.NewRuleTranslator()
	if cfg.AI.Enabled() {
		llm, err := aiService.NewTranslator(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI translator: %v", err)
			log.Println("continuing with the rule-based translator")
		} else {
			translator = llm
			log.Println("AI translator initialized successfully")
		}
	}

	executor := queryService.NewExecutor(sessions, translator,
		queryService.WithNotifier(hub),
		queryService.WithDelays(cfg.Latency.Generation, cfg.Latency.Execution),
	)

	authSvc := authService.NewService(st, cfg.Auth.Secret, cfg.Auth.AccessExpire)

	router := handler.NewRouter(st, authSvc, sessions, executor, hub)

	startServer(ctx, cfg.Server, router)
}

func newStore(cfg config.StorageConfig) (store.Store, func(), error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemoryStore(), func() {}, nil
	case "redis":
		rs, err := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	default:
		fs, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("QueryPilot backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
