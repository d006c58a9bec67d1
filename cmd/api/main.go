package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/medicare/backend/internal/config"
	"github.com/zhouzirui/medicare/backend/internal/handler"
	"github.com/zhouzirui/medicare/backend/internal/model/hospital"
	"github.com/zhouzirui/medicare/backend/internal/service/ai"
	"github.com/zhouzirui/medicare/backend/internal/service/chat"
	"github.com/zhouzirui/medicare/backend/internal/service/remote"
	"github.com/zhouzirui/medicare/backend/internal/service/triage"
	"github.com/zhouzirui/medicare/backend/pkg/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	// 在 log.Init 之前，Fatal 写入 stderr 的兜底 logger。
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", err)
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatal("failed to initialize logger", err)
	}
	defer log.Sync()

	if envErr != nil {
		log.Warnw("failed to load .env file, continuing with system environment variables only", "error", envErr)
	}

	hospitals := hospital.NewMemoryStore(hospital.Seed())
	triageSvc := triage.NewService(newResponder(ctx, cfg), hospitals, log.L())

	// Sessions talk to the remote backend when one is configured, otherwise
	// to the in-process triage service.
	var (
		dispatcher chat.Dispatcher    = triageSvc
		history    chat.HistorySource = triageSvc
	)
	if cfg.Chat.Remote() {
		client := remote.NewClient(cfg.Chat.BackendURL, cfg.Chat.Timeout, log.L())
		dispatcher, history = client, client
		log.Infow("sessions dispatch to remote chat backend", "backend", cfg.Chat.BackendURL)
	} else {
		log.Infow("sessions dispatch in-process", "demo", cfg.Chat.DemoMode)
	}

	sessions := chat.NewService(dispatcher, history, chat.Options{
		Timeout: cfg.Chat.Timeout,
		Logger:  log.L(),
	})

	router := handler.NewRouter(handler.Deps{
		Server:    cfg.Server,
		Triage:    triageSvc,
		Hospitals: hospitals,
		Sessions:  sessions,
		Logger:    log.L(),
	})

	startServer(ctx, cfg.Server, router, sessions.Shutdown)
}

// newResponder returns the LLM responder, or nil when the keyword rules
// should answer alone.
func newResponder(ctx context.Context, cfg *config.Config) triage.Responder {
	if cfg.Chat.DemoMode {
		log.Infow("demo mode enabled, answering with keyword rules only")
		return nil
	}
	if !cfg.AI.Enabled() {
		log.Infow("Ark 凭证未配置，跳过 AI 功能初始化")
		return nil
	}

	aiService, err := ai.NewService(ctx, cfg.AI, log.L())
	if err != nil {
		log.Warnw("failed to initialize AI service, continuing with keyword rules - 请检查 Ark 模型相关环境变量", "error", err)
		return nil
	}
	log.Infow("AI service initialized successfully", "model", cfg.AI.Model)
	return aiService
}

// startServer serves until ctx is done. onShutdown ends live sessions so
// their event streams return before the drain deadline.
func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, onShutdown func()) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv.RegisterOnShutdown(onShutdown)

	log.Infow("Medi Care backend listening", "addr", addr)
	if err := runServer(ctx, srv); err != nil {
		log.L().Error("server error", zap.Error(err))
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
