// Package main запускает HTTP-сервер краудфандинговой платформы.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/crowdfund/internal/config"
	"github.com/mmeshcher/crowdfund/internal/handler"
	"github.com/mmeshcher/crowdfund/internal/middleware"
	"github.com/mmeshcher/crowdfund/internal/payment"
	"github.com/mmeshcher/crowdfund/internal/repository"
	"github.com/mmeshcher/crowdfund/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	if err := godotenv.Load(); err == nil {
		sugar.Info("loaded environment from .env")
	}

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	paymentClient := payment.NewClient(cfg.PaymentAPIURL, cfg.PaymentKeyID, cfg.PaymentKeySecret)

	verifier := payment.NewVerifier(cfg.PaymentKeySecret, cfg.PaymentSandbox, logger)
	switch {
	case verifier.Sandbox():
		sugar.Warnw("payment sandbox mode enabled: signatures are NOT verified", "sandbox", true)
	case cfg.PaymentKeySecret == "":
		sugar.Warnw("PAYMENT_KEY_SECRET is not set: payment verification will fail")
	}

	svc := service.NewService(repo, paymentClient, verifier, logger)
	defer svc.Close()

	if cfg.JWTSecret == "" {
		sugar.Warnw("JWT_SECRET is not set: tokens will not survive a restart")
	}
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		sugar.Fatalw("auth initialization error", "error", err.Error())
	}
	h := handler.NewHandler(svc, logger, authMiddleware)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Фоновое обновление статусов кампаний
	g.Go(func() error {
		return svc.RunStatusSweeper(ctx, cfg.StatusSweepInterval)
	})

	g.Go(func() error {
		sugar.Infow("starting crowdfund server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
