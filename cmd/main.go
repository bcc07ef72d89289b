package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"shop-assistant/handler"
	"shop-assistant/internal/catalog"
	"shop-assistant/internal/config"
	"shop-assistant/internal/currency"
	"shop-assistant/internal/integrations/exchangerates"
	"shop-assistant/internal/integrations/openai"
	"shop-assistant/internal/integrations/paramstore"
	"shop-assistant/internal/logger"
	"shop-assistant/internal/metrics"
	"shop-assistant/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		slog.Error("failed to create logger", "err", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.ParamPrefix != "" {
		params, err := paramstore.NewDefault(ctx)
		if err != nil {
			log.Fatal("failed to create parameter store client", zap.Error(err))
		}
		if err := cfg.ResolveSecrets(ctx, params); err != nil {
			log.Fatal("failed to resolve secrets", zap.Error(err))
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.ExchangeRates.APIKey == "" {
		log.Warn("EXCHANGE_RATES_API_KEY is not set; currency conversions will fail")
	}

	metrics.Register()

	// ---- Clients ----
	openaiClient, err := openai.NewClient(cfg.OpenAI.APIKey,
		openai.WithBaseURL(cfg.OpenAI.BaseURL),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.OpenAI.Timeout}),
	)
	if err != nil {
		log.Fatal("failed to create OpenAI client", zap.Error(err))
	}

	ratesClient := exchangerates.NewClient(
		exchangerates.WithBaseURL(cfg.ExchangeRates.BaseURL),
		exchangerates.WithHTTPClient(&http.Client{Timeout: cfg.ExchangeRates.Timeout}),
	)
	converter, err := currency.NewConverter(ratesClient, cfg.ExchangeRates.APIKey)
	if err != nil {
		log.Fatal("failed to create currency converter", zap.Error(err))
	}

	products, err := catalog.NewCSVSource(cfg.CatalogPath)
	if err != nil {
		log.Fatal("failed to create catalog source", zap.Error(err))
	}

	// ---- Handler ----
	chatService, err := usecase.NewChatService(openaiClient, products, converter, cfg.OpenAI.Model)
	if err != nil {
		log.Fatal("failed to create chat service", zap.Error(err))
	}

	h, err := handler.NewHandler(chatService, log)
	if err != nil {
		log.Fatal("failed to create handler", zap.Error(err))
	}

	if cfg.Runtime == config.RuntimeLambda {
		log.Info("starting lambda runtime")
		lambda.Start(h.HandleEvent)
		return
	}

	if err := serve(log, cfg.HTTP, h); err != nil {
		log.Fatal("HTTP server error", zap.Error(err))
	}
}

// serve runs the HTTP server until SIGINT or SIGTERM, then drains in-flight
// requests.
func serve(log *zap.Logger, cfg config.HTTPConfig, h http.Handler) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-quit:
		log.Info("received shutdown signal")
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	log.Info("server stopped gracefully")
	return nil
}
