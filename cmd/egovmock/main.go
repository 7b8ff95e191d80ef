package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"egovportal/config"
	"egovportal/internal/mockapi"
	"egovportal/internal/pkg/logger"
)

func main() {
	// 1. Configuração e Inicialização
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Erro de Configuração: %v", err)
	}
	logg := logger.NewLogger(cfg.LogLevel)
	logg.Info("Configurações carregadas.", nil)

	// 2. Backend de desenvolvimento em memória
	backend, err := mockapi.New(mockapi.Options{
		JWTSecret:   cfg.JWTSecret,
		TokenExpiry: cfg.TokenExpiry(),
		RateLimit:   rate.Limit(cfg.RateLimitPerSec),
		RateBurst:   cfg.RateLimitBurst,
		Seed:        cfg.SeedMockBackend,
		Logger:      logg,
	})
	if err != nil {
		logg.Fatal("Falha ao montar o backend de desenvolvimento.", err)
	}

	server := &http.Server{
		Addr:         cfg.MockAddr(),
		Handler:      backend.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 3. Execução e Graceful Shutdown
	go func() {
		logg.Info("egovmock ouvindo.", map[string]interface{}{"addr": server.Addr, "seeded": cfg.SeedMockBackend})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logg.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logg.Error("Desligamento do servidor forçado.", err)
	}

	logg.Info("Servidor encerrado com sucesso.", nil)
}
