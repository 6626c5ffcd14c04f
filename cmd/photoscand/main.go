package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"photoscan/internal/config"
	"photoscan/internal/daemon"
	"photoscan/internal/identity"
	"photoscan/internal/logging"
	"photoscan/internal/scanner"
	"photoscan/internal/store"
	"photoscan/internal/vision"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	hub := logging.NewStreamHub(cfg.Scanner.LogBufferLines)
	logger, err := logging.NewFromConfig(cfg, hub)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	s, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return
	}

	registry := identity.NewRegistry(s, cfg.Entities.MatchThreshold, logger)
	controller := scanner.New(cfg, s, buildEnricher(cfg), registry, logger)

	d, err := daemon.New(cfg, s, controller, registry, hub, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		s.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("photoscand shutting down")
}

func buildEnricher(cfg *config.Config) *vision.Enricher {
	describer := vision.NewOllamaClient(vision.OllamaConfig{
		BaseURL:        cfg.Vision.BaseURL,
		Model:          cfg.Vision.Model,
		TimeoutSeconds: cfg.Vision.TimeoutSeconds,
		RetryAttempts:  cfg.Vision.RetryAttempts,
	})
	recognizer := vision.NewSidecarRecognizer(vision.RecognizerConfig{
		BaseURL:        cfg.Recognizer.BaseURL,
		TimeoutSeconds: cfg.Recognizer.TimeoutSeconds,
		MinConfidence:  cfg.Recognizer.MinConfidence,
	}, nil)
	return vision.NewEnricher(describer, recognizer, cfg.Vision.Model,
		time.Duration(cfg.Scanner.EnrichTimeoutSeconds)*time.Second)
}
