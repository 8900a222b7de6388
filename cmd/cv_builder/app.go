package main

import (
	"context"
	"fmt"

	"github.com/jonathan/cv-builder/internal/editor"
	"github.com/jonathan/cv-builder/internal/enhance"
	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/llm"
	"github.com/jonathan/cv-builder/internal/persistence"
	"github.com/jonathan/cv-builder/internal/storage"
)

// openAdapter connects to the configured store. The returned func closes it.
func openAdapter(ctx context.Context) (*persistence.Adapter, func(), error) {
	store, err := storage.Open(ctx, cfg.StoreURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			appLog.Warn("failed to close store", "error", err)
		}
	}
	return persistence.New(store, appLog), closeStore, nil
}

func newExporter(adapter *persistence.Adapter) *export.Exporter {
	printer := export.NewChromePrinter(cfg.ChromePath, cfg.ChromeTimeoutDuration(), appLog)
	return export.New(printer, adapter, appLog)
}

// newEnhancer returns the Gemini-backed enhancer, or one that reports a missing
// credential when no API key is configured.
func newEnhancer(ctx context.Context) (editor.Enhancer, func(), error) {
	if cfg.APIKey == "" {
		appLog.Warn("GEMINI_API_KEY is not set, text enhancement is disabled")
		return enhance.Unconfigured(), func() {}, nil
	}

	tier, err := llm.ParseModelTier(cfg.ModelTier)
	if err != nil {
		return nil, nil, err
	}
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	svc := enhance.NewService(client, enhance.Config{
		Tier:        tier,
		MaxAttempts: uint(cfg.EnhanceMaxAttempts),
	}, appLog)
	closeClient := func() {
		if err := client.Close(); err != nil {
			appLog.Warn("failed to close LLM client", "error", err)
		}
	}
	return svc, closeClient, nil
}
