package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/config"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/infrastructure/vector/bolt"
)

func TestRunClosesAppWhenServerFails(t *testing.T) {
	cfg := config.Load()
	cfg.VectorDBProvider = config.ProviderBolt
	cfg.BoltPath = filepath.Join(t.TempDir(), "index.db")
	cfg.EmbeddingProvider = config.ProviderOllama
	cfg.LLMProvider = config.ProviderOllama
	cfg.PostgresDSN = ""
	cfg.APIPort = "-1"

	if err := run(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatal("expected listen error")
	}

	idx, err := bolt.Open(cfg.BoltPath, cfg.EmbeddingDimension)
	if err != nil {
		t.Fatalf("index file still locked after run returned: %v", err)
	}
	_ = idx.Close()
}
