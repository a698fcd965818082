package main

import (
	"context"
	"flag"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/e60manuels/smartmeter-rag/internal/config"
	"github.com/e60manuels/smartmeter-rag/internal/domain"
	"github.com/e60manuels/smartmeter-rag/internal/embedding/openai"
	"github.com/e60manuels/smartmeter-rag/internal/ingest"
	"github.com/e60manuels/smartmeter-rag/internal/recordstore/memory"
	"github.com/e60manuels/smartmeter-rag/internal/recordstore/qdrant"
)

func main() {
	_ = godotenv.Load()
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfgPath := flag.String("config", "config.yaml", "Path to config YAML")
	dataDir := flag.String("dir", "", "Directory with .jsonl meter logs (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("unknown timezone %q: %v", cfg.Timezone, err)
	}
	dir := cfg.DataDir
	if *dataDir != "" {
		dir = *dataDir
	}

	embedder, err := openai.NewClient(openai.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}

	ctx := context.Background()

	var store domain.RecordStore
	switch cfg.Store.Type {
	case "memory":
		store = memory.NewStore()
	case "qdrant", "":
		st := qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Store.Qdrant.URL,
			APIKey:     cfg.Store.Qdrant.APIKey,
			Collection: cfg.Store.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Store.Qdrant.TimeoutSecs) * time.Second,
		})
		// The embedding dimension is only known after a first call.
		probe, err := embedder.Embed(ctx, "initialisatie")
		if err != nil {
			log.Fatalf("embedding probe failed: %v", err)
		}
		if err := st.Ensure(ctx, len(probe)); err != nil {
			log.Fatalf("collection setup failed: %v", err)
		}
		store = st
	default:
		log.Fatalf("unknown store type: %s", cfg.Store.Type)
	}

	pipeline := ingest.NewPipeline(store, embedder, loc, cfg.BatchSize, log)
	n, err := pipeline.Run(ctx, dir)
	if err != nil {
		log.Fatalf("ingest failed after %d records: %v", n, err)
	}
	total, err := store.Count(ctx)
	if err != nil {
		log.Warnf("could not count stored records: %v", err)
	}
	log.Infof("ingest complete: %d records written, %d in collection", n, total)
}
