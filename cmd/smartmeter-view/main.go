package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/e60manuels/smartmeter-rag/internal/config"
	"github.com/e60manuels/smartmeter-rag/internal/domain"
	"github.com/e60manuels/smartmeter-rag/internal/recordstore/memory"
	"github.com/e60manuels/smartmeter-rag/internal/recordstore/qdrant"
)

func main() {
	_ = godotenv.Load()
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfgPath := flag.String("config", "config.yaml", "Path to config YAML")
	limit := flag.Int("limit", 5, "Number of records to show")
	offset := flag.Int("offset", 0, "Starting offset")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var store domain.RecordStore
	switch cfg.Store.Type {
	case "memory":
		store = memory.NewStore()
	case "qdrant", "":
		store = qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Store.Qdrant.URL,
			APIKey:     cfg.Store.Qdrant.APIKey,
			Collection: cfg.Store.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Store.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		log.Fatalf("unknown store type: %s", cfg.Store.Type)
	}

	ctx := context.Background()
	records, err := store.FetchByFilter(ctx, domain.Filter{})
	if err != nil {
		log.Fatalf("fetch failed: %v", err)
	}
	total := len(records)
	from := *offset
	if from > total {
		from = total
	}
	to := from + *limit
	if to > total {
		to = total
	}
	page := records[from:to]

	fmt.Printf("Showing %d of %d records (offset: %d):\n", len(page), total, from)
	out, err := json.MarshalIndent(page, "", "    ")
	if err != nil {
		log.Fatalf("encode failed: %v", err)
	}
	fmt.Println(string(out))
}
