package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/e60manuels/smartmeter-rag/internal/aggregate"
	"github.com/e60manuels/smartmeter-rag/internal/answer"
	"github.com/e60manuels/smartmeter-rag/internal/config"
	"github.com/e60manuels/smartmeter-rag/internal/domain"
	"github.com/e60manuels/smartmeter-rag/internal/embedding/openai"
	"github.com/e60manuels/smartmeter-rag/internal/llm"
	"github.com/e60manuels/smartmeter-rag/internal/planner"
	"github.com/e60manuels/smartmeter-rag/internal/recordstore/memory"
	"github.com/e60manuels/smartmeter-rag/internal/recordstore/qdrant"
	"github.com/e60manuels/smartmeter-rag/internal/tui"
)

func main() {
	_ = godotenv.Load()
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfgPath := flag.String("config", "config.yaml", "Path to config YAML")
	topK := flag.Int("n", 5, "Number of context snippets to retrieve for semantic questions")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("unknown timezone %q: %v", cfg.Timezone, err)
	}

	store := buildStore(cfg, log)

	var embedder domain.Embedder
	emb, err := openai.NewClient(openai.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Warnf("embedder disabled: %v", err)
	} else {
		embedder = emb
	}

	var completer domain.Completer
	chat, err := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKeyEnv:   cfg.LLM.APIKeyEnv,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Warnf("answer synthesis disabled: %v", err)
	} else {
		completer = chat
	}

	engine := aggregate.NewEngine(store, loc)
	composer := answer.NewComposer(planner.New(), engine, store, embedder, completer)

	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question == "" {
		m := tui.New(composer, *topK)
		if _, err := tea.NewProgram(m).Run(); err != nil {
			log.Fatal(err)
		}
		return
	}

	ans, err := composer.Ask(context.Background(), question, *topK)
	if err != nil {
		log.Fatalf("query failed: %v", err)
	}
	fmt.Println("----------------------------------------")
	fmt.Printf("Question: %s\n\n", question)
	fmt.Printf("Answer (%s):\n%s\n", ans.Kind, ans.Text)
	if len(ans.Evidence) > 0 {
		fmt.Println("\nSupporting evidence:")
		for i, e := range ans.Evidence {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}
	fmt.Println("----------------------------------------")
}

func buildStore(cfg *config.AppConfig, log *logrus.Logger) domain.RecordStore {
	switch cfg.Store.Type {
	case "memory":
		return memory.NewStore()
	case "qdrant", "":
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Store.Qdrant.URL,
			APIKey:     cfg.Store.Qdrant.APIKey,
			Collection: cfg.Store.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Store.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		log.Fatalf("unknown store type: %s", cfg.Store.Type)
		return nil
	}
}
