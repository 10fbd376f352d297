//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-research-be/internal/config"
	llmfactory "ai-research-be/pkg/llm/factory"
)

// Quick round-trip against the configured LLM endpoint. Run with
// go run scripts/probe_llm.go before blaming the pipeline for model errors.
func main() {
	cfg := config.Load()
	fmt.Printf("Loaded Config > LLM Provider: %s\n", cfg.Ai.LLMProvider)
	fmt.Printf("Loaded Config > LLM Model: %s\n", cfg.Ai.LLMModel)

	provider, err := llmfactory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMAPIKey,
		cfg.Ai.LLMBaseURL,
	)
	if err != nil {
		log.Fatalf("Error initializing provider: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	start := time.Now()
	reply, err := provider.Generate(ctx, "Reply with the single word: ready")
	if err != nil {
		log.Fatalf("Error generating completion: %v", err)
	}

	fmt.Printf("\nModel replied in %v:\n%s\n", time.Since(start), reply)
	fmt.Println("✅ LLM endpoint reachable.")
}
