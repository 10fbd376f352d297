//go:build ignore

package main

import (
	"fmt"
	"log"
	"math"

	"ai-research-be/internal/config"
	"ai-research-be/pkg/embedding"
	embeddingfactory "ai-research-be/pkg/embedding/factory"
)

// CosineSimilarity calculates similarity between two vectors
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Sanity-checks the configured embedding endpoint: dimensions must match the
// vector(768) column and related texts must score above unrelated ones.
func main() {
	cfg := config.Load()
	fmt.Printf("Loaded Config > Embedding Provider: %s\n", cfg.Ai.EmbeddingProvider)
	fmt.Printf("Loaded Config > Embedding Model: %s\n", cfg.Ai.EmbeddingModel)

	if cfg.Ai.EmbeddingProvider == "" {
		log.Fatal("EMBEDDING_PROVIDER is not set; nothing to probe")
	}

	provider, err := embeddingfactory.NewEmbeddingProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.EmbeddingModel,
		cfg.Ai.EmbeddingAPIKey,
		cfg.Ai.EmbeddingBaseURL,
	)
	if err != nil {
		log.Fatalf("Error initializing provider: %v", err)
	}

	text1 := "Back-translation improves low-resource machine translation"
	text2 := "Augmenting scarce parallel data with synthetic translations helps MT"
	text3 := "The HNSW index accelerates approximate nearest neighbor search"

	fmt.Println("\n--- Generating Embeddings ---")
	vectors := make([][]float32, 0, 3)
	for i, text := range []string{text1, text2, text3} {
		resp, err := provider.Generate(text, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Fatalf("Error embedding text %d: %v", i+1, err)
		}
		fmt.Printf("Text %d dimensions: %d\n", i+1, len(resp.Embedding.Values))
		vectors = append(vectors, resp.Embedding.Values)
	}

	if dims := len(vectors[0]); dims != 768 {
		fmt.Printf("⚠️  Dimensions %d do NOT match the vector(768) column; retrieval inserts will fail.\n", dims)
	} else {
		fmt.Println("✅ Dimensions match the vector(768) column.")
	}

	simRelated := CosineSimilarity(vectors[0], vectors[1])
	simUnrelated := CosineSimilarity(vectors[0], vectors[2])

	fmt.Println("\n--- Semantic Similarity ---")
	fmt.Printf("Related pair:   %.4f\n", simRelated)
	fmt.Printf("Unrelated pair: %.4f\n", simUnrelated)

	if simRelated > simUnrelated {
		fmt.Println("✅ Related texts score higher, embeddings look sane.")
	} else {
		fmt.Println("⚠️  Unrelated texts score higher; check the model name and task type.")
	}
}
