// Live tests against a local Ollama server. They exercise the same provider
// code paths the pipeline uses (llm factory + embedding factory) without any
// hosted API key. Set OLLAMA_BASE_URL to enable, e.g.:
//
//	OLLAMA_BASE_URL=http://localhost:11434 OLLAMA_MODEL=gemma:2b go test ./test/integration/ -run Ollama

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"os"
	"testing"
	"time"

	"ai-research-be/pkg/embedding"
	embeddingfactory "ai-research-be/pkg/embedding/factory"
	"ai-research-be/pkg/llm"
	llmfactory "ai-research-be/pkg/llm/factory"
)

// ============================================================
// OLLAMA CONFIGURATION
// ============================================================

const (
	defaultOllamaModel      = "gemma:2b"
	defaultOllamaEmbedModel = "nomic-embed-text"
)

func ollamaBaseURL(t *testing.T) string {
	t.Helper()
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		t.Skip("Skipping live Ollama test: OLLAMA_BASE_URL not set")
	}
	return baseURL
}

func ollamaModel() string {
	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		return model
	}
	return defaultOllamaModel
}

func ollamaProvider(t *testing.T) llm.LLMProvider {
	t.Helper()
	provider, err := llmfactory.NewLLMProvider("ollama", ollamaModel(), "", ollamaBaseURL(t))
	if err != nil {
		t.Fatalf("Failed to build ollama provider: %v", err)
	}
	return provider
}

// ============================================================
// TEST CASES
// ============================================================

// TestOllamaConnection verifies Ollama is running and accessible.
func TestOllamaConnection(t *testing.T) {
	baseURL := ollamaBaseURL(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL, nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("Ollama not running at %s: %v", baseURL, err)
	}
	defer res.Body.Close()

	t.Logf("✅ Ollama is running at %s (status: %d)", baseURL, res.StatusCode)
}

// TestOllamaGenerate runs a single prompt through the factory-built provider,
// the same entry point the pipeline stages call.
func TestOllamaGenerate(t *testing.T) {
	provider := ollamaProvider(t)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	response, err := provider.Generate(ctx, "Say 'pipeline online' in one short sentence.")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	t.Logf("✅ Response: %s", response)
	if response == "" {
		t.Error("Response should not be empty")
	}
}

// TestOllamaMultiTurnChat checks the provider keeps conversation context.
func TestOllamaMultiTurnChat(t *testing.T) {
	provider := ollamaProvider(t)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	history := []llm.Message{
		{Role: "user", Content: "My research topic is back-translation for machine translation."},
		{Role: "assistant", Content: "Noted, your topic is back-translation."},
		{Role: "user", Content: "What is my research topic? Answer in one sentence."},
	}

	response, err := provider.Chat(ctx, history)
	if err != nil {
		t.Fatalf("Multi-turn chat failed: %v", err)
	}

	t.Logf("✅ Response: %s", response)
	if !bytes.Contains(bytes.ToLower([]byte(response)), []byte("translation")) {
		t.Logf("⚠️ Response may not retain the topic. Response: %s", response)
	}
}

// TestOllamaPlanShape asks the model for the JSON object the planning stage
// expects and checks the local model can produce parseable output.
func TestOllamaPlanShape(t *testing.T) {
	provider := ollamaProvider(t)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	prompt := `Design a two-section outline for a survey on data augmentation in NLP.
Respond ONLY with JSON in exactly this shape, no prose:
{"title": "...", "sections": [{"heading": "...", "query": "..."}]}`

	response, err := provider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	t.Logf("Raw response: %s", response)

	// Small local models love wrapping JSON in markdown fences
	cleaned := bytes.TrimSpace([]byte(response))
	cleaned = bytes.TrimPrefix(cleaned, []byte("```json"))
	cleaned = bytes.TrimPrefix(cleaned, []byte("```"))
	cleaned = bytes.TrimSuffix(cleaned, []byte("```"))
	cleaned = bytes.TrimSpace(cleaned)

	var outline struct {
		Title    string `json:"title"`
		Sections []struct {
			Heading string `json:"heading"`
			Query   string `json:"query"`
		} `json:"sections"`
	}
	if err := json.Unmarshal(cleaned, &outline); err != nil {
		t.Skipf("Model output was not valid JSON (%v) - small models may need different prompting", err)
	}

	t.Logf("✅ Parsed outline: %q with %d sections", outline.Title, len(outline.Sections))
	if outline.Title == "" || len(outline.Sections) == 0 {
		t.Logf("⚠️ Outline incomplete: %+v", outline)
	}
}

// TestOllamaEmbeddings exercises the embedding provider the retrieval layer
// uses for vector search.
func TestOllamaEmbeddings(t *testing.T) {
	baseURL := ollamaBaseURL(t)

	model := os.Getenv("OLLAMA_EMBED_MODEL")
	if model == "" {
		model = defaultOllamaEmbedModel
	}

	provider, err := embeddingfactory.NewEmbeddingProvider("ollama", model, "", baseURL)
	if err != nil {
		t.Fatalf("Failed to build embedding provider: %v", err)
	}

	first, err := provider.Generate("back-translation for low-resource machine translation", embedding.TaskRetrievalQuery)
	if err != nil {
		t.Fatalf("Embedding failed (is %s pulled?): %v", model, err)
	}
	second, err := provider.Generate("synthetic parallel data from monolingual corpora", embedding.TaskRetrievalDocument)
	if err != nil {
		t.Fatalf("Embedding failed: %v", err)
	}

	if len(first.Embedding.Values) == 0 {
		t.Fatal("Embedding should not be empty")
	}
	if len(first.Embedding.Values) != len(second.Embedding.Values) {
		t.Fatalf("Dimension mismatch: %d vs %d", len(first.Embedding.Values), len(second.Embedding.Values))
	}

	// The provider normalizes vectors for cosine search
	var magnitude float64
	for _, v := range first.Embedding.Values {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)
	if math.Abs(magnitude-1.0) > 0.01 {
		t.Errorf("Expected unit-length vector, got magnitude %.4f", magnitude)
	}

	t.Logf("✅ Embeddings: %d dimensions, magnitude %.4f", len(first.Embedding.Values), magnitude)
}
