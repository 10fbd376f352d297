package factory

import (
	"fmt"

	"ai-research-be/pkg/embedding"
	"ai-research-be/pkg/embedding/jina"
)

// NewEmbeddingProvider builds a provider by name. Used both for the
// process-wide default and for request-scoped providers carried on research
// jobs.
func NewEmbeddingProvider(providerType, model, apiKey, baseURL string) (embedding.EmbeddingProvider, error) {
	switch providerType {
	case "openai":
		return embedding.NewOpenAIEmbeddingProvider(apiKey, baseURL, model), nil
	case "ollama":
		return embedding.NewOllamaProvider(baseURL, model), nil
	case "jina":
		return jina.NewJinaProvider(apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}
