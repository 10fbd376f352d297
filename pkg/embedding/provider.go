package embedding

import "math"

// EmbeddingProvider turns text into a vector for corpus search. taskType is
// one of the Task* hints; providers without a wire equivalent ignore it.
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*EmbeddingResponse, error)
}

// Normalize scales a vector to unit length. Every provider returns
// normalized vectors so stored chunks and query embeddings compare on
// cosine terms regardless of backend.
func Normalize(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
