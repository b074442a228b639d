// Package embed turns chunk text into vectors via a configured embedding
// provider, and owns the registry mapping model names to their fixed
// output dimensions.
package embed

import (
	"context"
	"fmt"

	ollamaEmbed "github.com/cloudwego/eino-ext/components/embedding/ollama"
	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"

	"github.com/starford/laguz/internal/apperr"
)

// Providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// modelDims maps every supported embedding model to its output dimension.
// A model missing here is rejected before any ingestion work starts; the
// dimension decides the vector schema, so guessing is not an option.
var modelDims = map[string]int{
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// Dimension returns the output dimension of a known model, or
// ErrUnknownModel for anything not in the registry.
func Dimension(model string) (int, error) {
	dim, ok := modelDims[model]
	if !ok {
		return 0, fmt.Errorf("embed: model %q: %w", model, apperr.ErrUnknownModel)
	}
	return dim, nil
}

// Config selects and parameterizes an embedding provider.
type Config struct {
	Provider string
	Model    string
	BaseURL  string // ollama server address
	APIKey   string // openai key
}

// New builds the provider-specific embedder. The model must be in the
// dimension registry.
func New(ctx context.Context, cfg Config) (embedding.Embedder, error) {
	if _, err := Dimension(cfg.Model); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case ProviderOllama:
		return ollamaEmbed.NewEmbedder(ctx, &ollamaEmbed.EmbeddingConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embed: openai provider requires an api key")
		}
		return openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
			Model:  cfg.Model,
			APIKey: cfg.APIKey,
		})
	default:
		return nil, fmt.Errorf("embed: unsupported provider %q", cfg.Provider)
	}
}

// Batch embeds texts in one provider call and converts the result to the
// float32 vectors the rest of the system works in. The provider must
// return exactly one vector per text, each with the model's registered
// dimension.
func Batch(ctx context.Context, e embedding.Embedder, model string, texts []string) ([][]float32, error) {
	dim, err := Dimension(model)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	raw, err := e.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed: embed %d texts: %w", len(texts), err)
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("embed: got %d vectors for %d texts", len(raw), len(texts))
	}
	out := make([][]float32, len(raw))
	for i, v := range raw {
		if len(v) != dim {
			return nil, fmt.Errorf("embed: vector %d width %d, model %s expects %d: %w",
				i, len(v), model, dim, apperr.ErrDimensionMismatch)
		}
		vec := make([]float32, len(v))
		for j, f := range v {
			vec[j] = float32(f)
		}
		out[i] = vec
	}
	return out, nil
}
