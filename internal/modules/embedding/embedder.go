package embedding

import (
	"context"
	"errors"
	"strings"

	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	"github.com/skillpath/core/internal/config"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// OpenAIEmbedder calls the OpenAI embeddings API. Any OpenAI-compatible
// endpoint works via the provider's endpoint override.
type OpenAIEmbedder struct {
	client openaiclient.Client
	model  string
}

// NewOpenAIEmbedder builds an embedder from a configured provider.
func NewOpenAIEmbedder(provider *config.AIProvider, model string) (*OpenAIEmbedder, error) {
	if provider == nil {
		return nil, errors.New("embedding provider is nil")
	}
	apiKey := strings.TrimSpace(provider.APIKey)
	if apiKey == "" {
		return nil, errors.New("embedding provider api key is empty")
	}
	if strings.TrimSpace(model) == "" {
		model = string(openaiclient.EmbeddingModelTextEmbedding3Small)
	}

	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(apiKey),
		openaioption.WithMaxRetries(0),
	}
	if endpoint := strings.TrimSpace(provider.Endpoint); endpoint != "" {
		opts = append(opts, openaioption.WithBaseURL(strings.TrimRight(endpoint, "/")))
	}

	return &OpenAIEmbedder{
		client: openaiclient.NewClient(opts...),
		model:  model,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := e.client.Embeddings.New(ctx, openaiclient.EmbeddingNewParams{
		Input: openaiclient.EmbeddingNewParamsInputUnion{
			OfString: openaiclient.String(text),
		},
		Model: openaiclient.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}
