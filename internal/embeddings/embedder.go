// Package embeddings computes and stores semantic vectors for bills so
// they can be searched by meaning. The indexer is idempotent: a bill is
// re-embedded only when its text content changed since the stored vector
// was computed.
package embeddings

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/capitolwatch/capitolwatch/pkg/constants"
	"github.com/capitolwatch/capitolwatch/pkg/errors"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// geminiEmbedder calls the Gemini embedding API, paced by a token bucket.
type geminiEmbedder struct {
	client  *genai.Client
	model   string
	dims    int32
	limiter *rate.Limiter
}

// NewGeminiEmbedder builds an Embedder backed by the Gemini API.
func NewGeminiEmbedder(ctx context.Context, apiKey string) (Embedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.NewConfigError("embeddings", "creating gemini client", err)
	}
	return &geminiEmbedder{
		client:  client,
		model:   constants.EmbeddingModel,
		dims:    constants.EmbeddingDimensions,
		limiter: rate.NewLimiter(rate.Every(constants.EmbeddingMinInterval), 1),
	}, nil
}

// Embed implements Embedder.
func (g *geminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.model,
		genai.Text(text),
		&genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(g.dims)})
	if err != nil {
		return nil, errors.NewAPIError("gemini", 0, err.Error())
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.NewAPIError("gemini", 0, "empty embedding response")
	}
	return resp.Embeddings[0].Values, nil
}

// deferredEmbedder postpones client construction to first use, so the
// pipeline can be assembled without an API key when the embeddings job is
// not in the plan.
type deferredEmbedder struct {
	apiKey string

	once sync.Once
	emb  Embedder
	err  error
}

// NewDeferredGeminiEmbedder returns an Embedder that connects lazily.
func NewDeferredGeminiEmbedder(apiKey string) Embedder {
	return &deferredEmbedder{apiKey: apiKey}
}

// Embed implements Embedder.
func (d *deferredEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	d.once.Do(func() {
		if d.apiKey == "" {
			d.err = errors.NewConfigError("embeddings", "GEMINI_API_KEY not set", errors.ErrAPIKeyRequired)
			return
		}
		d.emb, d.err = NewGeminiEmbedder(ctx, d.apiKey)
	})
	if d.err != nil {
		return nil, d.err
	}
	return d.emb.Embed(ctx, text)
}
