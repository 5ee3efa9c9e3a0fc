package embedding

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/repositories"
)

// Dimension is the vector size of the embedding model in use.
const Dimension = 1536

const model = openai.SmallEmbedding3 // text-embedding-3-small

// OpenAIEmbedder implements Embedder using the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	logger *zap.Logger
}

func NewOpenAIEmbedder(apiKey string, logger *zap.Logger) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		logger: logger,
	}, nil
}

// Embed converts text into a fixed-dimension similarity vector.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", repositories.ErrEmbeddingFailure)
	}

	rsp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repositories.ErrEmbeddingFailure, err)
	}

	if len(rsp.Data) == 0 || len(rsp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: no embedding in response", repositories.ErrEmbeddingFailure)
	}

	e.logger.Debug("Generated embedding",
		zap.Int("dimension", len(rsp.Data[0].Embedding)))

	return rsp.Data[0].Embedding, nil
}
