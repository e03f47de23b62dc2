package analyzer

import (
	"ats-analyzer/internal/config"
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// VertexClient holds the pre-configured resume evaluation model.
type VertexClient struct {
	Model      *genai.GenerativeModel
	baseClient *genai.Client
}

func NewVertexClient(ctx context.Context, cfg config.AnalyzerConfig) (*VertexClient, error) {
	if cfg.ProjectID == "" || cfg.Region == "" {
		return nil, fmt.Errorf("NewVertexClient: project id and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := baseClient.GenerativeModel(cfg.Model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](cfg.Temperature),
	}

	return &VertexClient{
		Model:      model,
		baseClient: baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
