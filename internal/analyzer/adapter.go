package analyzer

import (
	"ats-analyzer/internal/models"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
)

var (
	ErrTimeout   = errors.New("analyzer: analysis timed out")
	ErrUpstream  = errors.New("analyzer: analysis engine call failed")
	ErrMalformed = errors.New("analyzer: analysis engine returned no usable JSON")
)

type Variant int

const (
	VariantGeneral Variant = iota
	VariantJobMatch
)

func (v Variant) String() string {
	if v == VariantJobMatch {
		return "job_match"
	}
	return "general"
}

type Request struct {
	Variant Variant
	Text    string
	Job     models.JobContext
}

// Generator is the slice of *genai.GenerativeModel the adapter needs.
type Generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Adapter struct {
	model   Generator
	timeout time.Duration
}

func NewAdapter(model Generator, timeout time.Duration) *Adapter {
	return &Adapter{model: model, timeout: timeout}
}

// Analyze sends the resume to the model and returns the bare JSON object it
// produced. The payload is not checked against the report schema here.
func (a *Adapter) Analyze(ctx context.Context, req Request) (json.RawMessage, error) {
	const op = "analyzer.Analyze"

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	var prompt string
	switch req.Variant {
	case VariantJobMatch:
		prompt = buildJobPrompt(req.Text, req.Job)
	default:
		prompt = buildGeneralPrompt(req.Text)
	}

	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w", op, ErrTimeout)
		}
		return nil, fmt.Errorf("%s: %w: %v", op, ErrUpstream, err)
	}

	payload, err := NormalizeResponse(responseText(resp))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payload, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}

// NormalizeResponse strips Markdown fences and any prose around the first
// top-level JSON object, then checks that what is left parses as an object.
func NormalizeResponse(raw string) (json.RawMessage, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return nil, ErrMalformed
	}
	s = s[start : end+1]

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return json.RawMessage(buf.Bytes()), nil
}
