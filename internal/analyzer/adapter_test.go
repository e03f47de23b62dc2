package analyzer

import (
	"ats-analyzer/internal/models"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	GenerateFunc func(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
	prompts      []string
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	for _, p := range parts {
		if txt, ok := p.(genai.Text); ok {
			f.prompts = append(f.prompts, string(txt))
		}
	}
	return f.GenerateFunc(ctx, parts...)
}

func textResponse(s string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(s)}}},
		},
	}
}

func respondWith(s string) *fakeGenerator {
	return &fakeGenerator{GenerateFunc: func(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
		return textResponse(s), nil
	}}
}

func TestAnalyze_GeneralPrompt(t *testing.T) {
	gen := respondWith(`{"overallScore": 81}`)
	a := NewAdapter(gen, time.Second)

	out, err := a.Analyze(context.Background(), Request{Variant: VariantGeneral, Text: "Jane Doe, Go developer"})
	require.NoError(t, err)
	require.JSONEq(t, `{"overallScore":81}`, string(out))

	require.Len(t, gen.prompts, 1)
	require.Contains(t, gen.prompts[0], "Jane Doe, Go developer")
	require.Contains(t, gen.prompts[0], "atsEssentials")
}

func TestAnalyze_JobPrompt(t *testing.T) {
	gen := respondWith(`{"ats_score": 64}`)
	a := NewAdapter(gen, time.Second)

	job := models.JobContext{JobTitle: "Platform Engineer", JobDescription: "Kubernetes and Go"}
	_, err := a.Analyze(context.Background(), Request{Variant: VariantJobMatch, Text: "resume", Job: job})
	require.NoError(t, err)

	require.Contains(t, gen.prompts[0], "Platform Engineer")
	require.Contains(t, gen.prompts[0], "Kubernetes and Go")
	require.Contains(t, gen.prompts[0], "job_fit")
	require.Contains(t, gen.prompts[0], "Company: not specified")
}

func TestAnalyze_FencedResponse(t *testing.T) {
	a := NewAdapter(respondWith("Here you go:\n```json\n{\"overallScore\": 70}\n```"), time.Second)

	out, err := a.Analyze(context.Background(), Request{Text: "resume"})
	require.NoError(t, err)
	require.JSONEq(t, `{"overallScore":70}`, string(out))
}

func TestAnalyze_Garbled(t *testing.T) {
	for _, raw := range []string{"", "I cannot do that", "{not json}", "[1,2,3]"} {
		a := NewAdapter(respondWith(raw), time.Second)
		_, err := a.Analyze(context.Background(), Request{Text: "resume"})
		require.ErrorIs(t, err, ErrMalformed, raw)
	}
}

func TestAnalyze_EmptyCandidates(t *testing.T) {
	gen := &fakeGenerator{GenerateFunc: func(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{}, nil
	}}
	_, err := NewAdapter(gen, time.Second).Analyze(context.Background(), Request{Text: "resume"})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestAnalyze_UpstreamError(t *testing.T) {
	gen := &fakeGenerator{GenerateFunc: func(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
		return nil, errors.New("rpc error: code = Unavailable")
	}}
	_, err := NewAdapter(gen, time.Second).Analyze(context.Background(), Request{Text: "resume"})
	require.ErrorIs(t, err, ErrUpstream)
}

func TestAnalyze_Timeout(t *testing.T) {
	gen := &fakeGenerator{GenerateFunc: func(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	_, err := NewAdapter(gen, 20*time.Millisecond).Analyze(context.Background(), Request{Text: "resume"})
	require.ErrorIs(t, err, ErrTimeout)
}

func TestNormalizeResponse(t *testing.T) {
	out, err := NormalizeResponse("```JSON\n{\n  \"a\": {\"b\": 1}\n}\n```")
	require.NoError(t, err)
	require.Equal(t, `{"a":{"b":1}}`, string(out))

	_, err = NormalizeResponse(strings.Repeat("}", 3))
	require.ErrorIs(t, err, ErrMalformed)
}
