package generation

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"google.golang.org/genai"
)

type geminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator builds a streaming Gemini backend.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &geminiGenerator{client: client, model: model}, nil
}

func (g *geminiGenerator) Generate(ctx context.Context, req Request) (<-chan Fragment, <-chan error, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		cfg.Temperature = &temp
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}
	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	seq := g.client.Models.GenerateContentStream(ctx, g.model, contents, cfg)
	next, stop := iter.Pull2(seq)

	// Pull the first response before handing the stream out so that a
	// failure to open surfaces here, where it can be retried.
	first, err, ok := next()
	if err != nil {
		stop()
		return nil, nil, wrapProviderError(err)
	}

	frags := make(chan Fragment, 8)
	errs := make(chan error, 1)
	go func() {
		defer close(frags)
		defer close(errs)
		defer stop()
		if !ok {
			return
		}
		if !emitResponse(ctx, frags, first) {
			return
		}
		for {
			resp, err, ok := next()
			if !ok {
				return
			}
			if err != nil {
				errs <- wrapProviderError(err)
				return
			}
			if !emitResponse(ctx, frags, resp) {
				return
			}
		}
	}()
	return frags, errs, nil
}

func emitResponse(ctx context.Context, frags chan<- Fragment, resp *genai.GenerateContentResponse) bool {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return true
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text == "" {
			continue
		}
		select {
		case frags <- Fragment{Text: part.Text}:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func wrapProviderError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Code: apiErr.Code, Err: err}
	}
	if code := CodeOf(err); code != 0 {
		return &ProviderError{Code: code, Err: err}
	}
	return err
}
