package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/genai"
)

const classifierInstruction = `You classify customer utterances for a front-desk voice agent. ` +
	`Return a single JSON object with exactly one field: ` +
	`"intent", which must be either "booking" or "general_enquiry". ` +
	`Never invent new labels or additional properties. ` +
	`Prefer "booking" for scheduling, rescheduling, or availability requests; otherwise use "general_enquiry".`

type geminiClassifier struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiClassifier builds the Gemini-backed classifier collaborator.
func NewGeminiClassifier(ctx context.Context, apiKey, model string) (Classifier, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &geminiClassifier{client: client, model: model}, nil
}

func (g *geminiClassifier) Classify(ctx context.Context, utterance string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:       &g.temperature,
		ResponseMIMEType:  "application/json",
		SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(classifierInstruction)}},
	}
	contents := []*genai.Content{
		genai.NewContentFromText("Classify this message:\n"+utterance, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("classification request: %w", err)
	}
	return parseClassification(classifierText(resp))
}

var classifierFence = regexp.MustCompile("(?i)```(?:json)?|```")

func parseClassification(raw string) (string, error) {
	cleaned := strings.TrimSpace(classifierFence.ReplaceAllString(raw, ""))
	if cleaned == "" {
		return "", nil
	}
	var payload struct {
		Intent string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return "", fmt.Errorf("classifier returned non-JSON payload: %w", err)
	}
	return payload.Intent, nil
}

func classifierText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
