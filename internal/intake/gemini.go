package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/frontdesk-labs/frontdesk-core/internal/protocol"
	"google.golang.org/genai"
)

const extractionInstruction = `You extract structured lead information for a front-desk voice agent. ` +
	`Return strict JSON with exactly this shape: ` +
	`{"lead": {"name": string|null, "dob": string|null, "email": string|null, "phone": string|null, "request": string|null}, ` +
	`"slot_preference": {"date": string|null, "time": string|null, "meridiem": "am"|"pm"|null}}. ` +
	`If a field is unknown, set it to null. Do not invent extra properties. ` +
	`Phone numbers MUST be digits only (e.g. "0400111222"), not words. ` +
	`Dates of birth should be YYYY-MM-DD. Times should be 24-hour HH:MM where possible.`

type geminiExtractor struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiExtractor builds the Gemini-backed extraction collaborator.
func NewGeminiExtractor(ctx context.Context, apiKey, model string, temperature float32) (Extractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &geminiExtractor{client: client, model: model, temperature: temperature}, nil
}

type extractionPayload struct {
	Lead struct {
		Name    string `json:"name"`
		DOB     string `json:"dob"`
		Email   string `json:"email"`
		Phone   any    `json:"phone"`
		Request string `json:"request"`
	} `json:"lead"`
	SlotPreference *SlotPreference `json:"slot_preference"`
}

func (g *geminiExtractor) Extract(ctx context.Context, text string) (*Result, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:       &g.temperature,
		ResponseMIMEType:  "application/json",
		SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(extractionInstruction)}},
	}
	contents := []*genai.Content{
		genai.NewContentFromText("Extract lead info from:\n"+trimmed, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("extraction request: %w", err)
	}
	return parseExtraction(responseText(resp))
}

var codeFence = regexp.MustCompile("(?i)```(?:json)?|```")

// parseExtraction tolerates code-fenced output and treats malformed payloads
// as "no findings".
func parseExtraction(raw string) (*Result, error) {
	cleaned := strings.TrimSpace(codeFence.ReplaceAllString(raw, ""))
	if cleaned == "" {
		return nil, nil
	}

	var payload extractionPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("extraction returned non-JSON payload: %w", err)
	}

	lead := sanitizeLead(protocol.Lead{
		Name:    payload.Lead.Name,
		DOB:     payload.Lead.DOB,
		Email:   payload.Lead.Email,
		Phone:   coercePhone(payload.Lead.Phone),
		Request: payload.Lead.Request,
	})
	slot := sanitizeSlot(payload.SlotPreference)

	if lead == (protocol.Lead{}) && slot == nil {
		return nil, nil
	}
	return &Result{Lead: lead, Slot: slot}, nil
}

// coercePhone accepts the number the model sometimes emits instead of a
// digit string.
func coercePhone(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
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
