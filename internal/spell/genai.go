package spell

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

const promptTemplate = `You are a magical AI interface from a cyberpunk future.
A user is casting a spell with the following hand configuration: %q.
They have been holding this spell for %.1f seconds.

Generate a creative, mystical, yet sci-fi sounding name and description for this spell.
The energy level should be based on duration (longer = higher).
Return a valid JSON object.`

// GenAIAnalyzer asks a Gemini model for a structured Record.
type GenAIAnalyzer struct {
	client *genai.Client
	model  string
}

// NewGenAIAnalyzer creates a Gemini-backed analyzer.
func NewGenAIAnalyzer(ctx context.Context, apiKey, model string) (*GenAIAnalyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIAnalyzer{client: client, model: model}, nil
}

// Name returns the analyzer name.
func (a *GenAIAnalyzer) Name() string {
	return "genai:" + a.model
}

// Analyze implements Analyzer.
func (a *GenAIAnalyzer) Analyze(ctx context.Context, label string, seconds float64) (Record, error) {
	resp, err := a.client.Models.GenerateContent(ctx,
		a.model,
		genai.Text(Prompt(label, seconds)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   recordSchema(),
		},
	)
	if err != nil {
		return Record{}, fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return Record{}, ErrEmptyResponse
	}
	return ParseRecord([]byte(text))
}

// Prompt renders the analysis prompt for a gesture label and hold duration.
func Prompt(label string, seconds float64) string {
	return fmt.Sprintf(promptTemplate, label, seconds)
}

func recordSchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":        str("Name of the spell (e.g., 'Aegis of the Digital Void')"),
			"type":        str("Type of magic (e.g., 'Defensive', 'Offensive', 'Illusion')"),
			"description": str("Short lore description."),
			"energyLevel": str("Power level reading (e.g., '8,900 kWh')"),
			"colorHex":    str("Hex color code matching the spell vibe."),
		},
		Required: []string{"name", "type", "description", "energyLevel", "colorHex"},
	}
}
