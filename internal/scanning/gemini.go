package scanning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/zombor/invoice-extractor/internal/document"
)

const (
	defaultGeminiModel = "gemini-2.5-pro"
	geminiTimeout      = 60 * time.Second
)

// Gemini reads documents with a Google Gemini model
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a Gemini scanner for the given model
func NewGemini(ctx context.Context, apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if modelName == "" {
		modelName = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	configureModel(model)

	return &Gemini{client: client, model: model}, nil
}

// configureModel installs the system prompt and zero temperature so field
// values are transcribed, never paraphrased
func configureModel(model *genai.GenerativeModel) {
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	model.SetTemperature(0)
}

// Scan extracts the invoice or check shown in data
func (g *Gemini) Scan(ctx context.Context, data []byte, contentType string) (document.Document, error) {
	return scan(ctx, "gemini", g, data, contentType)
}

func (g *Gemini) complete(ctx context.Context, png []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, geminiTimeout)
	defer cancel()

	// ImageData takes the format suffix rather than a MIME type
	resp, err := g.model.GenerateContent(ctx, genai.ImageData("png", png), genai.Text(scanPrompt))
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	return candidateText(resp)
}

// candidateText joins the text parts of the first candidate
func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no candidates in response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("empty answer")
	}
	return b.String(), nil
}

// Close releases the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
