package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zombor/invoice-extractor/internal/document"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llava"
	chatPath           = "/api/chat"
)

// Ollama reads documents with a local vision model served by Ollama.
// Models that handle invoices reasonably: llava:1.6, qwen2-vl:7b, llama3.2-vision.
type Ollama struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewOllama creates an Ollama scanner; empty arguments select the local defaults
func NewOllama(baseURL string, modelName string) *Ollama {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if modelName == "" {
		modelName = defaultOllamaModel
	}

	return &Ollama{
		endpoint: strings.TrimSuffix(baseURL, "/") + chatPath,
		model:    modelName,
		// vision models are slow on CPU
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// Scan extracts the invoice or check shown in data
func (o *Ollama) Scan(ctx context.Context, data []byte, contentType string) (document.Document, error) {
	return scan(ctx, "ollama", o, data, contentType)
}

func (o *Ollama) complete(ctx context.Context, png []byte) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:   o.model,
		Format:  "json",
		Options: map[string]any{"temperature": 0},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: scanPrompt, Images: []string{base64.StdEncoding.EncodeToString(png)}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling chat API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("chat API status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return chat.Message.Content, nil
}

// Close is a no-op; the HTTP client holds nothing to release
func (o *Ollama) Close() error {
	return nil
}
