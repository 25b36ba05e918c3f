package scanning

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zombor/invoice-extractor/internal/document"
)

var errNoObject = errors.New("no JSON object found in response")

// parseDocumentJSON decodes the first JSON object in a model answer, skipping any
// code fence or prose around it
func parseDocumentJSON(answer string) (document.Document, error) {
	raw, err := firstObject(answer)
	if err != nil {
		return nil, err
	}

	doc, err := document.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}

// firstObject returns the first complete JSON object in text
func firstObject(text string) (json.RawMessage, error) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return nil, errNoObject
	}

	var raw json.RawMessage
	if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&raw); err != nil {
		return nil, fmt.Errorf("reading JSON object: %w", err)
	}
	return raw, nil
}
