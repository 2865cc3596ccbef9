// Package mlmodel turns report photos into structured classifications.
package mlmodel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ciudamos/types"
)

const (
	ModeMock   = "mock"
	ModeOpenAI = "openai"
)

// Classifier returns the model's JSON object for one image. The payload has
// exactly the keys categoria, gravedad, descripcion and confianza.
type Classifier interface {
	Classify(ctx context.Context, image []byte, mimeType string) (json.RawMessage, error)
	Mode() string
}

var ErrEmptyImage = errors.New("image is empty")

// mockPayload is served when no model credential is configured.
var mockPayload = json.RawMessage(`{"categoria":"Infraestructura","gravedad":"Media","descripcion":"Bache visible que afecta la circulación.","confianza":0.45}`)

// MockClassifier answers every image with the same canned result and never
// touches the network.
type MockClassifier struct{}

func (MockClassifier) Classify(_ context.Context, image []byte, _ string) (json.RawMessage, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	out := make(json.RawMessage, len(mockPayload))
	copy(out, mockPayload)
	return out, nil
}

func (MockClassifier) Mode() string { return ModeMock }

// ParseResult decodes a classifier payload. Unknown keys are rejected so a
// drifting model contract is noticed.
func ParseResult(raw json.RawMessage) (types.AIResult, error) {
	var res types.AIResult
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&res); err != nil {
		return types.AIResult{}, fmt.Errorf("decode classification: %w", err)
	}
	return res, nil
}
