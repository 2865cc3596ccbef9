package mlmodel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"ciudamos/types"
)

var jpeg = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func TestMockClassifier(t *testing.T) {
	raw, err := MockClassifier{}.Classify(context.Background(), jpeg, "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	want := `{"categoria":"Infraestructura","gravedad":"Media","descripcion":"Bache visible que afecta la circulación.","confianza":0.45}`
	if string(raw) != want {
		t.Fatalf("mock payload = %s", raw)
	}
	if _, err := (MockClassifier{}).Classify(context.Background(), nil, ""); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("empty image: %v", err)
	}
}

func TestParseResult(t *testing.T) {
	res, err := ParseResult(mockPayload)
	if err != nil {
		t.Fatal(err)
	}
	want := types.AIResult{Categoria: "Infraestructura", Gravedad: "Media", Descripcion: "Bache visible que afecta la circulación.", Confianza: 0.45}
	if res != want {
		t.Fatalf("ParseResult = %+v", res)
	}
	if _, err := ParseResult(json.RawMessage(`{"categoria":"x","extra":1}`)); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func completion(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:      "chatcmpl-123",
		Object:  "chat.completion",
		Created: 1677652288,
		Model:   "gpt-4o-mini",
		Choices: []openai.ChatCompletionChoice{
			{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
	}
}

func TestOpenAIClassifier_Success(t *testing.T) {
	const modelText = `{ "categoria": "Movilidad", "gravedad": "Alta",
			"descripcion": "Auto volcado bloquea carril derecho en avenida.", "confianza": 0.82 }`
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		_ = json.NewEncoder(w).Encode(completion(modelText))
	}))
	defer server.Close()

	c, err := NewOpenAIClassifier(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := c.Classify(context.Background(), jpeg, "image/jpeg")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if string(raw) != modelText {
		t.Errorf("Classify = %s, want the model text unchanged", raw)
	}

	if body["model"] != "gpt-4o-mini" || body["temperature"] != 0.2 {
		t.Errorf("unexpected model settings: %v %v", body["model"], body["temperature"])
	}
	format, _ := body["response_format"].(map[string]any)
	schema, _ := format["json_schema"].(map[string]any)
	if format["type"] != "json_schema" || schema["name"] != "AutofillReporte" || schema["strict"] != true {
		t.Errorf("unexpected response_format: %v", format)
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	user, _ := msgs[1].(map[string]any)
	parts, _ := user["content"].([]any)
	if len(parts) != 2 {
		t.Fatalf("expected text and image parts, got %v", user["content"])
	}
	img, _ := parts[1].(map[string]any)["image_url"].(map[string]any)
	if url, _ := img["url"].(string); !strings.HasPrefix(url, "data:image/jpeg;base64,") {
		t.Errorf("image part url = %.40s", url)
	}
}

func TestOpenAIClassifier_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"api error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
		}},
		{"rate limit", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": {"message": "Rate limit exceeded", "type": "rate_limit_error"}}`))
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(completion("lo siento, no puedo"))
		}},
		{"no choices", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ID: "x"})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()
			c, _ := NewOpenAIClassifier(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
			if _, err := c.Classify(context.Background(), jpeg, "image/jpeg"); err == nil {
				t.Fatal("Expected error, got nil")
			}
		})
	}
}

func TestOpenAIClassifier_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c, _ := NewOpenAIClassifier(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Classify(context.Background(), jpeg, "image/jpeg")
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestNewOpenAIClassifierRequiresKey(t *testing.T) {
	if _, err := NewOpenAIClassifier(OpenAIConfig{}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestDataURL(t *testing.T) {
	if got := DataURL([]byte("abc"), "image/png"); got != "data:image/png;base64,YWJj" {
		t.Errorf("DataURL = %s", got)
	}
	if got := DataURL(jpeg, ""); !strings.HasPrefix(got, "data:image/jpeg;base64,") {
		t.Errorf("sniffed DataURL = %s", got)
	}
}

type countingClassifier struct {
	calls atomic.Int32
}

func (c *countingClassifier) Classify(context.Context, []byte, string) (json.RawMessage, error) {
	c.calls.Add(1)
	return mockPayload, nil
}

func (c *countingClassifier) Mode() string { return "counting" }

func TestCachedClassifier(t *testing.T) {
	inner := &countingClassifier{}
	c := NewCachedClassifier(inner, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Classify(ctx, jpeg, "image/jpeg"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := c.Classify(ctx, append([]byte{}, 0x01, 0x02), "image/png"); err != nil {
		t.Fatal(err)
	}
	if n := inner.calls.Load(); n != 2 {
		t.Fatalf("inner classifier called %d times, want 2", n)
	}
	if c.Mode() != "counting" {
		t.Fatalf("Mode = %s", c.Mode())
	}
}

func TestLimitedClassifier(t *testing.T) {
	inner := &countingClassifier{}
	l := NewLimitedClassifier(inner, 0.01, 1)

	if _, err := l.Classify(context.Background(), jpeg, ""); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Classify(ctx, jpeg, ""); err == nil {
		t.Fatal("expected the second call to be rate limited")
	}
	if n := inner.calls.Load(); n != 1 {
		t.Fatalf("inner classifier called %d times", n)
	}

	unlimited := NewLimitedClassifier(inner, 0, 0)
	for i := 0; i < 5; i++ {
		if _, err := unlimited.Classify(context.Background(), jpeg, ""); err != nil {
			t.Fatal(err)
		}
	}
}
