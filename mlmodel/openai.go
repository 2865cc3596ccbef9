package mlmodel

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

const schemaName = "AutofillReporte"

// reportSchema constrains the model output. Enum values follow the canonical
// category set.
var reportSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "categoria": {"type": "string", "enum": ["Infraestructura", "Salubridad", "Seguridad", "Movilidad", "Ambiente", "Emergencias"]},
    "gravedad": {"type": "string", "enum": ["Baja", "Media", "Alta"]},
    "descripcion": {"type": "string", "minLength": 12, "maxLength": 240},
    "confianza": {"type": "number", "minimum": 0, "maximum": 1}
  },
  "required": ["categoria", "gravedad", "descripcion", "confianza"]
}`)

const systemPrompt = `Eres analista urbano de CIUDAMOS. Recibes UNA foto de un incidente en la vía pública y respondes SOLO con un objeto JSON plano con estas claves:
- "categoria": una de "Infraestructura", "Salubridad", "Seguridad", "Movilidad", "Ambiente", "Emergencias".
- "gravedad": una de "Baja", "Media", "Alta", según el impacto o riesgo visible.
- "descripcion": una sola oración en español, de 140 caracteres o menos, que diga qué se ve, su contexto y el efecto o riesgo. Sin adjetivos vagos.
- "confianza": número entre 0 y 1, con uno o dos decimales, que refleje qué tan seguro es el análisis.

Criterios de categoría:
- Infraestructura: baches, alcantarillas, banquetas, postes, daños viales o urbanos.
- Salubridad: basura, agua estancada, plagas, desechos, focos de infección.
- Seguridad: vandalismo, evidencia de delito o violencia, objetos peligrosos.
- Movilidad: choques, obstrucciones viales, semáforos fallando, tráfico detenido.
- Ambiente: humo o quema, tala, fauna herida, contaminación visible.
- Emergencias: incendio activo, inundación severa, accidente grave, personas heridas.

Reglas:
- No inventes. Si hay ambigüedad elige la categoría más conservadora y baja la confianza.
- Sin saltos de línea ni comentarios, solo JSON válido con las 4 claves.
- No incluyas nombres propios ni datos personales.

Ejemplo:
{"categoria":"Movilidad","gravedad":"Alta","descripcion":"Auto volcado bloquea carril derecho en avenida; riesgo de choque en cadena.","confianza":0.82}`

const userPrompt = "Analiza la foto y devuelve SOLO el JSON solicitado."

// OpenAIConfig configures the hosted vision model.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIClassifier sends the photo as a data URL to a chat completion with a
// strict JSON schema response format. Upstream failures are not retried.
type OpenAIClassifier struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIClassifier(cfg OpenAIConfig) (*OpenAIClassifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIClassifier{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		timeout: timeout,
	}, nil
}

func (o *OpenAIClassifier) Mode() string { return ModeOpenAI }

func (o *OpenAIClassifier) Classify(ctx context.Context, image []byte, mimeType string) (json.RawMessage, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: reportSchema,
				Strict: true,
			},
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: userPrompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
						URL:    DataURL(image, mimeType),
						Detail: openai.ImageURLDetailAuto,
					}},
				},
			},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctxWithTimeout, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctxWithTimeout.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("OpenAI request timed out after %s", o.timeout)
		}
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	text := resp.Choices[0].Message.Content
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}
	return json.RawMessage(text), nil
}

// DataURL encodes an image for the vision input. The type is sniffed when the
// caller did not provide one.
func DataURL(image []byte, mimeType string) string {
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
}
