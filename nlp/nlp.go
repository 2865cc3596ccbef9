package nlp

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"sort"
	"sync"

	language "cloud.google.com/go/language/apiv2"
	"cloud.google.com/go/language/apiv2/languagepb"
	"google.golang.org/api/option"
)

// Placeholder replaces personal data in citizen descriptions.
const Placeholder = "[dato omitido]"

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// Redactor strips names and contact data from free text before it is stored.
type Redactor interface {
	Redact(ctx context.Context, text string) (string, error)
}

// Span is a byte range of text.
type Span struct {
	Begin, End int
}

// languageClient a singleton languageClient instance.
var (
	languageClient *language.Client
	clientErr      error
	clientOnce     sync.Once
)

// InitLanguageClient initializes and returns a language client from base64
// encoded service account credentials.
func InitLanguageClient(ctx context.Context, encodedCreds string) (*language.Client, error) {
	clientOnce.Do(func() {
		creds, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			clientErr = fmt.Errorf("decode natural language credentials: %w", err)
			return
		}
		languageClient, clientErr = language.NewClient(ctx, option.WithCredentialsJSON(creds))
		if clientErr != nil {
			clientErr = fmt.Errorf("create natural language client: %w", clientErr)
		}
	})
	return languageClient, clientErr
}

func CloseLanguageClient() {
	if languageClient != nil {
		languageClient.Close()
	}
}

// LanguageRedactor finds person names and phone numbers with Cloud Natural
// Language entity analysis. E-mail addresses are matched locally.
type LanguageRedactor struct {
	client *language.Client
}

func NewLanguageRedactor(client *language.Client) *LanguageRedactor {
	return &LanguageRedactor{client: client}
}

func (r *LanguageRedactor) Redact(ctx context.Context, text string) (string, error) {
	if text == "" {
		return text, nil
	}
	req := &languagepb.AnalyzeEntitiesRequest{
		Document: &languagepb.Document{
			Source: &languagepb.Document_Content{
				Content: text,
			},
			Type: languagepb.Document_PLAIN_TEXT,
		},
		EncodingType: languagepb.EncodingType_UTF8,
	}

	resp, err := r.client.AnalyzeEntities(ctx, req)
	if err != nil {
		return "", fmt.Errorf("AnalyzeEntities error: %w", err)
	}
	return RedactSpans(text, append(EntitySpans(resp.Entities), EmailSpans(text)...)), nil
}

// EntitySpans returns the mentions that identify a person: proper-name
// mentions of PERSON entities and every PHONE_NUMBER mention.
func EntitySpans(entities []*languagepb.Entity) []Span {
	var spans []Span
	for _, e := range entities {
		switch e.Type {
		case languagepb.Entity_PERSON, languagepb.Entity_PHONE_NUMBER:
		default:
			continue
		}
		for _, m := range e.Mentions {
			if m.Text == nil {
				continue
			}
			if e.Type == languagepb.Entity_PERSON && m.Type != languagepb.EntityMention_PROPER {
				continue
			}
			begin := int(m.Text.BeginOffset)
			spans = append(spans, Span{Begin: begin, End: begin + len(m.Text.Content)})
		}
	}
	return spans
}

func EmailSpans(text string) []Span {
	var spans []Span
	for _, loc := range emailPattern.FindAllStringIndex(text, -1) {
		spans = append(spans, Span{Begin: loc[0], End: loc[1]})
	}
	return spans
}

// RedactSpans replaces each span with Placeholder. Overlapping and out of
// range spans are merged or clipped.
func RedactSpans(text string, spans []Span) string {
	if len(spans) == 0 {
		return text
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Begin < spans[j].Begin })

	out := make([]byte, 0, len(text))
	pos := 0
	for _, s := range spans {
		if s.Begin < pos {
			s.Begin = pos
		}
		if s.End > len(text) {
			s.End = len(text)
		}
		if s.Begin >= s.End {
			continue
		}
		out = append(out, text[pos:s.Begin]...)
		out = append(out, Placeholder...)
		pos = s.End
	}
	out = append(out, text[pos:]...)
	return string(out)
}

// EmailRedactor is the fallback used when no language credentials are configured.
type EmailRedactor struct{}

func (EmailRedactor) Redact(_ context.Context, text string) (string, error) {
	return RedactSpans(text, EmailSpans(text)), nil
}
