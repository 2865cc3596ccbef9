package mlmodel

import (
	"context"
	"encoding/json"

	"golang.org/x/time/rate"
)

// LimitedClassifier caps the rate of upstream calls. Callers wait for a slot
// until their context is done.
type LimitedClassifier struct {
	next    Classifier
	limiter *rate.Limiter
}

func NewLimitedClassifier(next Classifier, requestsPerSecond float64, burst int) *LimitedClassifier {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &LimitedClassifier{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (l *LimitedClassifier) Mode() string { return l.next.Mode() }

func (l *LimitedClassifier) Classify(ctx context.Context, image []byte, mimeType string) (json.RawMessage, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.next.Classify(ctx, image, mimeType)
}
