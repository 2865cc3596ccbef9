package mlmodel

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedClassifier remembers results by image content, so the same photo
// uploaded twice costs one model call.
type CachedClassifier struct {
	next  Classifier
	cache *gocache.Cache
}

func NewCachedClassifier(next Classifier, ttl time.Duration) *CachedClassifier {
	return &CachedClassifier{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *CachedClassifier) Mode() string { return c.next.Mode() }

func (c *CachedClassifier) Classify(ctx context.Context, image []byte, mimeType string) (json.RawMessage, error) {
	key := imageKey(image)
	if val, found := c.cache.Get(key); found {
		return val.(json.RawMessage), nil
	}
	raw, err := c.next.Classify(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, raw)
	return raw, nil
}

func imageKey(image []byte) string {
	h := sha256.Sum256(image)
	return hex.EncodeToString(h[:])
}
