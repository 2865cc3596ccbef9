package db

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const kvCollection = "kv"

// HashString hashes a given string using SHA-256 and returns its hex representation.
func HashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Firestore client singleton.
var (
	client     *firestore.Client
	clientErr  error
	clientOnce sync.Once
)

// InitFirestore initializes and returns a Firestore client from base64
// encoded service account credentials. Later calls return the same client.
func InitFirestore(ctx context.Context, encodedCreds string) (*firestore.Client, error) {
	clientOnce.Do(func() {
		if encodedCreds == "" {
			clientErr = errors.New("FIREBASE_CREDENTIALS is not set")
			return
		}
		creds, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			clientErr = fmt.Errorf("decode firestore credentials: %w", err)
			return
		}

		app, err := firebase.NewApp(ctx, nil, option.WithCredentialsJSON(creds))
		if err != nil {
			clientErr = fmt.Errorf("initializing firebase app: %w", err)
			return
		}

		client, clientErr = app.Firestore(ctx)
		if clientErr != nil {
			clientErr = fmt.Errorf("getting firestore client: %w", clientErr)
		}
	})
	return client, clientErr
}

// CloseFirestore closes the Firestore client.
func CloseFirestore() {
	if client != nil {
		client.Close()
	}
}

// FirestoreKV keeps each key in its own document of the kv collection. Doc
// ids are hashed because keys contain characters Firestore does not allow.
type FirestoreKV struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreKV(c *firestore.Client) *FirestoreKV {
	return &FirestoreKV{client: c, collection: kvCollection}
}

func (f *FirestoreKV) doc(key string) *firestore.DocumentRef {
	return f.client.Collection(f.collection).Doc(HashString(key))
}

func (f *FirestoreKV) Get(ctx context.Context, key string) ([]byte, error) {
	snap, err := f.doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting kv doc for %s: %w", key, err)
	}
	v, ok := snap.Data()["value"].(string)
	if !ok {
		return nil, fmt.Errorf("kv doc for %s has no value", key)
	}
	return []byte(v), nil
}

func (f *FirestoreKV) Set(ctx context.Context, key string, value []byte) error {
	data := map[string]interface{}{
		"key":       key,
		"value":     string(value),
		"updatedAt": firestore.ServerTimestamp,
	}
	if _, err := f.doc(key).Set(ctx, data); err != nil {
		return fmt.Errorf("failed to set kv doc for %s: %w", key, err)
	}
	return nil
}

func (f *FirestoreKV) Delete(ctx context.Context, key string) error {
	if _, err := f.doc(key).Delete(ctx); err != nil {
		return fmt.Errorf("error deleting kv doc for %s: %w", key, err)
	}
	return nil
}
