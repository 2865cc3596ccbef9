// Package db holds the key-value backends the report store persists through.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when the key has never been written or was deleted.
var ErrNotFound = errors.New("key not found")

// KV is a minimal durable key-value store. Values are opaque bytes.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Open returns the backend named by driver. dsn is a file path for sqlite,
// a go-sql-driver DSN for mysql, and ignored otherwise. Firestore credentials
// are the base64 service account JSON.
func Open(ctx context.Context, driver, dsn, firestoreCreds string) (KV, error) {
	switch strings.ToLower(driver) {
	case "", "sqlite":
		return OpenSQL(ctx, DialectSQLite, dsn)
	case "mysql":
		return OpenSQL(ctx, DialectMySQL, dsn)
	case "firestore":
		client, err := InitFirestore(ctx, firestoreCreds)
		if err != nil {
			return nil, err
		}
		return NewFirestoreKV(client), nil
	case "memory":
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}
