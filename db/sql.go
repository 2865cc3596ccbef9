package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

type statements struct {
	create string
	upsert string
}

var dialects = map[Dialect]statements{
	DialectSQLite: {
		create: `CREATE TABLE IF NOT EXISTS kv (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		upsert: `INSERT INTO kv(k, v, updated_at) VALUES(?, ?, ?)
			ON CONFLICT(k) DO UPDATE SET v=excluded.v, updated_at=excluded.updated_at`,
	},
	DialectMySQL: {
		create: `CREATE TABLE IF NOT EXISTS kv (
			k VARCHAR(191) NOT NULL PRIMARY KEY,
			v LONGTEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		upsert: `INSERT INTO kv (k, v, updated_at) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE v=VALUES(v), updated_at=VALUES(updated_at)`,
	},
}

// SQLKV stores keys in a single kv table.
type SQLKV struct {
	db      *sql.DB
	dialect Dialect
	stmts   statements
}

// OpenSQL opens the database and creates the kv table if needed.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*SQLKV, error) {
	driver := string(dialect)
	switch dialect {
	case DialectSQLite:
		if dsn == "" {
			dsn = "ciudamos.db"
		}
	case DialectMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("mysql dsn: %w", err)
		}
		dsn = cfg.FormatDSN()
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	kv, err := NewSQLKV(conn, dialect)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := kv.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return kv, nil
}

// NewSQLKV wraps an open connection. Call Migrate before first use on a fresh database.
func NewSQLKV(conn *sql.DB, dialect Dialect) (*SQLKV, error) {
	stmts, ok := dialects[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	return &SQLKV{db: conn, dialect: dialect, stmts: stmts}, nil
}

func (s *SQLKV) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.stmts.create); err != nil {
		return fmt.Errorf("create kv table: %w", err)
	}
	return nil
}

func (s *SQLKV) Get(ctx context.Context, key string) ([]byte, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(v), nil
}

func (s *SQLKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.stmts.upsert, key, string(value), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLKV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLKV) Close() error { return s.db.Close() }
