package cache

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL is compiled into the binary at build time, the same way
// the teacher embeds internal/db/schema.sql, so schema init works
// inside a runtime image that never copies internal/cache/schema.sql
// into its final stage.
//
//go:embed schema.sql
var schemaSQL string

// PostgresBackend is the persistent Cache backend adapted from the
// teacher's internal/db/postgres.go: same pgxpool connection
// pattern and embedded-schema init, repurposed to a single
// key/value/expiry table instead of the teacher's CoinJoin-specific
// tx_heuristics/evidence_edge tables.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens the pool and verifies connectivity.
func ConnectPostgres(ctx context.Context, connStr string) (*PostgresBackend, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	log.Println("Successfully connected to PostgreSQL for KYT cache backend")
	return &PostgresBackend{pool: pool}, nil
}

// InitSchema executes the embedded schema.sql DDL.
func (p *PostgresBackend) InitSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute cache schema migration: %w", err)
	}
	log.Println("KYT cache schema initialized")
	return nil
}

func (p *PostgresBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	row := p.pool.QueryRow(ctx,
		`SELECT value FROM kyt_cache WHERE key = $1 AND (expires_at IS NULL OR expires_at > NOW())`,
		key,
	)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return value, true, nil
}

func (p *PostgresBackend) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt any
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	sql := `
		INSERT INTO kyt_cache (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW();
	`
	_, err := p.pool.Exec(ctx, sql, key, value, expiresAt)
	if err != nil {
		// Per spec.md §4.3: "On put failure it must log and continue;
		// correctness must not depend on successful persistence."
		log.Printf("warning: cache put failed for %s: %v", key, err)
		return nil
	}
	return nil
}

func (p *PostgresBackend) Ping(ctx context.Context) bool {
	return p.pool.Ping(ctx) == nil
}

func (p *PostgresBackend) Close() error {
	p.pool.Close()
	return nil
}
