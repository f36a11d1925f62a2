//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schemaDDL creates the tables the stores expect. Applied once per container.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS subject_records (
	subject_id  UUID PRIMARY KEY,
	version     BIGINT NOT NULL,
	payload     JSONB NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_events (
	id               BIGSERIAL PRIMARY KEY,
	category         TEXT NOT NULL,
	occurred_at      TIMESTAMPTZ NOT NULL,
	action           TEXT NOT NULL,
	subject_id       UUID,
	party_id         TEXT,
	fields_disclosed INT NOT NULL DEFAULT 0,
	fields_withheld  INT NOT NULL DEFAULT 0,
	record_version   BIGINT NOT NULL DEFAULT 0,
	reason           TEXT,
	request_id       TEXT,
	device           TEXT
);
`

// PostgresContainer wraps a testcontainers Postgres instance with both a pgx
// pool (record store) and a database/sql handle (audit store).
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	Pool      *pgxpool.Pool
	DB        *sql.DB
}

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("veil_test"),
		tcpostgres.WithUsername("veil"),
		tcpostgres.WithPassword("veil"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to create pgx pool: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open sql connection: %v", err)
	}

	pc := &PostgresContainer{
		Container: container,
		DSN:       dsn,
		Pool:      pool,
		DB:        db,
	}

	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return pc
}

// TruncateTables empties the given tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}
