package datasource

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/setup-scanner/internal/types"
)

// PostgresSource reads the day's candidates from a PostgreSQL table with columns
// (id text, quantity double precision, target double precision NULL,
// metadata jsonb NULL, scan_date date).
type PostgresSource struct {
	pool  *pgxpool.Pool
	name  string
	table string
}

// OpenPostgres establishes a connection pool and verifies it.
func OpenPostgres(ctx context.Context, databaseURL string, opts Options) (*PostgresSource, error) {
	name := "postgres:" + redactURL(databaseURL)

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, failure(name, "failed to connect to database", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, failure(name, "failed to ping database", err)
	}

	return &PostgresSource{pool: pool, name: name, table: opts.table()}, nil
}

// Name implements DataSource.
func (s *PostgresSource) Name() string {
	return s.name
}

// Close closes the connection pool
func (s *PostgresSource) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// FetchCandidates implements DataSource.
func (s *PostgresSource) FetchCandidates(ctx context.Context, day time.Time) ([]types.Candidate, error) {
	query := fmt.Sprintf(
		`SELECT id, quantity, target, metadata FROM %s WHERE scan_date = $1::date ORDER BY id`,
		pgx.Identifier{s.table}.Sanitize(),
	)

	rows, err := s.pool.Query(ctx, query, day.Format(time.DateOnly))
	if err != nil {
		return nil, failure(s.name, "failed to query candidates", err)
	}
	defer rows.Close()

	candidates := []types.Candidate{}
	for rows.Next() {
		var (
			c        types.Candidate
			quantity *float64
			metadata []byte
		)
		if err := rows.Scan(&c.ID, &quantity, &c.Target, &metadata); err != nil {
			return nil, failure(s.name, "failed to scan candidate", err)
		}
		c.Quantity = math.NaN()
		if quantity != nil {
			c.Quantity = *quantity
		}
		decodeMetadata(metadata, &c)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, failure(s.name, "error iterating candidates", err)
	}

	return candidates, nil
}

// redactURL hides the password of a connection URL for display.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(unparseable url)"
	}
	return u.Redacted()
}
