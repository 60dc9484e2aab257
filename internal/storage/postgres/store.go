package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nitroScope/internal/model"
)

const defaultListLimit = 20

const schema = `
CREATE TABLE IF NOT EXISTS valuation_reports (
	id UUID PRIMARY KEY,
	generated_at TIMESTAMPTZ NOT NULL,
	chain_id BIGINT NOT NULL,
	block_number BIGINT NOT NULL,
	pool_address TEXT NOT NULL,
	nitro_address TEXT NOT NULL,
	user_address TEXT NOT NULL,
	positions_total DOUBLE PRECISION NOT NULL,
	nitro_ratio DOUBLE PRECISION NOT NULL,
	nitro_tvl_usd DOUBLE PRECISION NOT NULL,
	total_usd DOUBLE PRECISION NOT NULL,
	report JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS valuation_reports_user_idx
	ON valuation_reports (user_address, generated_at DESC);
`

// Store provides Postgres persistence for valuation reports.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the reports table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutReport inserts a report; re-inserting the same id replaces it.
func (s *Store) PutReport(ctx context.Context, report model.ValuationReport) error {
	return s.InsertReports(ctx, []model.ValuationReport{report})
}

// InsertReports stores reports in one batch.
func (s *Store) InsertReports(ctx context.Context, reports []model.ValuationReport) error {
	if len(reports) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rep := range reports {
		payload, err := json.Marshal(rep)
		if err != nil {
			return fmt.Errorf("marshal report %s: %w", rep.ID, err)
		}
		batch.Queue(`
			INSERT INTO valuation_reports (
				id, generated_at, chain_id, block_number, pool_address, nitro_address, user_address,
				positions_total, nitro_ratio, nitro_tvl_usd, total_usd, report
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			ON CONFLICT (id)
			DO UPDATE SET
				generated_at = EXCLUDED.generated_at,
				block_number = EXCLUDED.block_number,
				positions_total = EXCLUDED.positions_total,
				nitro_ratio = EXCLUDED.nitro_ratio,
				nitro_tvl_usd = EXCLUDED.nitro_tvl_usd,
				total_usd = EXCLUDED.total_usd,
				report = EXCLUDED.report
		`,
			rep.ID,
			rep.GeneratedAt,
			int64(rep.ChainID),
			int64(rep.BlockNumber),
			strings.ToLower(rep.Pool),
			strings.ToLower(rep.NitroPool),
			strings.ToLower(rep.User),
			rep.Positions.Total,
			rep.Nitro.Share.Ratio,
			rep.Nitro.TVLUSD,
			rep.TotalDollarValue,
			payload,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range reports {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// ListReports returns the newest reports for user, newest first.
func (s *Store) ListReports(ctx context.Context, user string, limit int) ([]model.ValuationReport, error) {
	if user == "" {
		return nil, fmt.Errorf("user address required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT report FROM valuation_reports
		WHERE user_address = $1
		ORDER BY generated_at DESC
		LIMIT $2
	`, strings.ToLower(user), limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []model.ValuationReport
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		var rep model.ValuationReport
		if err := json.Unmarshal(payload, &rep); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
