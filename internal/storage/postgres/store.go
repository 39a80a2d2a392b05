package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS swap_quotes (
	id BIGSERIAL PRIMARY KEY,
	chain_id BIGINT NOT NULL,
	token_in TEXT NOT NULL,
	token_out TEXT NOT NULL,
	amount_in NUMERIC(78,0) NOT NULL,
	amount_out NUMERIC(78,0) NOT NULL,
	route TEXT[] NOT NULL,
	source TEXT NOT NULL,
	resolved_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS pool_snapshots (
	chain_id BIGINT NOT NULL,
	pool_address TEXT NOT NULL,
	read_at TIMESTAMPTZ NOT NULL,
	token0 TEXT NOT NULL,
	token1 TEXT NOT NULL,
	token0_decimals SMALLINT NOT NULL,
	token1_decimals SMALLINT NOT NULL,
	fee INTEGER NOT NULL,
	tick INTEGER NOT NULL,
	sqrt_price_x96 NUMERIC(78,0) NOT NULL,
	liquidity NUMERIC(78,0) NOT NULL,
	PRIMARY KEY (chain_id, pool_address, read_at)
);
`

// Store persists the quote journal in Postgres.
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

// EnsureSchema creates the journal tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// PutQuote inserts a resolved quote.
func (s *Store) PutQuote(ctx context.Context, record model.QuoteRecord) error {
	resolvedAt, err := parseTimestamp(record.ResolvedAt)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO swap_quotes (
			chain_id, token_in, token_out, amount_in, amount_out, route, source, resolved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		int64(record.ChainID),
		record.TokenIn,
		record.TokenOut,
		record.AmountIn,
		record.AmountOut,
		record.Route,
		string(record.Source),
		resolvedAt,
	)
	return err
}

// PutPoolSnapshot inserts a pool state read; rereads at the same instant are ignored.
func (s *Store) PutPoolSnapshot(ctx context.Context, record model.PoolSnapshotRecord) error {
	return s.PutPoolSnapshots(ctx, []model.PoolSnapshotRecord{record})
}

// PutPoolSnapshots inserts pool state reads in one batch.
func (s *Store) PutPoolSnapshots(ctx context.Context, records []model.PoolSnapshotRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		readAt, err := parseTimestamp(r.ReadAt)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO pool_snapshots (
				chain_id, pool_address, read_at, token0, token1, token0_decimals, token1_decimals,
				fee, tick, sqrt_price_x96, liquidity
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			ON CONFLICT (chain_id, pool_address, read_at) DO NOTHING
		`,
			int64(r.ChainID),
			r.Address,
			readAt,
			r.Token0,
			r.Token1,
			int16(r.Token0Decimals),
			int16(r.Token1Decimals),
			int32(r.Fee),
			r.Tick,
			r.SqrtPriceX96,
			r.Liquidity,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return ts, nil
}
