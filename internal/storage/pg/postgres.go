package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/nelasy5/blockmon/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Postgres { return &Postgres{pool: pool} }

func (r *Postgres) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS notifications (
  hash TEXT PRIMARY KEY,
  chain_id BIGINT NOT NULL,

  from_addr TEXT NOT NULL,
  to_addr   TEXT NULL,

  value_wei NUMERIC(78,0) NOT NULL,
  confirmed BOOLEAN NOT NULL,
  message_id BIGINT NOT NULL,

  block_number BIGINT NULL,
  block_time TIMESTAMPTZ NULL,

  delivered_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS notifications_delivered_idx ON notifications(delivered_at DESC);
`
	_, err := r.pool.Exec(ctx, ddl)
	return err
}

func (r *Postgres) RecordNotification(ctx context.Context, rec storage.NotificationRecord) error {
	cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var (
		toAddr    any = nil
		blockNum  any = nil
		blockTime any = nil
	)
	if rec.ToAddr != nil {
		toAddr = *rec.ToAddr
	}
	if rec.BlockNum != nil {
		blockNum = int64(*rec.BlockNum)
	}
	if rec.BlockTime != nil {
		blockTime = *rec.BlockTime
	}

	q := `
INSERT INTO notifications(
  hash, chain_id, from_addr, to_addr,
  value_wei, confirmed, message_id,
  block_number, block_time, delivered_at
) VALUES (
  $1, $2, $3, $4,
  $5::numeric, $6, $7,
  $8, $9, $10
)
ON CONFLICT(hash) DO UPDATE SET
  confirmed  = EXCLUDED.confirmed,
  message_id = EXCLUDED.message_id,
  value_wei  = EXCLUDED.value_wei,
  block_number = COALESCE(EXCLUDED.block_number, notifications.block_number),
  block_time   = COALESCE(EXCLUDED.block_time,   notifications.block_time),
  updated_at   = now()
`
	_, err := r.pool.Exec(cctx, q,
		rec.Hash, rec.ChainID, rec.FromAddr, toAddr,
		rec.ValueWei, rec.Confirmed, int64(rec.MessageID),
		blockNum, blockTime, rec.DeliveredAt,
	)
	return err
}

func (r *Postgres) ListRecent(ctx context.Context, limit int) ([]storage.NotificationRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	q := `
SELECT
  hash, chain_id, from_addr, to_addr,
  value_wei::text, confirmed, message_id,
  block_number, block_time, delivered_at
FROM notifications
ORDER BY delivered_at DESC
LIMIT $1
`
	rows, err := r.pool.Query(cctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.NotificationRecord
	for rows.Next() {
		var (
			rec       storage.NotificationRecord
			to        *string
			messageID int64
			blockNum  *int64
			blockTime *time.Time
		)

		if err := rows.Scan(
			&rec.Hash, &rec.ChainID, &rec.FromAddr, &to,
			&rec.ValueWei, &rec.Confirmed, &messageID,
			&blockNum, &blockTime, &rec.DeliveredAt,
		); err != nil {
			return nil, err
		}

		rec.ToAddr = to
		rec.MessageID = int(messageID)
		if blockNum != nil {
			u := uint64(*blockNum)
			rec.BlockNum = &u
		}
		rec.BlockTime = blockTime

		out = append(out, rec)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return out, nil
}

func (r *Postgres) String() string { return fmt.Sprintf("pgrepo(%p)", r.pool) }
