//go:build integration

package pg_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/nelasy5/blockmon/internal/storage"
	"github.com/nelasy5/blockmon/internal/storage/pg"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestRepo_RecordAndListRecent(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		dsn = os.Getenv("PG_DSN")
	}
	if dsn == "" {
		t.Skip("TEST_PG_DSN/PG_DSN is not set")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	repo := pg.New(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	// чистим после миграций (быстро и предсказуемо)
	_, _ = pool.Exec(ctx, "TRUNCATE notifications")

	now := time.Now().UTC()
	bn := uint64(123)
	to := "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

	rec := storage.NotificationRecord{
		Hash:        "0x" + strings.Repeat("1", 64),
		ChainID:     1,
		FromAddr:    "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		ToAddr:      &to,
		ValueWei:    "1000000000000000000",
		Confirmed:   false,
		MessageID:   777,
		BlockNum:    &bn,
		BlockTime:   &now,
		DeliveredAt: now,
	}

	if err := repo.RecordNotification(ctx, rec); err != nil {
		t.Fatalf("RecordNotification: %v", err)
	}

	// повторная запись того же хэша = апдейт, не новая строка
	rec.Confirmed = true
	rec.MessageID = 778
	if err := repo.RecordNotification(ctx, rec); err != nil {
		t.Fatalf("RecordNotification (upsert): %v", err)
	}

	got, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got=%d", len(got))
	}
	if got[0].Hash != rec.Hash {
		t.Fatalf("expected hash=%s got=%s", rec.Hash, got[0].Hash)
	}
	if !got[0].Confirmed || got[0].MessageID != 778 {
		t.Fatalf("expected upserted confirmed record, got=%+v", got[0])
	}
}
