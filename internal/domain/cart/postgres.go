package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"carshop/internal/dbx"

	"github.com/jackc/pgx/v5"
)

// SnapshotRepository stores cart snapshots as one JSONB row per storage key.
//
// Schema:
//
//	CREATE TABLE cart_snapshots (
//	    storage_key TEXT PRIMARY KEY,
//	    lines       JSONB NOT NULL,
//	    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
// The upsert replaces the whole snapshot, which makes concurrent writers from
// separate instances last-write-wins.
type SnapshotRepository struct {
	db dbx.Querier
}

func NewSnapshotRepository(q dbx.Querier) *SnapshotRepository {
	return &SnapshotRepository{db: q}
}

func (r *SnapshotRepository) Load(ctx context.Context, key string) ([]Line, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `
SELECT lines
FROM cart_snapshots
WHERE storage_key = $1
`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select cart snapshot: %w", err)
	}

	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return lines, nil
}

func (r *SnapshotRepository) Save(ctx context.Context, key string, lines []Line) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}

	_, err = r.db.Exec(ctx, `
INSERT INTO cart_snapshots (storage_key, lines, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (storage_key)
DO UPDATE SET lines = EXCLUDED.lines, updated_at = now()
`, key, raw)
	if err != nil {
		return fmt.Errorf("upsert cart snapshot: %w", err)
	}
	return nil
}
