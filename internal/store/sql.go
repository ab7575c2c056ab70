package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// sqlStore is shared by the SQLite and Postgres backends. Queries are
// written with ? placeholders and rebound per driver.
type sqlStore struct {
	db     *sql.DB
	dollar bool
}

func (s *sqlStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqlStore) bind(query string) string {
	if !s.dollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) Save(ctx context.Context, npcID string, blob []byte) (Meta, error) {
	rec, err := newRecord(npcID, blob)
	if err != nil {
		return Meta{}, err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err = s.db.ExecContext(ctx, s.bind(`
INSERT INTO matrix_snapshots (id, npc_id, created_at_ms, size, checksum, blob)
VALUES (?, ?, ?, ?, ?, ?)
`), rec.ID, rec.NPCID, rec.CreatedAt.UnixMilli(), rec.Size, rec.Checksum, rec.Blob)
	if err != nil {
		return Meta{}, fmt.Errorf("save snapshot for %s: %w", npcID, err)
	}
	return rec.Meta, nil
}

func (s *sqlStore) Latest(ctx context.Context, npcID string) (Record, error) {
	recs, err := s.History(ctx, npcID, 1)
	if err != nil {
		return Record{}, err
	}
	if len(recs) == 0 {
		return Record{}, ErrNotFound
	}
	return recs[0], nil
}

func (s *sqlStore) History(ctx context.Context, npcID string, limit int) ([]Record, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
SELECT id, npc_id, created_at_ms, size, checksum, blob
FROM matrix_snapshots
WHERE npc_id = ?
ORDER BY seq DESC
`
	args := []any{npcID}
	if limit > 0 {
		query += "LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.bind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots for %s: %w", npcID, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var createdAtMs int64
		if err := rows.Scan(&rec.ID, &rec.NPCID, &createdAtMs, &rec.Size, &rec.Checksum, &rec.Blob); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.UnixMilli(createdAtMs).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *sqlStore) Prune(ctx context.Context, npcID string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.bind(`
DELETE FROM matrix_snapshots
WHERE npc_id = ?
  AND seq NOT IN (
    SELECT seq FROM matrix_snapshots
    WHERE npc_id = ?
    ORDER BY seq DESC
    LIMIT ?
  )
`), npcID, npcID, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots for %s: %w", npcID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
