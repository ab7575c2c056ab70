// Package store keeps versioned matrix snapshots per NPC.
package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrNotFound         = errors.New("snapshot not found")
	ErrChecksumMismatch = errors.New("snapshot checksum mismatch")
)

type Store interface {
	Close() error
	Save(ctx context.Context, npcID string, blob []byte) (Meta, error)
	// Latest returns the newest snapshot of npcID, or ErrNotFound.
	Latest(ctx context.Context, npcID string) (Record, error)
	// History returns up to limit snapshots, newest first. limit <= 0 means all.
	History(ctx context.Context, npcID string, limit int) ([]Record, error)
	// Prune deletes all but the newest keep snapshots and returns how many went.
	// keep <= 0 keeps everything.
	Prune(ctx context.Context, npcID string, keep int) (int, error)
}

type Meta struct {
	ID        string    `json:"id"`
	NPCID     string    `json:"npcId"`
	CreatedAt time.Time `json:"createdAt"`
	Size      int       `json:"size"`
	Checksum  string    `json:"checksum"` // hex blake2b-256 of the blob
}

type Record struct {
	Meta
	Blob []byte `json:"-"`
}

// Verify recomputes the blob checksum.
func (r Record) Verify() error {
	if got := Checksum(r.Blob); got != r.Checksum {
		return fmt.Errorf("%w: snapshot %s has %s, stored %s", ErrChecksumMismatch, r.ID, got, r.Checksum)
	}
	return nil
}

func Checksum(blob []byte) string {
	sum := blake2b.Sum256(blob)
	return hex.EncodeToString(sum[:])
}

func newRecord(npcID string, blob []byte) (Record, error) {
	if npcID == "" {
		return Record{}, fmt.Errorf("empty npc id")
	}
	if len(blob) == 0 {
		return Record{}, fmt.Errorf("empty snapshot for %s", npcID)
	}
	return Record{
		Meta: Meta{
			ID:        uuid.NewString(),
			NPCID:     npcID,
			CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
			Size:      len(blob),
			Checksum:  Checksum(blob),
		},
		Blob: append([]byte(nil), blob...),
	}, nil
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, 3*time.Second)
}
