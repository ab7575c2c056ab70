package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/FREDSAYS-dev/Thesis/matrix"
)

// Encoder is anything that serialises to the matrix binary format.
type Encoder interface {
	Encode() []byte
}

// LoadMatrix restores the newest snapshot of npcID that passes its checksum
// and decodes cleanly. Older snapshots are tried in turn; ErrNotFound is
// returned when none is usable.
func LoadMatrix(ctx context.Context, s Store, npcID string, cfg matrix.Config) (*matrix.Matrix, Meta, error) {
	return loadMatrix(ctx, s, npcID, cfg, nil)
}

func loadMatrix(ctx context.Context, s Store, npcID string, cfg matrix.Config, onSkip func(Record, error)) (*matrix.Matrix, Meta, error) {
	recs, err := s.History(ctx, npcID, 0)
	if err != nil {
		return nil, Meta{}, err
	}
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return nil, Meta{}, err
		}
		if err := rec.Verify(); err != nil {
			if onSkip != nil {
				onSkip(rec, err)
			}
			continue
		}
		m, err := matrix.Decode(rec.Blob, cfg)
		if err != nil {
			if onSkip != nil {
				onSkip(rec, err)
			}
			continue
		}
		return m, rec.Meta, nil
	}
	if len(recs) == 0 {
		return nil, Meta{}, ErrNotFound
	}
	return nil, Meta{}, fmt.Errorf("%w: all %d snapshots of %s are unusable", ErrNotFound, len(recs), npcID)
}

// Checkpointer saves and restores NPC matrices with retention.
type Checkpointer struct {
	store  Store
	keep   int
	logger zerolog.Logger
}

func NewCheckpointer(s Store, keep int, logger zerolog.Logger) *Checkpointer {
	return &Checkpointer{
		store:  s,
		keep:   keep,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

func (c *Checkpointer) Store() Store { return c.store }

// Checkpoint stores table under npcID and prunes old snapshots.
func (c *Checkpointer) Checkpoint(ctx context.Context, npcID string, table Encoder) (Meta, error) {
	meta, err := c.store.Save(ctx, npcID, table.Encode())
	if err != nil {
		return Meta{}, err
	}
	pruned, err := c.store.Prune(ctx, npcID, c.keep)
	if err != nil {
		c.logger.Warn().Err(err).Str("npc", npcID).Msg("prune failed")
	}
	c.logger.Info().
		Str("npc", npcID).
		Str("snapshot", meta.ID).
		Int("bytes", meta.Size).
		Int("pruned", pruned).
		Msg("checkpoint saved")
	return meta, nil
}

// Restore is LoadMatrix with skipped snapshots logged.
func (c *Checkpointer) Restore(ctx context.Context, npcID string, cfg matrix.Config) (*matrix.Matrix, Meta, error) {
	m, meta, err := loadMatrix(ctx, c.store, npcID, cfg, func(rec Record, err error) {
		c.logger.Warn().Err(err).Str("npc", npcID).Str("snapshot", rec.ID).Msg("skipping unusable snapshot")
	})
	if err != nil {
		return nil, Meta{}, err
	}
	c.logger.Info().Str("npc", npcID).Str("snapshot", meta.ID).Int("entries", m.Len()).Msg("matrix restored")
	return m, meta, nil
}
