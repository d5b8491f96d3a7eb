package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("transcript not found")

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) Create(ctx context.Context, t *Transcript) error {
	segs, err := json.Marshal(t.Segments)
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO transcripts (id, tenant_id, interaction_id, segments, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.TenantID, t.InteractionID, segs, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transcript: %w", err)
	}
	return nil
}

func (r *RepoPG) GetByInteraction(ctx context.Context, interactionID uuid.UUID) (*Transcript, error) {
	var t Transcript
	var segs []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, interaction_id, segments, created_at, updated_at
		 FROM transcripts WHERE interaction_id = $1`,
		interactionID,
	).Scan(&t.ID, &t.TenantID, &t.InteractionID, &segs, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(segs, &t.Segments); err != nil {
		return nil, fmt.Errorf("unmarshal segments: %w", err)
	}
	return &t, nil
}

// AppendSegment pushes one segment onto the JSONB array in place. The
// append happens in the database, so concurrent writers never lose segments
// to a read-modify-write race.
func (r *RepoPG) AppendSegment(ctx context.Context, transcriptID uuid.UUID, seg Segment) error {
	data, err := json.Marshal(seg)
	if err != nil {
		return fmt.Errorf("marshal segment: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE transcripts
		 SET segments = segments || $2::jsonb, updated_at = now()
		 WHERE id = $1`,
		transcriptID, data,
	)
	if err != nil {
		return fmt.Errorf("append segment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
