package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("summary not found")
	ErrAlreadyReviewed = errors.New("summary already reviewed")
)

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

const summaryCols = `id, tenant_id, interaction_id, doctor_id, note, confidence_score,
	model_version, prompt_version, status, reviewed_by, reviewed_at, final_version,
	rejection_reason, created_at`

func scanSummary(row pgx.Row) (*Summary, error) {
	var s Summary
	var note, final []byte
	var reason *string
	err := row.Scan(&s.ID, &s.TenantID, &s.InteractionID, &s.DoctorID, &note, &s.Confidence,
		&s.ModelVersion, &s.PromptVersion, &s.Status, &s.ReviewedBy, &s.ReviewedAt, &final,
		&reason, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(note, &s.Note); err != nil {
		return nil, fmt.Errorf("unmarshal note: %w", err)
	}
	if final != nil {
		s.FinalVersion = &StructuredNote{}
		if err := json.Unmarshal(final, s.FinalVersion); err != nil {
			return nil, fmt.Errorf("unmarshal final version: %w", err)
		}
	}
	if reason != nil {
		s.RejectionReason = *reason
	}
	return &s, nil
}

func (r *RepoPG) Create(ctx context.Context, s *Summary) error {
	note, err := json.Marshal(s.Note)
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO ai_summaries (id, tenant_id, interaction_id, doctor_id, note,
		 confidence_score, model_version, prompt_version, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.TenantID, s.InteractionID, s.DoctorID, note,
		s.Confidence, s.ModelVersion, s.PromptVersion, s.Status, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Summary, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+summaryCols+` FROM ai_summaries WHERE id = $1`, id)
	return scanSummary(row)
}

func (r *RepoPG) GetByInteraction(ctx context.Context, interactionID uuid.UUID) (*Summary, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+summaryCols+` FROM ai_summaries WHERE interaction_id = $1
		 ORDER BY created_at DESC LIMIT 1`,
		interactionID)
	return scanSummary(row)
}

// Approve finalizes a pending summary. The status predicate makes review a
// one-shot transition; a second reviewer gets ErrAlreadyReviewed.
func (r *RepoPG) Approve(ctx context.Context, id, reviewedBy uuid.UUID, reviewedAt time.Time, final *StructuredNote) error {
	data, err := json.Marshal(final)
	if err != nil {
		return fmt.Errorf("marshal final version: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE ai_summaries
		 SET status = 'approved', reviewed_by = $2, reviewed_at = $3, final_version = $4
		 WHERE id = $1 AND status = 'pending'`,
		id, reviewedBy, reviewedAt, data,
	)
	if err != nil {
		return fmt.Errorf("approve summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyReviewed
	}
	return nil
}

func (r *RepoPG) Reject(ctx context.Context, id, reviewedBy uuid.UUID, reviewedAt time.Time, reason string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE ai_summaries
		 SET status = 'rejected', reviewed_by = $2, reviewed_at = $3, rejection_reason = $4
		 WHERE id = $1 AND status = 'pending'`,
		id, reviewedBy, reviewedAt, reason,
	)
	if err != nil {
		return fmt.Errorf("reject summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyReviewed
	}
	return nil
}
