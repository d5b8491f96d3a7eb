package interaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("interaction not found")
	ErrAlreadyClosed = errors.New("interaction already closed")
)

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

const interactionCols = `id, tenant_id, doctor_id, status, started_at, ended_at`

func scanInteraction(row pgx.Row) (*Interaction, error) {
	var i Interaction
	err := row.Scan(&i.ID, &i.TenantID, &i.DoctorID, &i.Status, &i.StartedAt, &i.EndedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}

func (r *RepoPG) Create(ctx context.Context, i *Interaction) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO interactions (`+interactionCols+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		i.ID, i.TenantID, i.DoctorID, i.Status, i.StartedAt, i.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Interaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+interactionCols+` FROM interactions WHERE id = $1`, id)
	return scanInteraction(row)
}

func (r *RepoPG) FindActiveByDoctor(ctx context.Context, tenantID, doctorID uuid.UUID) (*Interaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+interactionCols+` FROM interactions
		 WHERE tenant_id = $1 AND doctor_id = $2 AND status = 'active'
		 ORDER BY started_at DESC LIMIT 1`,
		tenantID, doctorID)
	return scanInteraction(row)
}

// Close completes the interaction with a conditional update so a double
// close reports ErrAlreadyClosed instead of rewriting ended_at.
func (r *RepoPG) Close(ctx context.Context, id uuid.UUID) (*Interaction, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE interactions SET status = 'completed', ended_at = now()
		 WHERE id = $1 AND status = 'active'
		 RETURNING `+interactionCols,
		id)
	i, err := scanInteraction(row)
	if errors.Is(err, ErrNotFound) {
		// Row missing or already completed; let the caller tell them apart.
		if _, getErr := r.GetByID(ctx, id); getErr == nil {
			return nil, ErrAlreadyClosed
		}
		return nil, ErrNotFound
	}
	return i, err
}

func (r *RepoPG) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*Interaction, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM interactions WHERE tenant_id = $1`, tenantID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+interactionCols+` FROM interactions WHERE tenant_id = $1
		 ORDER BY started_at DESC LIMIT $2 OFFSET $3`,
		tenantID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []*Interaction
	for rows.Next() {
		i, err := scanInteraction(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, i)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
