package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("tenant not found")

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

const tenantCols = `id, name, active, created_at`

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Active, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *RepoPG) Create(ctx context.Context, t *Tenant) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tenants (`+tenantCols+`) VALUES ($1, $2, $3, $4)`,
		t.ID, t.Name, t.Active, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+tenantCols+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

func (r *RepoPG) GetByName(ctx context.Context, name string) (*Tenant, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+tenantCols+` FROM tenants WHERE name = $1`, name)
	return scanTenant(row)
}

func (r *RepoPG) Update(ctx context.Context, t *Tenant) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenants SET name = $2, active = $3 WHERE id = $1`,
		t.ID, t.Name, t.Active,
	)
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
