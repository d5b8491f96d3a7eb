package invite

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("invite not found")
	ErrAlreadyAccepted = errors.New("invite already accepted")
)

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

const inviteCols = `id, tenant_id, email, role_name, token, created_by, created_at, expires_at, accepted_at`

func scanInvite(row pgx.Row) (*Invite, error) {
	var i Invite
	err := row.Scan(&i.ID, &i.TenantID, &i.Email, &i.RoleName, &i.Token,
		&i.CreatedBy, &i.CreatedAt, &i.ExpiresAt, &i.AcceptedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}

func (r *RepoPG) Create(ctx context.Context, i *Invite) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO invites (`+inviteCols+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		i.ID, i.TenantID, i.Email, i.RoleName, i.Token,
		i.CreatedBy, i.CreatedAt, i.ExpiresAt, i.AcceptedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invite: %w", err)
	}
	return nil
}

func (r *RepoPG) GetByToken(ctx context.Context, token string) (*Invite, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+inviteCols+` FROM invites WHERE token = $1`, token)
	return scanInvite(row)
}

// MarkAccepted claims the invite with a conditional update so two concurrent
// redeems of the same token cannot both succeed.
func (r *RepoPG) MarkAccepted(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invites SET accepted_at = now() WHERE id = $1 AND accepted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("accept invite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyAccepted
	}
	return nil
}

func (r *RepoPG) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*Invite, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM invites WHERE tenant_id = $1`, tenantID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+inviteCols+` FROM invites WHERE tenant_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		tenantID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var invites []*Invite
	for rows.Next() {
		i, err := scanInvite(rows)
		if err != nil {
			return nil, 0, err
		}
		invites = append(invites, i)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return invites, total, nil
}
