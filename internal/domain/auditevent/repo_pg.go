package auditevent

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/audit"
)

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

const eventCols = `id, occurred_at, request_id, actor_id, actor_type, tenant_id, action, source_ip, user_agent`

func scanEvent(row pgx.Row) (*audit.Event, error) {
	var e audit.Event
	var actorID, tenantID *string
	err := row.Scan(
		&e.ID, &e.Timestamp, &e.RequestID, &actorID, &e.ActorType,
		&tenantID, &e.Action, &e.SourceIP, &e.UserAgent,
	)
	if err != nil {
		return nil, err
	}
	if actorID != nil {
		e.ActorID = *actorID
	}
	if tenantID != nil {
		e.TenantID = *tenantID
	}
	return &e, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// Insert appends one event. Events are never updated or deleted; each write
// is a single independent statement with no cross-request coordination.
func (r *RepoPG) Insert(ctx context.Context, e *audit.Event) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_events (`+eventCols+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.Timestamp, e.RequestID, nullIfEmpty(e.ActorID), e.ActorType,
		nullIfEmpty(e.TenantID), e.Action, e.SourceIP, e.UserAgent,
	)
	return err
}

func (r *RepoPG) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*audit.Event, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_events WHERE tenant_id = $1`, tenantID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+eventCols+` FROM audit_events WHERE tenant_id = $1
		 ORDER BY occurred_at DESC LIMIT $2 OFFSET $3`,
		tenantID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []*audit.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
