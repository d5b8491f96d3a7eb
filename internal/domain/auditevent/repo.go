package auditevent

import (
	"context"

	"github.com/clinicore/clinicore/internal/platform/audit"
)

type Repository interface {
	Insert(ctx context.Context, e *audit.Event) error
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*audit.Event, int, error)
}
