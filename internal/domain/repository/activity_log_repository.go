package repository

import (
	"context"

	"github.com/khoaugment/pos-api/internal/domain/entity"
)

// ActivityLogRepository puerto del registro de actividad.
type ActivityLogRepository interface {
	Create(ctx context.Context, log *entity.ActivityLog) error
	ListByAction(ctx context.Context, action string, limit int) ([]*entity.ActivityLog, error)
}
