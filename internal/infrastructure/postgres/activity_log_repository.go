package postgres

import (
	"context"
	"fmt"

	"github.com/khoaugment/pos-api/internal/domain/entity"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

var _ repository.ActivityLogRepository = (*ActivityLogRepo)(nil)

// ActivityLogRepo registro de actividad sobre PostgreSQL (details en JSONB).
type ActivityLogRepo struct {
	q Querier
}

// NewActivityLogRepository construye el adaptador.
func NewActivityLogRepository(q Querier) *ActivityLogRepo {
	return &ActivityLogRepo{q: q}
}

func (r *ActivityLogRepo) Create(ctx context.Context, l *entity.ActivityLog) error {
	details := []byte(l.Details)
	if len(details) == 0 {
		details = []byte("{}")
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO activity_logs (action, entity_type, entity_id, details, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		l.Action, l.EntityType, l.EntityID, details, nullable(l.UserID),
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

func (r *ActivityLogRepo) ListByAction(ctx context.Context, action string, limit int) ([]*entity.ActivityLog, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, action, entity_type, entity_id, details, user_id, created_at
		FROM activity_logs WHERE action = $1 ORDER BY id DESC LIMIT $2`, action, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	defer rows.Close()
	var list []*entity.ActivityLog
	for rows.Next() {
		var (
			l       entity.ActivityLog
			details []byte
			userID  *string
		)
		if err := rows.Scan(&l.ID, &l.Action, &l.EntityType, &l.EntityID, &details, &userID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		l.Details = details
		l.UserID = deref(userID)
		list = append(list, &l)
	}
	return list, rows.Err()
}
