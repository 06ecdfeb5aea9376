package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
)

type roomLogRepository struct {
	db *sql.DB
}

func NewRoomLogRepository(db *sql.DB) RoomLogRepository {
	return &roomLogRepository{db: db}
}

func (r *roomLogRepository) Create(ctx context.Context, log *entity.RoomLog) error {
	query := `
		INSERT INTO room_logs (room_id, event_type, extra_context, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		log.RoomID, log.EventType, log.ExtraContext, now,
	).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("failed to create room log: %v", err)
	}

	log.CreatedAt = now
	return nil
}

func (r *roomLogRepository) GetByRoomID(ctx context.Context, roomID int64, limit int) ([]*entity.RoomLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, room_id, event_type, extra_context, created_at
		FROM room_logs
		WHERE room_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query room logs: %v", err)
	}
	defer rows.Close()

	var logs []*entity.RoomLog
	for rows.Next() {
		var log entity.RoomLog
		err := rows.Scan(
			&log.ID,
			&log.RoomID,
			&log.EventType,
			&log.ExtraContext,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room log: %v", err)
		}
		logs = append(logs, &log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating room logs: %v", err)
	}

	return logs, nil
}
