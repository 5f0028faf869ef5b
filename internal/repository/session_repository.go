package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pomodoro/timerd/internal/model"
)

const sessionColumns = `id, user_id, kind, planned_minutes, completed, started_at, ended_at, created_at`

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Insert(ctx context.Context, record *model.SessionRecord) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO focus_sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.UserID,
		record.Kind,
		record.PlannedMinutes,
		record.Completed,
		formatTime(record.StartedAt),
		formatTime(record.EndedAt),
		formatTime(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// ListByUser returns the newest records first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.SessionRecord, error) {
	return r.query(
		ctx,
		"list sessions",
		`SELECT `+sessionColumns+`
		 FROM focus_sessions
		 WHERE user_id = ?
		 ORDER BY started_at DESC
		 LIMIT ?`,
		userID,
		limit,
	)
}

// ListStartedBetween returns records whose start time falls in [from, to),
// oldest first.
func (r *SessionRepository) ListStartedBetween(ctx context.Context, userID string, from, to time.Time) ([]model.SessionRecord, error) {
	return r.query(
		ctx,
		"list sessions between",
		`SELECT `+sessionColumns+`
		 FROM focus_sessions
		 WHERE user_id = ? AND started_at >= ? AND started_at < ?
		 ORDER BY started_at ASC`,
		userID,
		formatTime(from),
		formatTime(to),
	)
}

func (r *SessionRepository) ListAll(ctx context.Context, userID string) ([]model.SessionRecord, error) {
	return r.query(
		ctx,
		"list all sessions",
		`SELECT `+sessionColumns+`
		 FROM focus_sessions
		 WHERE user_id = ?
		 ORDER BY started_at ASC`,
		userID,
	)
}

func (r *SessionRepository) query(ctx context.Context, op, query string, args ...interface{}) ([]model.SessionRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	records := make([]model.SessionRecord, 0)
	for rows.Next() {
		record, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return records, nil
}

func scanSession(s scanner) (*model.SessionRecord, error) {
	record := model.SessionRecord{}
	var startedAt string
	var endedAt string
	var createdAt string
	err := s.Scan(
		&record.ID,
		&record.UserID,
		&record.Kind,
		&record.PlannedMinutes,
		&record.Completed,
		&startedAt,
		&endedAt,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if record.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse session started_at: %w", err)
	}
	if record.EndedAt, err = parseTime(endedAt); err != nil {
		return nil, fmt.Errorf("parse session ended_at: %w", err)
	}
	if record.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	return &record, nil
}
