package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pomodoro/timerd/internal/model"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns ErrNotFound when the user never saved settings.
func (r *SettingsRepository) Get(ctx context.Context, userID string) (*model.UserSettings, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT user_id, focus_minutes, short_break_minutes, long_break_minutes,
		        cycle_length, sound_enabled, vibration_enabled, updated_at
		 FROM user_settings
		 WHERE user_id = ?`,
		userID,
	)

	var settings model.UserSettings
	var updatedAt string
	err := row.Scan(
		&settings.UserID,
		&settings.FocusMinutes,
		&settings.ShortBreakMinutes,
		&settings.LongBreakMinutes,
		&settings.CycleLength,
		&settings.SoundEnabled,
		&settings.VibrationEnabled,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}

	if settings.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse settings updated_at: %w", err)
	}
	return &settings, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, settings *model.UserSettings) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO user_settings (
			user_id, focus_minutes, short_break_minutes, long_break_minutes,
			cycle_length, sound_enabled, vibration_enabled, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			focus_minutes = excluded.focus_minutes,
			short_break_minutes = excluded.short_break_minutes,
			long_break_minutes = excluded.long_break_minutes,
			cycle_length = excluded.cycle_length,
			sound_enabled = excluded.sound_enabled,
			vibration_enabled = excluded.vibration_enabled,
			updated_at = excluded.updated_at`,
		settings.UserID,
		settings.FocusMinutes,
		settings.ShortBreakMinutes,
		settings.LongBreakMinutes,
		settings.CycleLength,
		settings.SoundEnabled,
		settings.VibrationEnabled,
		formatTime(settings.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
