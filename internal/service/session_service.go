package service

import (
	"context"

	"github.com/sirupsen/logrus"

	apperrors "pomodoro/timerd/internal/errors"
	"pomodoro/timerd/internal/model"
	"pomodoro/timerd/internal/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SessionService stores the records timers produce and serves them back.
type SessionService struct {
	repo   *repository.SessionRepository
	logger logrus.FieldLogger
}

func NewSessionService(repo *repository.SessionRepository, logger logrus.FieldLogger) *SessionService {
	return &SessionService{repo: repo, logger: logger.WithField("component", "sessions")}
}

func (s *SessionService) SaveSession(ctx context.Context, record model.SessionRecord) error {
	if err := s.repo.Insert(ctx, &record); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"user_id":   record.UserID,
		"kind":      record.Kind,
		"completed": record.Completed,
	}).Debug("session recorded")
	return nil
}

// History returns the newest records first. A non-positive limit means the
// default and larger limits are capped.
func (s *SessionService) History(ctx context.Context, userID string, limit int) ([]model.SessionRecord, *apperrors.APIError) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	records, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("list sessions")
		return nil, apperrors.Internal("failed to get history").WithCause(err)
	}
	return records, nil
}
