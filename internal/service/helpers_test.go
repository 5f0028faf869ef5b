package service_test

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"pomodoro/timerd/internal/db"
	"pomodoro/timerd/internal/model"
	"pomodoro/timerd/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	_, err = db.RunMigrations(database, migrationsDir)
	require.NoError(t, err)
	return database
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func seedUser(t *testing.T, database *sql.DB, id string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, repository.NewUserRepository(database).Create(context.Background(), &model.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
}
