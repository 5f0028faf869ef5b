package main

import (
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"pomodoro/timerd/internal/config"
	"pomodoro/timerd/internal/db"
	"pomodoro/timerd/internal/logger"
	"pomodoro/timerd/internal/repository"
	"pomodoro/timerd/internal/service"
	"pomodoro/timerd/internal/timer"
)

// app holds the wired services shared by the subcommands.
type app struct {
	cfg      config.Config
	logger   *logrus.Logger
	db       *sql.DB
	auth     *service.AuthService
	settings *service.SettingsService
	sessions *service.SessionService
	registry *timer.Registry
	timers   *service.TimerService
	stats    *service.StatsService
}

func openApp(cfg config.Config) (*app, error) {
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	location, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	weekStart, err := service.ParseWeekday(cfg.WeekStart)
	if err != nil {
		return nil, err
	}
	rule, err := timer.RuleByName(cfg.LongBreakRule)
	if err != nil {
		return nil, err
	}
	defaults, err := config.LoadDefaults(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	applied, err := db.RunMigrations(database, cfg.MigrationsDir)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	for _, name := range applied {
		log.WithField("migration", name).Info("migration applied")
	}

	userRepo := repository.NewUserRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)

	a := &app{cfg: cfg, logger: log, db: database}
	a.auth = service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, log)
	a.settings = service.NewSettingsService(settingsRepo, defaults, log)
	a.sessions = service.NewSessionService(sessionRepo, log)
	a.registry = timer.NewRegistry(a.settings, a.sessions, timer.Options{
		AutoAdvanceDelay: cfg.AutoAdvance,
		Rule:             rule,
		Logger:           log,
	})
	a.timers = service.NewTimerService(a.registry, a.settings, log)
	a.stats = service.NewStatsService(sessionRepo, location, weekStart, log, service.WithCycleReader(a.timers))
	return a, nil
}

// close tears the timers down before the database so pending session writes
// can still land.
func (a *app) close() {
	a.registry.Close()
	a.settings.Close()
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Warn("close database")
	}
}
