package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomodoro/timerd/internal/handler"
	"pomodoro/timerd/internal/middleware"
	"pomodoro/timerd/internal/service"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Timer    *handler.TimerHandler
	Stream   *handler.StreamHandler
	Settings *handler.SettingsHandler
	Stats    *handler.StatsHandler
}

func New(authService *service.AuthService, handlers Handlers, origins middleware.OriginPolicy) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(origins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", handlers.Auth.Register)
	auth.POST("/login", handlers.Auth.Login)

	authenticated := api.Group("")
	authenticated.Use(middleware.Auth(authService))
	authenticated.GET("/auth/me", handlers.Auth.Me)

	timer := authenticated.Group("/timer")
	timer.GET("/state", handlers.Timer.GetState)
	timer.POST("/start", handlers.Timer.Start)
	timer.POST("/pause", handlers.Timer.Pause)
	timer.POST("/resume", handlers.Timer.Resume)
	timer.POST("/stop", handlers.Timer.Stop)
	timer.POST("/skip", handlers.Timer.Skip)
	timer.POST("/kind", handlers.Timer.ChangeKind)
	timer.GET("/history", handlers.Timer.GetHistory)
	timer.GET("/stream", handlers.Stream.Stream)

	authenticated.GET("/settings", handlers.Settings.Get)
	authenticated.PUT("/settings", handlers.Settings.Update)

	stats := authenticated.Group("/stats")
	stats.GET("/daily", handlers.Stats.Daily)
	stats.GET("/weekly", handlers.Stats.Weekly)
	stats.GET("/today", handlers.Stats.Today)
	stats.GET("/all-time", handlers.Stats.AllTime)

	return engine
}
