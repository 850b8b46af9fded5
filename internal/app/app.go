package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/yungbote/pressroom-backend/internal/data/db"
	"github.com/yungbote/pressroom-backend/internal/platform/logger"
	"github.com/yungbote/pressroom-backend/internal/temporalx"
	"github.com/yungbote/pressroom-backend/internal/temporalx/pipeline"
)

type App struct {
	Log        *logger.Logger
	DB         *gorm.DB
	Router     *gin.Engine
	Cfg        Config
	Temporal   temporalsdkclient.Client
	Clients    Clients
	Activities *pipeline.Activities
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	RequireEnv(log, "OPENAI_API_KEY")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	clients, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	tc, err := temporalx.NewClient(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init temporal: %w", err)
	}

	acts := wireActivities(theDB, log, clients)

	tcfg := temporalx.LoadConfig()
	handler := NewPipelineHandler(log, tc, tcfg.TaskQueue)
	router := wireRouter(handler)

	return &App{
		Log:        log,
		DB:         theDB,
		Router:     router,
		Cfg:        cfg,
		Temporal:   tc,
		Clients:    clients,
		Activities: acts,
	}, nil
}

// EnsureSchedules registers the cron monitors. Safe to call on every boot.
func (a *App) EnsureSchedules(ctx context.Context) error {
	tcfg := temporalx.LoadConfig()
	return EnsureMonitorSchedules(ctx, a.Log, a.Temporal, tcfg.TaskQueue, a.Cfg)
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Temporal != nil {
		a.Temporal.Close()
	}
	if a.Clients.Progress != nil {
		_ = a.Clients.Progress.Close()
	}
	if a.Clients.Graph != nil && a.Clients.Graph.Driver != nil {
		_ = a.Clients.Graph.Driver.Close(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
