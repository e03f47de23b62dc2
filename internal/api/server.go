package api

import (
	"ats-analyzer/internal/config"
	"ats-analyzer/internal/database"
	"ats-analyzer/internal/models"
	"ats-analyzer/internal/pipeline"
	"ats-analyzer/internal/storage"
	"ats-analyzer/internal/websocket"
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/go-playground/validator"
)

type Store interface {
	Ping(ctx context.Context) error
	CreateUser(ctx context.Context, arg database.CreateUserParams) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListAnalysesByOwner(ctx context.Context, ownerID string, limit int, offset int) ([]models.AnalysisRecord, int, error)
	GetAnalysisForOwner(ctx context.Context, id string, ownerID string) (*models.AnalysisRecord, error)
	DeleteAnalysisForOwner(ctx context.Context, id string, ownerID string) (*string, error)
	GetDashboardStats(ctx context.Context, ownerID string) (*models.DashboardStats, error)
}

type FileStore interface {
	Open(relPath string) (io.ReadCloser, error)
	Delete(relPath string) error
}

type Pipeline interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

type StatsCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Generation(ctx context.Context, key string) (int64, error)
	Bump(ctx context.Context, key string) error
}

type Server struct {
	config   *config.Config
	log      *slog.Logger
	store    Store
	files    FileStore
	stager   *storage.Stager
	pipeline Pipeline
	events   *Events
	wsHub    *websocket.Hub
	validate *validator.Validate
}

func NewServer(cfg *config.Config, log *slog.Logger, store Store, files FileStore, stager *storage.Stager, p Pipeline, events *Events, wsHub *websocket.Hub) *Server {
	return &Server{
		config:   cfg,
		log:      log,
		store:    store,
		files:    files,
		stager:   stager,
		pipeline: p,
		events:   events,
		wsHub:    wsHub,
		validate: validator.New(),
	}
}
