package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	googleauth "docchat-backend/internal/auth"
	"docchat-backend/internal/backend"
	"docchat-backend/internal/mappings"
	"docchat-backend/internal/session"
	"docchat-backend/internal/shared/config"
	"docchat-backend/internal/shared/server"
	"docchat-backend/internal/shared/storage/db"
	"docchat-backend/internal/shared/storage/object"
	localstore "docchat-backend/internal/shared/storage/object/local"
	s3store "docchat-backend/internal/shared/storage/object/s3"
	"docchat-backend/internal/transcripts"
	"docchat-backend/internal/users"
)

// App holds the constructed dependency graph.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ObjectStore
	Redis           *redis.Client
	Backend         backend.Client
	MappingsRepo    mappings.Repo
	TranscriptsRepo transcripts.Repo
	UsersRepo       users.Repo
	Session         *session.Model
	SessionHandler  *session.Handler
	UsersService    *users.Service
	UsersHandler    *users.Handler
	GoogleAuth      *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rdb, err := buildRedis(cfg)
	if err != nil {
		return nil, err
	}

	backendClient, err := buildBackend(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Store:   store,
		Redis:   rdb,
		Backend: backendClient,
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         app.Config,
		SessionHandler: app.SessionHandler,
		UsersHandler:   app.UsersHandler,
		GoogleAuth:     app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir)
	}
}

func buildRedis(cfg config.Config) (*redis.Client, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func buildBackend(cfg config.Config) (backend.Client, error) {
	if strings.TrimSpace(cfg.BackendBaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: BACKEND_API_BASE_URL empty; using local extraction backend")
			return backend.NewLocalClient(), nil
		}
		return nil, fmt.Errorf("BACKEND_API_BASE_URL is required")
	}
	return backend.NewHTTPClient(cfg.BackendBaseURL)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) {
	var mappingsRepo mappings.Repo
	var transcriptsRepo transcripts.Repo
	var usersRepo users.Repo

	if app.DB != nil {
		mappingsRepo = &mappings.PGRepo{DB: app.DB}
		transcriptsRepo = &transcripts.PGRepo{DB: app.DB}
		usersRepo = &users.PGRepo{DB: app.DB}
	} else {
		mappingsRepo = mappings.NewMemoryRepo()
		transcriptsRepo = transcripts.NewMemoryRepo()
		usersRepo = users.NewMemoryRepo()
	}

	if app.Redis != nil {
		transcriptsRepo = transcripts.NewCachedRepo(transcriptsRepo, app.Redis)
	}

	sessionModel := session.New(session.Deps{
		Store:        app.Store,
		Mappings:     mappingsRepo,
		Transcripts:  transcriptsRepo,
		Backend:      app.Backend,
		SignedURLTTL: app.Config.SignedURLTTL,
	})

	userSvc := users.NewService(usersRepo)
	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	app.MappingsRepo = mappingsRepo
	app.TranscriptsRepo = transcriptsRepo
	app.UsersRepo = usersRepo
	app.Session = sessionModel
	app.SessionHandler = session.NewHandler(sessionModel)
	app.UsersService = userSvc
	app.UsersHandler = users.NewHandler(userSvc)
	app.GoogleAuth = googleAuthSvc
}
