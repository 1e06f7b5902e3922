package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	googleauth "docassist-web/internal/auth"
	"docassist-web/internal/backend"
	"docassist-web/internal/chat"
	"docassist-web/internal/detail"
	"docassist-web/internal/extract"
	"docassist-web/internal/generated"
	"docassist-web/internal/live"
	"docassist-web/internal/services/health"
	"docassist-web/internal/shared/config"
	"docassist-web/internal/shared/server"
	"docassist-web/internal/shared/storage/cache"
	"docassist-web/internal/shared/storage/db"
	"docassist-web/internal/shared/storage/object"
	localstore "docassist-web/internal/shared/storage/object/local"
	miniostore "docassist-web/internal/shared/storage/object/minio"
	s3store "docassist-web/internal/shared/storage/object/s3"
	"docassist-web/internal/users"
)

const redisPrefix = "docassist:"

// App holds shared dependencies and the wired router.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Store    object.ObjectStore
	Redis    *cache.Redis
	Backend  *backend.Client
	Hub      *live.Hub
	Views    *detail.Registry
	Health   *health.Service
	ChatRepo chat.Repo

	UsersService     *users.Service
	GeneratedService *generated.Service
	DetailHandler    *detail.Handler
	GeneratedHandler *generated.Handler
	UsersHandler     *users.Handler
	GoogleAuth       *googleauth.GoogleService
}

// Build prepares shared dependencies and wires routes. The hub and the view
// registry live until ctx is done or Close is called.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		closeDB(sqlDB)
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Store:   store,
		Backend: backend.New(cfg.BackendOrigin, cfg.BackendAPIBase, cfg.BackendTimeout),
		Health:  health.NewService(),
	}

	docs, err := app.buildDocuments(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	if err := app.buildServices(ctx, docs); err != nil {
		app.Close()
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		DetailHandler:    app.DetailHandler,
		GeneratedHandler: app.GeneratedHandler,
		UserHandler:      app.UsersHandler,
		GoogleAuth:       app.GoogleAuth,
		Health:           app.Health,
	})

	return app, nil
}

// Close releases the registry, hub and connections.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Views != nil {
		a.Views.Close()
	}
	if a.Hub != nil {
		a.Hub.Stop()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Printf("bootstrap: close redis: %v", err)
		}
	}
	closeDB(a.DB)
}

func closeDB(sqlDB *sql.DB) {
	if sqlDB == nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("bootstrap: close database: %v", err)
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			sqlDB.Close()
			err = fmt.Errorf("run migrations: %w", err)
		}
	}
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: database unavailable; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		if strings.TrimSpace(cfg.MinioEndpoint) == "" {
			return nil, errors.New("OBJECT_STORE=minio requires MINIO_ENDPOINT")
		}
		return miniostore.New(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.S3Prefix, cfg.MinioUseSSL)
	default:
		log.Printf("bootstrap: using local object store at %s", cfg.LocalStoreDir)
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildDocuments wraps the backend document reads with the in-process cache,
// layered over redis when REDIS_URL is set.
func (a *App) buildDocuments(ctx context.Context) (*backend.CachedDocuments, error) {
	ttl := a.Config.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	var store cache.Store = cache.NewMemory(ttl, time.Minute)

	if strings.TrimSpace(a.Config.RedisURL) != "" {
		rdb, err := cache.NewRedis(ctx, a.Config.RedisURL, redisPrefix)
		switch {
		case err == nil:
			a.Redis = rdb
			store = &cache.Layered{L1: store, L2: rdb}
			a.Health.Register("redis", rdb.Ping)
		case config.IsDevLike(a.Config.Env):
			log.Printf("bootstrap: redis unavailable; using in-process cache only: %v", err)
		default:
			return nil, err
		}
	}

	return backend.NewCachedDocuments(a.Backend, cache.NewTyped[backend.Document](store, ttl)), nil
}

func (a *App) buildServices(ctx context.Context, docs *backend.CachedDocuments) error {
	var userRepo users.Repo
	var chatRepo chat.Repo
	var generatedRepo generated.Repo

	if a.DB != nil {
		userRepo = &users.PGRepo{DB: a.DB}
		chatRepo = &chat.PGRepo{DB: a.DB}
		generatedRepo = &generated.PGRepo{DB: a.DB}
		a.Health.Register("db", a.DB.PingContext)
	} else {
		userRepo = users.NewMemoryRepo()
		chatRepo = chat.NewMemoryRepo()
		generatedRepo = generated.NewMemoryRepo()
	}

	a.ChatRepo = chatRepo
	a.UsersService = users.NewService(userRepo)
	a.GeneratedService = &generated.Service{Repo: generatedRepo, Store: a.Store}

	a.Hub = live.NewHub(ctx, originChecker(a.Config.CORSAllowOrigin))

	deps := detail.Deps{
		Documents: docs,
		Analyzer:  a.Backend,
		Generator: a.Backend,
		Chat:      a.Backend,
		ChatRepo:  chatRepo,
		Cache:     docs,
	}
	factory := detail.PublishingFactory(deps, a.Hub, detail.WithAnimation(a.Config.ProgressTick))
	a.Views = detail.NewRegistry(factory, a.Config.ViewIdleTimeout)

	detailHandler, err := detail.NewHandler(a.Views)
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	detailHandler.Live = a.Hub
	detailHandler.Profiles = a.UsersService
	detailHandler.Archive = a.GeneratedService
	detailHandler.Extract = extract.ExtractTextFromBytes

	a.DetailHandler = detailHandler
	a.GeneratedHandler = generated.NewHandler(a.GeneratedService)
	a.UsersHandler = users.NewHandler(a.UsersService)
	a.GoogleAuth = googleauth.NewGoogleService(
		a.Config.GoogleClientID,
		a.Config.GoogleClientSecret,
		a.Config.GoogleRedirectURL,
		a.Config.UIRedirectURL,
		a.UsersService,
		a.Config.Env,
	)
	return nil
}

// originChecker accepts same-host websocket upgrades and the configured CORS origins.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		if _, ok := set[strings.TrimRight(origin, "/")]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
