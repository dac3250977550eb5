package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/coverletters"
	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/llm/aiservice"
	openai "coverletter-backend/internal/llm/openai"
	"coverletter-backend/internal/queue"
	"coverletter-backend/internal/render"
	"coverletter-backend/internal/shared/auth"
	"coverletter-backend/internal/shared/config"
	"coverletter-backend/internal/shared/resilience"
	"coverletter-backend/internal/shared/server"
	"coverletter-backend/internal/shared/storage/db"
	"coverletter-backend/internal/shared/storage/object"
	localstore "coverletter-backend/internal/shared/storage/object/local"
	s3store "coverletter-backend/internal/shared/storage/object/s3"
	"coverletter-backend/internal/shared/telemetry"
)

const llmTransportSlack = 5 * time.Second

// App holds shared dependencies.
type App struct {
	Config              config.Config
	Router              *gin.Engine
	DB                  *sql.DB
	Store               object.ObjectStore
	Queue               queue.Client
	Renderer            *render.Renderer
	LLM                 llm.Client
	Verifier            *auth.Verifier
	CoverLettersRepo    coverletters.Repo
	CoverLettersService *coverletters.Service
	Orchestrator        *coverletters.Orchestrator
	Exporter            *coverletters.Exporter
	CoverLettersHandler *coverletters.Handler
}

// Build prepares every dependency and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	telemetry.SetLevel(cfg.LogLevel)

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	renderer, err := render.NewRenderer(cfg.RenderFontPath, cfg.DOCXFontFamily)
	if err != nil {
		return nil, fmt.Errorf("load render font: %w", err)
	}

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		if !errors.Is(err, auth.ErrMissingSecret) {
			return nil, err
		}
		telemetry.Warn("bootstrap.jwt_disabled", map[string]any{"env": cfg.Env})
		verifier = nil
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Store:    store,
		Queue:    queueClient,
		Renderer: renderer,
		LLM:      llmClient,
		Verifier: verifier,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:       cfg,
		DB:           sqlDB,
		Store:        store,
		Verifier:     verifier,
		CoverLetters: app.CoverLettersHandler,

		AsyncGeneration: app.Queue != nil,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "connect failed", "error": err})
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
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, s3store.Config{
			Region:   cfg.AWSRegion,
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			KMSKeyID: cfg.SSEKMSKeyID,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.SQSQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
	case "placeholder":
		return llm.PlaceholderClient{}, nil
	default:
		// The transport timeout sits above the generation timeout so the
		// orchestrator's deadline is the one that fires.
		return aiservice.NewClient(cfg.AIBaseURL, &http.Client{Timeout: cfg.GenerationTimeout + llmTransportSlack})
	}
}

func buildServices(app *App) {
	var repo coverletters.Repo
	if app.DB != nil {
		repo = &coverletters.PGRepo{DB: app.DB}
	} else {
		repo = coverletters.NewMemoryRepo()
	}

	previews := &coverletters.ObjectPreviews{
		Store:    app.Store,
		Renderer: app.Renderer,
		BaseURL:  app.Config.PreviewBaseURL,
	}
	breakerCfg := resilience.DefaultConfig()
	breakerCfg.Enabled = app.Config.BreakerEnabled

	svc := &coverletters.Service{Repo: repo, Previews: previews}
	orch := &coverletters.Orchestrator{
		Repo:     repo,
		LLM:      app.LLM,
		Breaker:  resilience.NewExecutor(breakerCfg),
		Previews: previews,
		Timeout:  app.Config.GenerationTimeout,
	}
	exporter := &coverletters.Exporter{Repo: repo, Renderer: app.Renderer}

	app.CoverLettersRepo = repo
	app.CoverLettersService = svc
	app.Orchestrator = orch
	app.Exporter = exporter
	app.CoverLettersHandler = coverletters.NewHandler(svc, orch, exporter, app.Queue)
}
