package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/skillpath/core/internal/config"
	"github.com/skillpath/core/internal/database"
	"github.com/skillpath/core/internal/middleware"
	"github.com/skillpath/core/internal/modules/course"
	"github.com/skillpath/core/internal/modules/embedding"
	"github.com/skillpath/core/internal/modules/knowledge"
	"github.com/skillpath/core/internal/modules/matcher"
	pkgredis "github.com/skillpath/core/internal/pkg/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	rc     *pkgredis.Client
	logger *zap.Logger
}

// New initializes the application: catalog → DB → Redis → AI → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	snap, err := knowledge.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("knowledge base: %w", err)
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.Redis.URLValue())
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	// Semantic scoring is optional: without an embedding provider the
	// matcher runs on lexical overlap alone.
	var index matcher.SemanticIndex
	if provider := cfg.AI.Provider(cfg.AI.EmbeddingProvider); provider != nil {
		embedder, err := embedding.NewOpenAIEmbedder(provider, cfg.AI.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("embedder: %w", err)
		}
		index = embedding.NewIndex(embedder, snap, logger)
	} else {
		logger.Warn("no embedding provider configured, semantic scoring disabled")
	}

	skillMatcher, err := matcher.New(snap, index, matcher.Weights{
		Semantic: cfg.Matcher.SemanticWeight,
		Lexical:  cfg.Matcher.LexicalWeight,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("matcher: %w", err)
	}

	contentProvider, err := course.NewModelProvider(cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("content provider: %w", err)
	}
	orchestrator := course.NewOrchestrator(
		snap,
		contentProvider,
		course.NewGormStore(db, cfg.Course.CacheTTLSeconds),
		course.NewWebFinder(cfg.Resources, rc, logger),
		cfg.Course,
		logger,
	)

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(buildCORSConfig(cfg)))

	app := &App{cfg: cfg, router: router, db: db, rc: rc, logger: logger}
	app.registerRoutes(snap, skillMatcher, orchestrator)

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown releases held connections.
func (a *App) Shutdown(_ context.Context) {
	if err := a.rc.Close(); err != nil {
		a.logger.Warn("redis close failed", zap.Error(err))
	}
}

func buildCORSConfig(cfg *config.AppConfig) cors.Config {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		corsConfig.AllowOriginFunc = func(origin string) bool {
			return originAllowed(patterns, origin)
		}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	return corsConfig
}
