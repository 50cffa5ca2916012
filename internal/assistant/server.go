// Package assistant assembles the course-assistant service: storage,
// retrieval, chat, and the HTTP surface.
package assistant

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/campus-io/study-buddy/internal/assistant/biz"
	"github.com/campus-io/study-buddy/internal/assistant/handler"
	"github.com/campus-io/study-buddy/internal/assistant/router"
	"github.com/campus-io/study-buddy/internal/assistant/store"
	"github.com/campus-io/study-buddy/pkg/component/milvus"
	"github.com/campus-io/study-buddy/pkg/component/mysql"
	"github.com/campus-io/study-buddy/pkg/component/redis"
	"github.com/campus-io/study-buddy/pkg/component/storage"
	"github.com/campus-io/study-buddy/pkg/app"
	"github.com/campus-io/study-buddy/pkg/infra/pool"
	"github.com/campus-io/study-buddy/pkg/llm"
	cacheopts "github.com/campus-io/study-buddy/pkg/options/cache"
	jwtopts "github.com/campus-io/study-buddy/pkg/options/jwt"
	llmopts "github.com/campus-io/study-buddy/pkg/options/llm"
	logopts "github.com/campus-io/study-buddy/pkg/options/logger"
	milvusopts "github.com/campus-io/study-buddy/pkg/options/milvus"
	mysqlopts "github.com/campus-io/study-buddy/pkg/options/mysql"
	redisopts "github.com/campus-io/study-buddy/pkg/options/redis"
	httpopts "github.com/campus-io/study-buddy/pkg/options/server/http"
	storageopts "github.com/campus-io/study-buddy/pkg/options/storage"

	// Register the LLM gateway provider.
	_ "github.com/campus-io/study-buddy/pkg/llm/gateway"
)

// Name is the name of the application.
const Name = "study-buddy"

const bootstrapTimeout = 30 * time.Second

// Config contains everything needed to assemble the service.
type Config struct {
	HTTPOptions     *httpopts.Options
	LogOptions      *logopts.Options
	JWTOptions      *jwtopts.Options
	MySQLOptions    *mysqlopts.Options
	RedisOptions    *redisopts.Options
	MilvusOptions   *milvusopts.Options
	StorageOptions  *storageopts.Options
	CacheOptions    *cacheopts.Options
	LLMOptions      *llmopts.ProviderOptions
	ShutdownTimeout time.Duration
}

// Server is the assembled assistant service.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	closers         []func()
}

// NewServer initializes every component and returns a runnable server.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	cfg.LogOptions.AddInitialField("service.name", Name)
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Infow("Starting assistant service", "version", app.GetVersion())

	bootCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
	defer cancel()

	srv := &Server{shutdownTimeout: cfg.ShutdownTimeout}

	mysqlClient, err := mysql.NewWithContext(bootCtx, cfg.MySQLOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mysql: %w", err)
	}
	srv.closers = append(srv.closers, func() { _ = mysqlClient.Close() })

	factory, err := store.NewFactory(mysqlClient.DB())
	if err != nil {
		return nil, err
	}
	if err := factory.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	logger.Info("Relational store initialized")

	milvusClient, err := milvus.New(cfg.MilvusOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize milvus: %w", err)
	}
	srv.closers = append(srv.closers, func() { _ = milvusClient.Close(context.Background()) })

	chunks := store.NewChunkStore(milvusClient, cfg.MilvusOptions.Collection, cfg.LLMOptions.EmbedDimensions)
	if err := chunks.EnsureSchema(bootCtx); err != nil {
		return nil, fmt.Errorf("failed to ensure chunk collection: %w", err)
	}
	logger.Infow("Vector store initialized", "collection", cfg.MilvusOptions.Collection)

	provider, err := llm.NewProvider(cfg.LLMOptions.Provider, cfg.LLMOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm provider: %w", err)
	}
	logger.Infow("LLM provider initialized",
		"provider", cfg.LLMOptions.Provider,
		"embed_model", cfg.LLMOptions.EmbedModel,
		"chat_model", cfg.LLMOptions.ChatModel,
	)

	embedder := cfg.buildEmbedder(bootCtx, srv, provider)

	indexingPool, err := pool.NewPool("indexing", pool.IndexingPool, pool.IndexingPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create indexing pool: %w", err)
	}
	srv.closers = append(srv.closers, indexingPool.Release)

	trackingPool, err := pool.NewPool("tracking", pool.TrackingPool, pool.TrackingPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create tracking pool: %w", err)
	}
	srv.closers = append(srv.closers, trackingPool.Release)

	uploads, err := storage.NewLocalStore(cfg.StorageOptions.Dir, cfg.StorageOptions.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize upload storage: %w", err)
	}

	indexer := biz.NewIndexer(chunks, embedder, indexingPool)
	retriever := biz.NewRetriever(chunks, embedder)
	analytics := biz.NewAnalyticsService(factory, trackingPool)
	users := biz.NewUserService(factory)
	courses := biz.NewCourseService(factory, indexer)
	chat := biz.NewChatService(factory, retriever, provider, analytics, cfg.LLMOptions.ChatModel)
	logger.Info("Service layer initialized")

	handlers := &router.Handlers{
		Chat:      handler.NewChatHandler(chat),
		Index:     handler.NewIndexHandler(indexer),
		Upload:    handler.NewUploadHandler(courses, uploads),
		Course:    handler.NewCourseHandler(courses),
		User:      handler.NewUserHandler(users),
		Analytics: handler.NewAnalyticsHandler(analytics, courses),
		Stats:     statsHandler(indexingPool, trackingPool),
	}
	engine := router.Register(handlers, users, cfg.JWTOptions, uploads)

	srv.httpServer = &http.Server{
		Addr:         cfg.HTTPOptions.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.HTTPOptions.ReadTimeout,
		WriteTimeout: cfg.HTTPOptions.WriteTimeout,
		IdleTimeout:  cfg.HTTPOptions.IdleTimeout,
	}

	logger.Info("Assistant service is ready")
	return srv, nil
}

// buildEmbedder wraps the provider with the redis query cache when
// redis is reachable. A redis failure degrades to uncached embeddings.
func (cfg *Config) buildEmbedder(ctx context.Context, srv *Server, provider llm.EmbeddingProvider) llm.EmbeddingProvider {
	if cfg.CacheOptions == nil || !cfg.CacheOptions.Enabled || cfg.RedisOptions == nil {
		logger.Info("Embedding cache is disabled")
		return provider
	}

	redisClient, err := redis.NewWithContext(ctx, cfg.RedisOptions)
	if err != nil {
		logger.Warnw("failed to connect to redis, embedding cache disabled", "error", err)
		return provider
	}
	srv.closers = append(srv.closers, func() { _ = redisClient.Close() })

	logger.Infow("Embedding cache initialized", "ttl", cfg.CacheOptions.TTL)
	return llm.NewCachedEmbeddingProvider(provider, redisClient.RDB(), &llm.EmbeddingCacheConfig{
		Enabled:   true,
		TTL:       cfg.CacheOptions.TTL,
		KeyPrefix: cfg.CacheOptions.KeyPrefix,
	})
}

// statsHandler reports worker-pool counters.
func statsHandler(pools ...*pool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := gin.H{}
		for _, p := range pools {
			stats := p.Stats()
			out[p.Name()] = gin.H{
				"running":   p.Running(),
				"submitted": stats.SubmittedTasks,
				"completed": stats.CompletedTasks,
				"failed":    stats.FailedTasks,
				"rejected":  stats.RejectedTasks,
			}
		}
		c.JSON(http.StatusOK, out)
	}
}

// Run starts the HTTP server and blocks until the context is cancelled
// or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		for i := len(s.closers) - 1; i >= 0; i-- {
			s.closers[i]()
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
