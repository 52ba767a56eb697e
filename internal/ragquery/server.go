// Package ragquery provides the RAG query service server implementation.
package ragquery

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/ragquery/internal/ragquery/biz"
	"github.com/kart-io/ragquery/internal/ragquery/handler"
	"github.com/kart-io/ragquery/internal/ragquery/metrics"
	"github.com/kart-io/ragquery/internal/ragquery/router"
	"github.com/kart-io/ragquery/internal/ragquery/store"
	"github.com/kart-io/ragquery/pkg/component/milvus"
	"github.com/kart-io/ragquery/pkg/component/redis"
	"github.com/kart-io/ragquery/pkg/infra/app"
	"github.com/kart-io/ragquery/pkg/infra/pool"
	"github.com/kart-io/ragquery/pkg/infra/server"
	httpserver "github.com/kart-io/ragquery/pkg/infra/server/transport/http"
	"github.com/kart-io/ragquery/pkg/infra/tracing"
	"github.com/kart-io/ragquery/pkg/llm"
	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/ragquery/pkg/llm/azure"
	_ "github.com/kart-io/ragquery/pkg/llm/openai"
	"github.com/kart-io/ragquery/pkg/llm/resilience"
	llmopts "github.com/kart-io/ragquery/pkg/options/llm"
	logopts "github.com/kart-io/ragquery/pkg/options/logger"
	mwopts "github.com/kart-io/ragquery/pkg/options/middleware"
	milvusopts "github.com/kart-io/ragquery/pkg/options/milvus"
	queryopts "github.com/kart-io/ragquery/pkg/options/query"
	redisopts "github.com/kart-io/ragquery/pkg/options/redis"
	searchopts "github.com/kart-io/ragquery/pkg/options/search"
	httpopts "github.com/kart-io/ragquery/pkg/options/server/http"
	tracingopts "github.com/kart-io/ragquery/pkg/options/tracing"
)

// Name is the name of the application.
const Name = "ragquery"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions       *httpopts.Options
	LogOptions        *logopts.Options
	TracingOptions    *tracingopts.Options
	MiddlewareOptions *mwopts.Options
	SearchOptions     *searchopts.Options
	RedisOptions      *redisopts.Options
	MilvusOptions     *milvusopts.Options
	ChatOptions       *llmopts.ProviderOptions
	EmbeddingOptions  *llmopts.ProviderOptions
	QueryOptions      *queryopts.Options
	ShutdownTimeout   time.Duration
}

type closer struct {
	name  string
	close func(context.Context) error
}

// Server represents the RAG query server.
type Server struct {
	srv             *server.Manager
	http            *httpserver.Server
	closers         []closer
	shutdownTimeout time.Duration
}

// NewServer initializes and returns a new Server instance.
// Clients created before a failing step are closed before NewServer returns.
func (cfg *Config) NewServer(ctx context.Context) (_ *Server, err error) {
	s := &Server{shutdownTimeout: cfg.ShutdownTimeout}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = server.DefaultShutdownTimeout
	}
	defer func() {
		if err != nil {
			_ = s.close()
		}
	}()

	// 1. 初始化日志
	cfg.LogOptions.AddInitialField("service.name", Name)
	cfg.LogOptions.AddInitialField("service.version", app.GetVersion())
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting RAG query service...")

	// 2. 初始化链路追踪
	tp, err := tracing.NewProvider(ctx, cfg.TracingOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	s.addCloser("tracing", tp.Shutdown)
	logger.Infow("Tracing initialized", "enabled", tp.Enabled())

	// 3. 初始化指标与熔断配置
	m := metrics.GetQueryMetrics()
	breaker := &resilience.CircuitBreakerConfig{
		MaxFailures:      cfg.QueryOptions.BreakerMaxFailures,
		Timeout:          cfg.QueryOptions.BreakerTimeout,
		HalfOpenMaxCalls: 1,
		OnStateChange: func(_, to resilience.CircuitBreakerState) {
			m.RecordCircuitBreakerState(int32(to))
		},
	}

	// 4. 初始化检索后端
	backend, err := s.newSearchBackend(ctx, cfg, breaker)
	if err != nil {
		return nil, err
	}
	logger.Infow("Search backend initialized",
		"backend", backend.Name(),
		"fields.id", cfg.SearchOptions.Fields.ID,
	)

	// 5. 初始化 Chat 供应商
	chatProvider, err := llm.NewChatProvider(cfg.ChatOptions.Provider, cfg.ChatOptions.ChatConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	resilientChat := resilience.NewResilientChatProvider(chatProvider, breaker)
	logger.Infow("Chat provider initialized",
		"provider", cfg.ChatOptions.Provider,
		"model", cfg.ChatOptions.Model,
		"breaker.max_failures", breaker.MaxFailures,
	)

	// 6. 初始化生成并发限制
	limiter, err := pool.NewLimiter("generation",
		cfg.QueryOptions.MaxConcurrentGenerations,
		cfg.QueryOptions.MaxWaitingGenerations,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generation limiter: %w", err)
	}
	s.addCloser("generation-limiter", func(context.Context) error {
		return limiter.Close(s.shutdownTimeout)
	})
	m.SetGenerationLimiter(limiter)

	// 7. 初始化 Biz 层
	retriever := biz.NewRetriever(backend, &biz.RetrieverConfig{
		Fields:  cfg.SearchOptions.Fields,
		TopK:    biz.DefaultTopK,
		Timeout: cfg.QueryOptions.SearchTimeout,
	})
	generator := biz.NewGenerator(resilientChat, limiter, &biz.GeneratorConfig{
		Model:   cfg.ChatOptions.Model,
		Timeout: cfg.QueryOptions.ChatTimeout,
	})
	ragService := biz.NewRAGService(retriever, generator, m)
	logger.Infow("RAG query service initialized",
		"search_timeout", cfg.QueryOptions.SearchTimeout.String(),
		"chat_timeout", cfg.QueryOptions.ChatTimeout.String(),
		"max_concurrent_generations", cfg.QueryOptions.MaxConcurrentGenerations,
	)

	// 8. 初始化 HTTP 服务器并注册路由
	s.http = httpserver.NewServer(cfg.HTTPOptions, cfg.MiddlewareOptions)
	router.Register(s.http.Engine(), handler.NewRAGHandler(ragService), m, cfg.MiddlewareOptions.FunctionKey)
	s.srv = server.NewManager(s.shutdownTimeout, s.http)

	logger.Info("RAG query service is ready")
	return s, nil
}

// newSearchBackend creates the configured backend and registers its client for shutdown.
func (s *Server) newSearchBackend(ctx context.Context, cfg *Config, breaker *resilience.CircuitBreakerConfig) (store.SearchBackend, error) {
	opts := cfg.SearchOptions
	switch opts.Backend {
	case searchopts.BackendAzure:
		return store.NewAzureSearch(opts.Azure), nil

	case searchopts.BackendRedis:
		client, err := redis.New(ctx, cfg.RedisOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		s.addCloser("redis", func(context.Context) error { return client.Close() })
		logger.Infow("Redis client initialized", "addr", cfg.RedisOptions.Addr())
		return store.NewRediSearch(client.Client(), opts.Redis.Index, opts.Fields), nil

	case searchopts.BackendMilvus:
		embedProvider, err := llm.NewEmbeddingProvider(cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.EmbeddingConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
		}
		logger.Infow("Embedding provider initialized",
			"provider", cfg.EmbeddingOptions.Provider,
			"model", cfg.EmbeddingOptions.Model,
		)

		client, err := milvus.New(ctx, cfg.MilvusOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize milvus: %w", err)
		}
		s.addCloser("milvus", client.Close)
		if err := client.EnsureLoaded(ctx, opts.Milvus.Collection); err != nil {
			return nil, fmt.Errorf("failed to load milvus collection: %w", err)
		}
		logger.Infow("Milvus client initialized",
			"address", cfg.MilvusOptions.Address,
			"collection", opts.Milvus.Collection,
		)

		embedBreaker := *breaker
		embedBreaker.OnStateChange = nil
		embedder := resilience.NewResilientEmbeddingProvider(embedProvider, &embedBreaker)
		return store.NewMilvusSearch(client, embedder, opts.Milvus, opts.Fields), nil

	default:
		return nil, fmt.Errorf("unsupported search backend %q", opts.Backend)
	}
}

func (s *Server) addCloser(name string, fn func(context.Context) error) {
	s.closers = append(s.closers, closer{name: name, close: fn})
}

// close releases clients in reverse creation order.
func (s *Server) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		c := s.closers[i]
		if err := c.close(ctx); err != nil {
			logger.Warnw("Failed to close client", "client", c.name, "error", err.Error())
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	s.closers = nil
	return utilerrors.NewAggregate(errs)
}

// Run starts the server and blocks until ctx is canceled, then shuts down
// the HTTP server and releases every backend client.
func (s *Server) Run(ctx context.Context) error {
	runErr := s.srv.Run(ctx)
	closeErr := s.close()
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// Addr returns the bound HTTP address once the server is started.
func (s *Server) Addr() string {
	return s.http.Addr()
}
