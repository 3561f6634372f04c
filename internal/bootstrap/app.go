package bootstrap

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stockbuddy-backend/internal/analysis"
	"stockbuddy-backend/internal/billing"
	"stockbuddy-backend/internal/config"
	"stockbuddy-backend/internal/earnings"
	"stockbuddy-backend/internal/forecast"
	"stockbuddy-backend/internal/jobs"
	"stockbuddy-backend/internal/llm/deepseek"
	"stockbuddy-backend/internal/marketdata"
	"stockbuddy-backend/internal/news"
	"stockbuddy-backend/internal/portfolio"
	"stockbuddy-backend/internal/shared/cache"
	"stockbuddy-backend/internal/shared/metrics"
	"stockbuddy-backend/internal/shared/server/middleware"
	"stockbuddy-backend/internal/shared/server/respond"
	"stockbuddy-backend/internal/shared/storage/db"
	"stockbuddy-backend/internal/transcript"
)

// App bundles the HTTP router with the background workers the process runs.
type App struct {
	Router  *gin.Engine
	Sweeper *jobs.Sweeper

	sqlDB *sql.DB
	cache *cache.Client
}

// Close releases the database and cache connections.
func (a *App) Close() {
	if a.sqlDB != nil {
		_ = a.sqlDB.Close()
	}
	_ = a.cache.Close()
}

// New wires every dependency and returns the assembled application.
// Without DATABASE_URL the app runs on in-memory repositories, which is
// enough for local development against live upstreams.
func New(cfg config.Config) *App {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	var sqlDB *sql.DB
	if cfg.DatabaseURL != "" {
		conn, err := db.Connect(context.Background(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			log.Printf("failed to connect database, falling back to memory: %v", err)
		} else {
			if err := db.RunMigrations(context.Background(), conn); err != nil {
				log.Printf("failed to run migrations, falling back to memory: %v", err)
				conn.Close()
				conn = nil
			}
		}
		sqlDB = conn
	}

	var (
		jobsRepo      jobs.Repo
		earningsRepo  earnings.Repo
		portfolioRepo portfolio.Repo
		billingRepo   billing.Repo
	)
	if sqlDB != nil {
		jobsRepo = &jobs.PGRepo{DB: sqlDB}
		earningsRepo = &earnings.PGRepo{DB: sqlDB}
		portfolioRepo = &portfolio.PGRepo{DB: sqlDB}
		billingRepo = &billing.PGRepo{DB: sqlDB}
	} else {
		jobsRepo = jobs.NewMemoryRepo()
		earningsRepo = earnings.NewMemoryRepo()
		portfolioRepo = portfolio.NewMemoryRepo()
		billingRepo = billing.NewMemoryRepo()
	}

	cacheClient := cache.New(cfg.RedisURL)

	market := marketdata.NewAlphaVantage(cfg.AlphaVantageAPIKey, cfg.AlphaVantageBaseURL, cacheClient)
	newsGateway := news.NewAlphaVantage(cfg.AlphaVantageAPIKey, cfg.AlphaVantageBaseURL)
	search := marketdata.NewSymbolSearch(cfg.MassiveAPIKey, cfg.MassiveBaseURL)
	transcripts := transcript.NewFMP(cfg.FMPAPIKey, "")
	llmClient := deepseek.NewClient(cfg.DeepSeekAPIKey, cfg.DeepSeekURL, cfg.AIMaxTokens, cfg.AITemperature)

	billingSvc := &billing.Service{Repo: billingRepo}
	jobsSvc := &jobs.Service{Repo: jobsRepo}
	resolver := &earnings.Resolver{
		Records:     earningsRepo,
		Transcripts: transcripts,
		Market:      market,
		News:        newsGateway,
		LLM:         llmClient,
	}
	portfolioSvc := &portfolio.Service{
		Repo:     portfolioRepo,
		Market:   market,
		Plans:    billingSvc,
		Analyzer: &portfolio.Analyzer{Records: earningsRepo},
	}
	runner := &analysis.Runner{
		Jobs:        jobsSvc,
		Portfolios:  portfolioSvc,
		Resolver:    resolver,
		Records:     earningsRepo,
		Transcripts: transcripts,
		Market:      market,
		LLM:         llmClient,
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	api.Use(
		middleware.Auth(opaqueIdentity),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				middleware.GroupGeneral: middleware.PerMinute(cfg.GeneralRateLimit),
				middleware.GroupAI:      middleware.PerMinute(cfg.AIRateLimit),
				middleware.GroupSearch:  middleware.PerMinute(cfg.SearchRateLimit),
			},
			GroupFor: groupForRoute,
		}),
	)

	jobs.NewHandler(jobsSvc).RegisterRoutes(api)
	marketdata.NewHandler(search).RegisterRoutes(api)
	earnings.NewHandler(earningsRepo).RegisterRoutes(api)
	portfolio.NewHandler(portfolioSvc).RegisterRoutes(api)
	billing.NewHandler(billingSvc).RegisterRoutes(api)
	forecast.NewHandler(market, billingSvc).RegisterRoutes(api)
	analysis.NewHandler(jobsSvc, runner, billingSvc).RegisterRoutes(api)

	return &App{
		Router: r,
		Sweeper: &jobs.Sweeper{
			Svc:        jobsSvc,
			StaleAfter: time.Duration(cfg.JobStaleAfterMinutes) * time.Minute,
		},
		sqlDB: sqlDB,
		cache: cacheClient,
	}
}

// opaqueIdentity trusts the bearer token as the caller id. Token
// verification happens upstream at the gateway; this service only scopes
// data by the identity it is handed.
func opaqueIdentity(token string) (string, error) {
	return token, nil
}

// groupForRoute assigns each request to a throttle group. AI triggers are
// limited hardest; everything else shares the general bucket.
func groupForRoute(c *gin.Context) string {
	path := c.Request.URL.Path
	switch {
	case strings.HasSuffix(path, "/analyze"),
		strings.HasSuffix(path, "/compare"),
		strings.HasSuffix(path, "/forecast"):
		return middleware.GroupAI
	case strings.Contains(path, "/search"):
		return middleware.GroupSearch
	default:
		return middleware.GroupGeneral
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
