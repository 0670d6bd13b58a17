package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/taskhub/taskhub/internal/auth"
	"github.com/taskhub/taskhub/internal/config"
	"github.com/taskhub/taskhub/internal/http/handlers"
	"github.com/taskhub/taskhub/internal/http/middlewares"
	"github.com/taskhub/taskhub/internal/observability"
	"github.com/taskhub/taskhub/internal/redisclient"
	"github.com/taskhub/taskhub/internal/repo/postgres"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "taskhub"

func NewRouter(
	log *slog.Logger,
	pool *pgxpool.Pool,
	rdb *redisclient.Client,
	prom *observability.Prom,
	cfg config.Config,
) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(1 << 20)) // 1 MiB
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware(serviceName))

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}

	// health + metrics
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	health := handlers.NewHealthHandler(ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// wire up repositories and handlers
	usersRepo := postgres.NewUsersRepo(pool, prom)
	tasksRepo := postgres.NewTasksRepo(pool, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	authMW := middlewares.NewAuthMiddleware(jwtManager)

	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager)
	tasksHandler := handlers.NewTasksHandler(tasksRepo)

	// brute-force protection on the credential endpoints; counters live in
	// redis when an address is configured, in process memory otherwise
	var authLimiter gin.HandlerFunc

	if rdb != nil {
		authLimiter = middlewares.NewRedisRateLimiter(rdb.Raw(), cfg.AuthRateLimit, cfg.AuthRateWindow).Middleware(middlewares.KeyByIP)
	} else {
		authLimiter = middlewares.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow).Middleware(middlewares.KeyByIP)
	}

	api := r.Group("/api")

	api.POST("/register", authLimiter, authHandler.Register)
	api.POST("/login", authLimiter, authHandler.Login)

	// the collection listing is the one public task route
	api.GET("/tasks", tasksHandler.ListTasks)

	protected := api.Group("")
	protected.Use(authMW.RequireAuth())

	protected.POST("/tasks", tasksHandler.CreateTask)
	protected.GET("/tasks/:id", tasksHandler.GetTaskByID)
	protected.PUT("/tasks/:id", tasksHandler.ReplaceTask)
	protected.PATCH("/tasks/:id", tasksHandler.PatchTask)
	protected.DELETE("/tasks/:id", tasksHandler.DeleteTask)

	return r
}
