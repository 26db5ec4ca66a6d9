package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/cunhadas/cadastro-api/internal/auth"
	"github.com/cunhadas/cadastro-api/internal/config"
	"github.com/cunhadas/cadastro-api/internal/http/handlers"
	"github.com/cunhadas/cadastro-api/internal/http/middlewares"
	"github.com/cunhadas/cadastro-api/internal/observability"
	"github.com/cunhadas/cadastro-api/internal/repo/postgres"
)

const serviceName = "cadastro-api"

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, uploader handlers.PhotoUploader, cfg config.Config, prom *observability.Prom) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxUploadBytes))
	r.Use(otelgin.Middleware(serviceName))

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(prom.Registry, promhttp.HandlerOpts{})))
	}

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	// wire up repositories and handlers
	usersRepo := postgres.NewUsersRepo(pool, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	authMiddleware := middlewares.NewAuthMiddleware(jwtManager)

	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager)
	usersHandler := handlers.NewUsersHandler(usersRepo, uploader)

	r.POST("/users", usersHandler.Register)
	r.POST("/login", authHandler.Login)

	requireAuth := authMiddleware.RequireAuth()

	r.GET("/users", requireAuth, usersHandler.List)
	r.GET("/users/:id", requireAuth, usersHandler.GetByID)
	r.PUT("/users/:id", requireAuth, usersHandler.Update)
	r.DELETE("/users/:id", requireAuth, usersHandler.Delete)

	return r
}
