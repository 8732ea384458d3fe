package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"userhub/internal/config"
	"userhub/internal/domain/user"
	"userhub/internal/http/handlers"
	"userhub/internal/http/middlewares"
)

// UserStore is the full store surface the router wires up. The mongo and
// memory repos both satisfy it.
type UserStore interface {
	handlers.UserStore
	handlers.AdminStore
}

// Deps carries everything the router needs, so tests can swap in the memory
// repo and a fake clock-free token manager.
type Deps struct {
	Cfg            config.Config
	Log            *slog.Logger
	Users          UserStore
	Hasher         handlers.PasswordHasher
	Tokens         TokenService
	MetricsHandler http.Handler
	HTTPMetrics    gin.HandlerFunc
	Ping           func() error
}

type TokenService interface {
	handlers.TokenIssuer
	middlewares.TokenVerifier
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Cfg.Env != "dev" && deps.Cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(deps.Log))
	r.Use(otelgin.Middleware("userhub"))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.Cfg.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(1 << 20))

	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics)
	}

	authMw := middlewares.NewAuthMiddleware(deps.Tokens, deps.Users)

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Hasher, deps.Tokens)
	adminHandler := handlers.NewAdminHandler(deps.Users)
	healthHandler := handlers.NewHealthHandler(deps.Ping)

	if deps.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	api := r.Group("/api")

	api.GET("/health", healthHandler.Health)
	api.GET("/ready", healthHandler.Ready)

	// Login and signup get a per-IP limiter; everything else is gated by auth.
	limiter := middlewares.NewRateLimiter(20, time.Minute)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/signup", limiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Signup)
	authRoutes.POST("/login", limiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)

	session := authRoutes.Group("", authMw.RequireAuth())
	session.POST("/logout", authHandler.Logout)
	session.GET("/me", authHandler.Me)
	session.PUT("/profile", authHandler.UpdateProfile)
	session.PUT("/change-password", authHandler.ChangePassword)

	admin := api.Group("/admin", authMw.RequireAuth(), authMw.RequireRole(user.RoleAdmin))
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/users/:id", adminHandler.GetUser)
	admin.PUT("/users/:id/activate", adminHandler.ActivateUser)
	admin.PUT("/users/:id/deactivate", adminHandler.DeactivateUser)
	admin.PUT("/users/:id/role", adminHandler.SetRole)

	r.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "not_found",
				"message": "Route not found.",
			},
		})
	})

	return r
}
