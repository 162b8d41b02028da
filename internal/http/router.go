package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"signal-net/internal/service"
)

// HealthCheck reporta si una dependencia responde; nil se considera sana.
type HealthCheck func(ctx context.Context) error

// RouterDeps agrupa lo que NewRouter cablea.
type RouterDeps struct {
	JWT            *service.JWTService
	Users          *UserHandler
	Credibility    *CredibilityHandler
	Signals        *SignalHandler
	Challenges     *ChallengeHandler
	MetricsPath    string
	MetricsHandler http.Handler
	Health         HealthCheck
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(logger *zap.Logger, deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/healthz", healthHandler(deps.Health))
	if deps.MetricsHandler != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(deps.MetricsHandler))
	}

	var parser accessTokenParser
	if deps.JWT != nil {
		parser = deps.JWT
	}
	auth := JWTAuthMiddleware(parser)

	api := r.Group("")
	api.Use(jsonContentTypeMiddleware())

	api.POST("/users", deps.Users.Register)
	api.GET("/users/:id", deps.Users.GetUser)
	api.POST("/auth/login", deps.Users.Login)
	api.GET("/auth/me", auth, deps.Users.Me)

	cred := api.Group("/credibility")
	cred.GET("/leaderboard", deps.Credibility.Leaderboard)
	cred.GET("/users/:id", deps.Credibility.UserScore)
	cred.GET("/users/:id/history", deps.Credibility.History)

	signals := api.Group("/signals")
	signals.POST("", auth, deps.Signals.CreateSignal)
	signals.GET("/:id", deps.Signals.GetSignal)
	signals.POST("/:id/resolve", auth, deps.Signals.ResolveSignal)
	signals.POST("/:id/conviction", auth, deps.Signals.SubmitConviction)
	signals.GET("/:id/conviction", auth, deps.Signals.GetConviction)
	signals.POST("/:id/challenge", auth, deps.Challenges.CreateChallenge)

	challenges := api.Group("/challenges")
	challenges.GET("/:id", deps.Challenges.GetChallenge)
	challenges.POST("/:id/accept", auth, deps.Challenges.AcceptChallenge)
	challenges.POST("/:id/resolve", auth, deps.Challenges.ResolveChallenge)

	return r
}

func healthHandler(check HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
