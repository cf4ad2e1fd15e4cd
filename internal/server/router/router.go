package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockbook/internal/server/handlers"
	"github.com/mamadbah2/stockbook/internal/service/identity"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.LedgerHandler, resolver identity.Resolver, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(authMiddleware(resolver, logger))

	api.POST("/stock/:category", handler.InitializeStock)
	api.GET("/stock/:category", handler.GetStock)
	api.GET("/stock/:category/history", handler.GetHistory)
	api.GET("/stock/:category/cost", handler.GetCostBasis)
	api.POST("/stock/:category/additions", handler.RecordAddition)
	api.POST("/stock/:category/deaths", handler.RecordDeath)
	api.POST("/sales", handler.CommitSale)
	api.GET("/sales", handler.ListSales)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

// authMiddleware resolves the bearer token to an owner id and stores it in
// the request context for handlers. Requests without a valid token never
// reach a read.
func authMiddleware(resolver identity.Resolver, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		owner, err := resolver.ResolveToken(token)
		if err != nil {
			logger.Debug("rejected unauthenticated request", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		c.Set(handlers.OwnerContextKey, owner)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
