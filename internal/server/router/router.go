package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/agrosupply/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted by the router.
type Handlers struct {
	Pricing      *handlers.PricingHandler
	Costing      *handlers.CostingHandler
	Distribution *handlers.DistributionHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	materials := r.Group("/materials/:id")
	materials.GET("/price", h.Pricing.EffectivePrice)
	materials.GET("/prices", h.Pricing.History)
	materials.POST("/prices", h.Pricing.ChangePrice)

	r.POST("/costing/estimate", h.Costing.Estimate)

	distributions := r.Group("/distributions")
	distributions.POST("", h.Distribution.Schedule)
	distributions.GET("/overdue", h.Distribution.Overdue)
	distributions.GET("/:id", h.Distribution.Get)
	distributions.POST("/:id/supervisor-confirmation", h.Distribution.ConfirmBySupervisor)
	distributions.POST("/:id/farmer-confirmation", h.Distribution.ConfirmByFarmer)
	distributions.POST("/:id/rejection", h.Distribution.Reject)

	r.GET("/reports/overdue", h.Distribution.OverdueReport)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
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
