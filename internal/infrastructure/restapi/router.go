package restapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterOptions configures SetupRouter.
type RouterOptions struct {
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer
	Logger         *zap.Logger
}

// SetupRouter wires the portfolio routes, CORS, request logging and /metrics.
func SetupRouter(portfolioHandler *PortfolioHandler, opts RouterOptions) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	if len(opts.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	if opts.Logger != nil {
		router.Use(ZapLoggerMiddleware(opts.Logger))
	}
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/portfolio", portfolioHandler.GetPortfolioHandler)
		v1.POST("/watchlist", portfolioHandler.AddTokensHandler)
		v1.DELETE("/watchlist/:id", portfolioHandler.RemoveTokenHandler)
		v1.PUT("/holdings/:id", portfolioHandler.SetHoldingHandler)
		v1.POST("/refresh", portfolioHandler.RefreshHandler)
		v1.PUT("/page", portfolioHandler.SetPageHandler)
		v1.PUT("/page-size", portfolioHandler.SetPageSizeHandler)
		v1.GET("/tokens/search", portfolioHandler.SearchTokensHandler)
		v1.GET("/tokens/trending", portfolioHandler.TrendingTokensHandler)
	}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return router
}

// ZapLoggerMiddleware logs one line per request.
func ZapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("clientIP", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= 500:
			logger.Error("Request failed", fields...)
		case c.Writer.Status() >= 400:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Info("Request served", fields...)
		}
	}
}
