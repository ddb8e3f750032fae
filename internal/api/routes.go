package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the gin engine with middleware and every route. gatherer
// backs /metrics; nil uses the default registry.
func NewRouter(handler *Handler, allowedOrigins []string, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(handler.logger))

	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	corsConfig.ExposeHeaders = []string{requestIDHeader, "Content-Disposition"}
	router.Use(cors.New(corsConfig))

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	SetupRoutes(router, handler)
	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/regions", handler.ListRegions)
		api.GET("/regions/:province", handler.GetProvinceDistricts)

		api.POST("/queries", handler.CreateQuery)
		api.GET("/queries/:id", handler.GetQuery)
		api.GET("/queries/:id/transactions", handler.GetTransactions)
		api.GET("/queries/:id/stats", handler.GetStats)
		api.GET("/queries/:id/map", handler.GetMap)
		api.GET("/queries/:id/export.csv", handler.ExportCSV)
		api.GET("/queries/:id/export.xlsx", handler.ExportXLSX)
	}
}
