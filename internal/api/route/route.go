package route

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bassista/go_pagewatch/internal/api/middleware"
	"github.com/bassista/go_pagewatch/internal/app"
	"github.com/bassista/go_pagewatch/internal/metrics"
)

// SetupRoutes builds the status API engine.
func SetupRoutes(appCtx *app.App, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorReporting(appCtx.Reporter, logger))
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	publicRouter := r.Group("")
	NewStatusRouter(appCtx.Config.Server.RequestTimeout, publicRouter, appCtx)

	return r
}
