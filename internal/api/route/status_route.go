package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_pagewatch/internal/api/controller"
	"github.com/bassista/go_pagewatch/internal/api/middleware"
	"github.com/bassista/go_pagewatch/internal/app"
)

func NewStatusRouter(timeout time.Duration, group *gin.RouterGroup, appCtx *app.App) {
	group.Use(middleware.RequestTimeout(timeout))

	sc := controller.NewStatusController(appCtx.Watcher, appCtx.Scheduler)

	group.GET("status", sc.Status)
	group.POST("check", sc.Check)
}
