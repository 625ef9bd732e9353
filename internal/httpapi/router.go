package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lexfield/contentpipe/internal/common"
	"github.com/lexfield/contentpipe/internal/httpapi/handlers"
	"github.com/lexfield/contentpipe/internal/httpapi/middleware"
	"github.com/lexfield/contentpipe/internal/pipeline"
)

func NewRouter(svc *pipeline.Service) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	h := handlers.NewHandler(svc)

	r.GET("/ping", h.Ping)

	r.POST("/cycle", h.Cycle)
	r.POST("/scheduler-tick", h.SchedulerTick)
	r.POST("/process-next", h.ProcessNext)

	return r
}
