package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grant-intake/internal/common/logger"
	"grant-intake/internal/forms"
)

// NewRouter registers one POST route per form type plus the follow-up,
// health and metrics endpoints. Other methods on known paths get 405.
func NewRouter(h *Handlers, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.MaxMultipartMemory = multipartMemory

	router.Use(gin.Recovery(), RequestContext(log), AccessLog(log))

	router.NoMethod(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Header("Allow", http.MethodPost)
		}
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	apiGroup := router.Group("/api")
	for _, ft := range forms.AllFormTypes {
		apiGroup.POST("/"+ft.Slug(), h.Submit(ft))
	}
	if h.feedback != nil {
		apiGroup.POST("/csat", h.SubmitFeedback)
	}

	router.GET("/health", h.HealthCheck)
	router.GET("/ready", h.ReadyCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
