package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// setupRoutes configures the API routes for the server.
func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	v1 := s.engine.Group("/v1")
	{
		v1.POST("/extract", s.handleExtract)
		v1.POST("/extract/frames", s.handleExtractFrames)
		v1.POST("/validate", s.handleValidate)
		v1.POST("/convert", s.handleConvert)
		v1.POST("/render", s.handleRender)

		v1.POST("/captures", s.handleSaveCapture)
		v1.GET("/captures/stream", s.handleStream)
		v1.GET("/captures/:kind", s.handleHistory)
		v1.GET("/captures/:kind/latest", s.handleLatest)
		v1.DELETE("/captures/:kind", s.handleClear)

		v1.POST("/prefill", s.handleRequestPrefill)
		v1.POST("/prefill/consume", s.handleConsumePrefill)
	}

	s.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "OpenAI curl generator",
			"endpoints": []string{
				"POST /v1/extract",
				"POST /v1/convert",
				"POST /v1/render",
				"GET /v1/captures/stream",
			},
		})
	})
}

// handleStream upgrades to the capture event websocket. The hub writes the
// response itself, so gin's chain stops here.
func (s *Server) handleStream(c *gin.Context) {
	s.hub.ServeHTTP(c.Writer, c.Request)
	c.Abort()
}
