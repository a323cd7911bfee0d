package apiserver

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/kdeps/intake/pkg"
)

// SetupRoutes registers middleware and every endpoint on router.
func SetupRoutes(router *gin.Engine, s *Server) {
	router.Use(
		RequestID(s.logger),
		Recovery(),
		RequestLogger(),
		cors.New(corsConfig(s.cfg.CORSOrigins)),
	)

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)
	router.POST("/upload", BodyLimit(s.cfg.MaxUploadBytes), s.handleUpload)

	protected := router.Group("/", BearerAuth(s.cfg.APIToken))
	protected.GET("/list", s.handleList)
	protected.GET("/download/:key", s.handleDownload)
	protected.GET("/download_all", s.handleDownloadAll)
	protected.DELETE("/delete_all", s.handleDeleteAll)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", RequestIDHeader},
		ExposeHeaders: []string{"Content-Disposition", RequestIDHeader},
		MaxAge:        pkg.DefaultCORSMaxAge,
	}

	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
