package server

import (
	"net/http"
	"path/filepath"
	"time"

	httpHandler "tiktok-autoposter/interfaces/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitiateRouter(
	oauthHandler httpHandler.ITikTokOAuthHandler,
	healthHandler httpHandler.IHealthHandler,
	landingPageDir string,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler.Healthz)

	// OAuth authentication routes; gin's trailing-slash redirect covers the
	// provider calling back with the registered trailing slash.
	router.GET("/oauth/tiktok", oauthHandler.Authorize)
	router.GET("/oauth/tiktok/callback", oauthHandler.Callback)

	// Landing page: / serves index.html, any other unmatched GET serves the
	// asset of the same name. NoRoute keeps the OAuth routes authoritative.
	router.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Status(http.StatusNotFound)
			return
		}
		p := filepath.Clean("/" + c.Request.URL.Path)
		if p == "/" {
			p = "/index.html"
		}
		c.File(filepath.Join(landingPageDir, p))
	})

	return router
}
