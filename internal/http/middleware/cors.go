package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// PublicPrefix is the route prefix served to any origin (widget feed, offer
// intake, checkout).
const PublicPrefix = "/api/public/"

// CORS applies an open policy to public routes and the configured origin
// allow-list to everything else.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	headers := []string{"Origin", "Content-Type", "Accept", "Authorization", requestHeader}
	methods := []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}

	public := cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    headers,
		ExposeHeaders:   []string{requestHeader},
		MaxAge:          12 * time.Hour,
	})

	adminCfg := cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     methods,
		AllowHeaders:     headers,
		ExposeHeaders:    []string{requestHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		adminCfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	admin := cors.New(adminCfg)

	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, PublicPrefix) {
			public(c)
			return
		}
		admin(c)
	}
}
