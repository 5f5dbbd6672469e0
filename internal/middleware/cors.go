package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"pasur-go/internal/config"

	"github.com/gin-gonic/gin"
)

// CORS answers cross-origin requests from the configured WS_ALLOWED_ORIGINS,
// plus loopback origins in development (the dev frontend runs on another port).
func CORS(cfg config.Config) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, o := range cfg.WSAllowedOrigins {
		allowed[o] = true
	}
	dev := cfg.IsDevelopment()

	return func(c *gin.Context) {
		origin := strings.TrimSpace(c.GetHeader("Origin"))
		if origin == "" {
			c.Next()
			return
		}

		if allowed[origin] || (dev && isLoopback(origin)) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Vary", "Origin")
			h.Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Expose-Headers", RequestIDHeader)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func isLoopback(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
