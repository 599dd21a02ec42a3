package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/payrelay/internal/config"
	"github.com/smallbiznis/payrelay/internal/observability/logger"
	"go.uber.org/zap"
)

// CORS allows the configured origins. A "*" entry, or no entries, allows any origin.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	origins := make([]string, 0, len(cfg.AllowedOrigins))
	allowAll := len(cfg.AllowedOrigins) == 0
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAll = true
			break
		}
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if allowAll || len(origins) == 0 {
		// Echo the caller's origin so credentialed requests still work.
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsCfg.AllowOrigins = origins
	}

	return cors.New(corsCfg)
}

// InitializeRateLimit throttles checkout creation per client IP. Limiter
// failures let the request through.
func (s *Server) InitializeRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.initLimiter == nil || !s.initLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		result, err := s.initLimiter.Allow(ctx, c.ClientIP())
		if err != nil {
			logger.WithContext(ctx, s.log).Warn("initialize rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			logger.WithContext(ctx, s.log).Warn("initialize rate limit exceeded", zap.String("client_ip", c.ClientIP()))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			AbortWithError(c, ErrRateLimited)
			return
		}

		c.Next()
	}
}
