package middleware

import (
	"net/http"
	"strings"
	"time"

	"kbconsole/identity"
	"kbconsole/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger is a Gin middleware for logging HTTP requests and responses.
func Logger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("GIN")
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("method", c.Request.Method),
			zap.String("uri", c.Request.RequestURI),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, zap.String("errors", errs))
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// Cors is a Gin middleware for enabling Cross-Origin Resource Sharing (CORS).
// It allows requests from any origin.
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, User-Agent")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// TokenVerifier turns a bearer token into a principal.
type TokenVerifier interface {
	Verify(token string) (*identity.Principal, error)
}

// Authenticate places the principal of a valid bearer token on the request context.
// Requests without a token, or with an invalid one, continue anonymously.
func Authenticate(v TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	log = log.Named("Auth")
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.Next()
			return
		}
		pr, err := v.Verify(strings.TrimSpace(token))
		if err != nil {
			log.Debug("ignoring invalid bearer token", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(identity.WithPrincipal(c.Request.Context(), pr))
		c.Next()
	}
}

// RequireAuth rejects requests that carry no principal.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := identity.FromContext(c.Request.Context()); !ok {
			utils.SendJSONError(c, http.StatusUnauthorized, "Authentication required.", nil)
			return
		}
		c.Next()
	}
}
