package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const genericServerError = "An unexpected error occurred. Please try again later."

// SendJSONError sends a standardized JSON error response and logs the internal error
// through the global zap logger.
// For 5xx errors the client gets a generic message unless publicMsg is set and differs
// from the internal error text. For 4xx errors publicMsg is shown as is.
func SendJSONError(c *gin.Context, statusCode int, publicMsg string, internalError error, details ...string) {
	errorDetails := ""
	if len(details) > 0 {
		errorDetails = details[0]
	}

	response := gin.H{"error": publicMsg}
	if errorDetails != "" {
		response["details"] = errorDetails
	}

	log := zap.L().Named("HTTP")
	fields := []zap.Field{
		zap.Int("status", statusCode),
		zap.String("public_message", publicMsg),
		zap.String("path", c.Request.URL.Path),
	}
	if errorDetails != "" {
		fields = append(fields, zap.String("details", errorDetails))
	}
	switch {
	case internalError != nil && statusCode >= http.StatusInternalServerError:
		log.Error("handler error", append(fields, zap.Error(internalError))...)
	case internalError != nil:
		log.Info("handler rejected request", append(fields, zap.Error(internalError))...)
	default:
		log.Info("handler response", fields...)
	}

	if statusCode >= http.StatusInternalServerError {
		if publicMsg == "" || (internalError != nil && publicMsg == internalError.Error()) {
			response["error"] = genericServerError
		}
	}

	c.AbortWithStatusJSON(statusCode, response)
}

// SendJSON writes the success envelope.
func SendJSON(c *gin.Context, statusCode int, message string, data any) {
	c.JSON(statusCode, gin.H{
		"code":    statusCode,
		"message": message,
		"data":    data,
	})
}
