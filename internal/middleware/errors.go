package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/Baaaki/procurehub/internal/apperr"
	"github.com/Baaaki/procurehub/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgInternal = "Internal Server Error"

// ErrorBody is the JSON shape of every failed response.
func ErrorBody(status int, message string) gin.H {
	return gin.H{
		"success":    false,
		"message":    message,
		"statusCode": status,
	}
}

// ErrorHandler renders the last error a handler attached with c.Error.
// Causes of internal errors are only shown outside production, unless the
// error was explicitly exposed.
func ErrorHandler(isProduction bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, body := renderError(err, isProduction)

		if status >= http.StatusInternalServerError {
			logger.Log.Error("Request failed",
				zap.String("request_id", c.GetString(RequestIDKey)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
		}

		c.JSON(status, body)
	}
}

func renderError(err error, isProduction bool) (int, gin.H) {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, ErrorBody(http.StatusServiceUnavailable, "Request timed out")
	}

	appErr, ok := apperr.As(err)
	if !ok {
		body := ErrorBody(http.StatusInternalServerError, msgInternal)
		if !isProduction {
			body["error"] = err.Error()
		}
		return http.StatusInternalServerError, body
	}

	status := appErr.HTTPStatus()
	body := ErrorBody(status, appErr.Message)
	if appErr.Err != nil && (appErr.Expose || !isProduction) {
		body["error"] = appErr.Err.Error()
	}
	return status, body
}

// Recovery turns a panic into the standard 500 body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Log.Error("Panic recovered",
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.Any("panic", recovered),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody(http.StatusInternalServerError, msgInternal))
	})
}
