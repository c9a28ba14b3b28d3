package api

import (
	"net/http"

	"github.com/ashendes/retail-api/internal/apperr"
	"github.com/ashendes/retail-api/internal/auth"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   int    `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorHandler renders the last error attached to the context as an
// ErrorResponse. It must run before any handler that calls c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		if authErr, ok := auth.AsAuthError(err); ok {
			c.JSON(authErr.Status, ErrorResponse{
				Error:   authErr.Status,
				Message: authErr.Description,
				Code:    authErr.Code,
			})
			return
		}

		appErr := apperr.From(err)
		status := appErr.Status()
		if status >= http.StatusInternalServerError {
			log.WithError(err).WithField("request_id", requestID(c)).Error("Request failed")
		} else if appErr.Err != nil {
			log.WithError(appErr.Err).WithFields(log.Fields{
				"request_id": requestID(c),
				"status":     status,
			}).Warn("Request rejected")
		}

		c.JSON(status, ErrorResponse{
			Error:   status,
			Message: appErr.Message,
		})
	}
}

// Recovery turns panics into a 500 envelope
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithField("panic", recovered).WithField("request_id", requestID(c)).Error("Handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error:   http.StatusInternalServerError,
			Message: "internal server error",
		})
	})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: http.StatusNotFound, Message: "resource not found"})
}

func methodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, ErrorResponse{Error: http.StatusMethodNotAllowed, Message: "method not allowed"})
}
