package middleware

import (
	"errors"
	"net/http"

	"go-jobboard-backend/internal/delivery/http/response"
	"go-jobboard-backend/pkg/apperror"
	"go-jobboard-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Check if there are errors appended to the context
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code < http.StatusInternalServerError {
			response.Error(c, appErr.Code, appErr.Message, nil)
			return
		}

		// SECURITY: Never expose internal error details to clients.
		logger.Log.Error("internal server error",
			"error", err,
			"path", c.FullPath(),
			"request_id", c.GetString("RequestID"),
		)
		code := http.StatusInternalServerError
		message := "An unexpected error occurred. Please try again later."
		if appErr != nil && appErr.Code != http.StatusInternalServerError {
			code, message = appErr.Code, appErr.Message
		}
		response.Error(c, code, message, nil)
	}
}
