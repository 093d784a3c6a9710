package response

import (
	"github.com/gin-gonic/gin"
)

// Response is the envelope used for errors and status endpoints. Resource
// endpoints return the bare resource on success.
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Detail    string      `json:"detail,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     interface{} `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func requestID(c *gin.Context) string {
	reqID, _ := c.Get("RequestID")
	idStr, _ := reqID.(string) // Safe type assertion
	return idStr
}

// Success sends a success envelope
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: requestID(c),
	})
}

// Error sends an error response. detail mirrors message so clients that
// read either field get the reason.
func Error(c *gin.Context, code int, message string, err interface{}) {
	c.JSON(code, Response{
		Success:   false,
		Message:   message,
		Detail:    message,
		Error:     err,
		RequestID: requestID(c),
	})
}
