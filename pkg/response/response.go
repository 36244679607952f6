package response

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response represents a standard API response
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success sends a successful response
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error sends an error response. The underlying error, if any, is logged
// but never leaked to the client.
func Error(c *gin.Context, code int, message string, err error) {
	if err != nil {
		zap.L().Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", code),
			zap.String("message", message),
			zap.Error(err),
		)
	}

	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}
