// Package response writes the JSON envelope every endpoint answers with.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageza/mealplanner/backend/internal/apperror"
	"github.com/pageza/mealplanner/backend/internal/types"
	"go.uber.org/zap"
)

// Envelope is the body shape of every JSON response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK writes a 200 envelope.
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes an error envelope with the given status.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: false, Error: message})
}

// AbortWithError writes an error envelope and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// Error converts err into an envelope. Classified errors keep their status and
// message; anything else is logged and reported as a generic 500.
func Error(c *gin.Context, err error) {
	if appErr, ok := apperror.As(err); ok {
		status := appErr.StatusCode()
		if status >= http.StatusInternalServerError {
			logError(c, err)
		}
		c.JSON(status, Envelope{Success: false, Message: appErr.Details, Error: appErr.Message})
		return
	}
	logError(c, err)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, Envelope{Success: false, Error: "Internal server error"})
}

// BindError reports a request binding failure as 400.
func BindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Envelope{
		Success: false,
		Message: types.ValidationMessage(err),
		Error:   "Validation failed",
	})
}

func logError(c *gin.Context, err error) {
	zap.L().Error("Request failed",
		zap.String("request_id", c.GetString("request_id")),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
}
