// Package handler implements the HTTP API of the assistant service.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campus-io/study-buddy/pkg/utils/errors"
)

// SuccessResponse is the envelope for successful JSON responses.
type SuccessResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is the envelope for failed JSON responses.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, SuccessResponse{Code: 0, Message: "success", Data: data})
}

func writeError(c *gin.Context, err error) {
	errno := errors.FromError(err)
	c.JSON(errno.HTTPStatus(), ErrorResponse{Code: errno.Code, Message: errno.Msg})
}
