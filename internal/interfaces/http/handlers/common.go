// Package handlers implements the status endpoints served in watch mode.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusForError maps an application error to an HTTP status.
func statusForError(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeBadRequest, errors.ErrCodeValidation:
		return http.StatusBadRequest
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeAppError(c *gin.Context, err error) {
	status := statusForError(err)
	resp := ErrorResponse{Code: errors.GetCode(err).String(), Message: err.Error()}
	if status == http.StatusInternalServerError {
		// Mask internal errors
		resp = ErrorResponse{Code: errors.ErrCodeInternal.String(), Message: "internal server error"}
	}
	c.AbortWithStatusJSON(status, resp)
}

//Personal.AI order the ending
