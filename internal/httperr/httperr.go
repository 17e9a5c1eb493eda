package httperr

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/table-booking/internal/domain/booking"
)

type HTTPError struct {
	Code           string `json:"error_code"`
	Message        string `json:"message"`
	Field          string `json:"field,omitempty"`
	AvailableSeats *int   `json:"availableSeats,omitempty"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

func Conflict(c *gin.Context, code, message string) {
	Write(c, http.StatusConflict, code, message)
}

// Unavailable asks the client to come back shortly.
func Unavailable(c *gin.Context, code, message string) {
	c.Header("Retry-After", "1")
	Write(c, http.StatusServiceUnavailable, code, message)
}

// FromError writes the response for an error returned by a use case.
func FromError(c *gin.Context, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		switch de.Kind {
		case domain.KindNotFound:
			code := "not_found"
			if de.Entity != "" {
				code = de.Entity + "_not_found"
			}
			NotFound(c, code, de.Message)
		case domain.KindInvalidArgument:
			c.JSON(http.StatusBadRequest, HTTPError{
				Code:    "invalid_argument",
				Message: de.Message,
				Field:   de.Field,
			})
		case domain.KindCapacityExceeded:
			seats := de.AvailableSeats
			c.JSON(http.StatusConflict, HTTPError{
				Code:           "capacity_exceeded",
				Message:        de.Message,
				AvailableSeats: &seats,
			})
		case domain.KindConflict:
			Unavailable(c, "conflict", de.Message)
		default:
			Internal(c, "internal_error", "unexpected error")
		}
		return
	}

	var be BusinessError
	if errors.As(err, &be) {
		status, ok := businessStatus[be.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		Write(c, status, be.Code, be.Code)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		Unavailable(c, "timeout", "request timed out")
		return
	}

	Internal(c, "internal_error", "unexpected error")
}
