package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	coursedomain "github.com/edustack/campus/internal/course/domain"
	enrollmentdomain "github.com/edustack/campus/internal/enrollment/domain"
	notificationdomain "github.com/edustack/campus/internal/notification/domain"
	paymentdomain "github.com/edustack/campus/internal/payment/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: "authentication required"}
	case errors.Is(err, ErrNotFound),
		errors.Is(err, coursedomain.ErrCourseNotFound),
		errors.Is(err, notificationdomain.ErrNotificationNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "resource not found"}
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, coursedomain.ErrInvalidCourse),
		errors.Is(err, coursedomain.ErrInvalidPrice),
		errors.Is(err, enrollmentdomain.ErrInvalidEnrollment),
		errors.Is(err, notificationdomain.ErrInvalidNotification),
		errors.Is(err, paymentdomain.ErrInvalidCheckout):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: err.Error()}
	case errors.Is(err, coursedomain.ErrSlugTaken):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: "a course with this title already exists"}
	case errors.Is(err, paymentdomain.ErrGatewayUnavailable):
		return http.StatusBadGateway, errorPayload{Type: "gateway_unavailable", Message: "payment gateway unavailable"}
	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	}
}
