package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	paymentdomain "github.com/edustack/campus/internal/payment/domain"
)

// HandlePaymentWebhook accepts {type, data:{id}} deliveries. The response
// code decides redelivery: 2xx once the event has been durably classified
// (applied, duplicate, conflicted or discarded), non-2xx only when a
// gateway or storage outage makes redelivery actually useful.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	var event paymentdomain.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		// A body we cannot parse will never become parseable; ack it.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	outcome, err := s.paymentSvc.HandleWebhook(c.Request.Context(), event)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrGatewayUnavailable) {
			AbortWithError(c, err)
			return
		}
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorResponse{
			Error: errorPayload{Type: "storage_failure", Message: "event not durably recorded, retry later"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": string(outcome)})
}

func (s *Server) HandleCreateCheckout(c *gin.Context) {
	actor, ok := s.actor(c)
	if !ok {
		return
	}

	courseID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || courseID == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	handle, err := s.paymentSvc.CreateCheckout(c.Request.Context(), courseID, actor.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handle)
}
