package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	activitydomain "github.com/edustack/campus/internal/activity/domain"
)

func (s *Server) HandleListActivity(c *gin.Context) {
	actor, ok := s.actor(c)
	if !ok {
		return
	}
	if actor.UserRole != "admin" {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	filter := activitydomain.ListFilter{
		ActionType: strings.TrimSpace(c.Query("action_type")),
		EntityType: strings.TrimSpace(c.Query("entity_type")),
	}
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		if userID, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.UserID = userID
		}
	}
	if raw := strings.TrimSpace(c.Query("start_at")); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.StartAt = &parsed
		}
	}
	if raw := strings.TrimSpace(c.Query("end_at")); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.EndAt = &parsed
		}
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}

	entries, err := s.activitySvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": entries})
}
