package server

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func (s *Server) HandleListNotifications(c *gin.Context) {
	actor, ok := s.actor(c)
	if !ok {
		return
	}

	items, err := s.notifier.List(c.Request.Context(), actor.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

func (s *Server) HandleUnreadCount(c *gin.Context) {
	actor, ok := s.actor(c)
	if !ok {
		return
	}

	count, err := s.notifier.UnreadCount(c.Request.Context(), actor.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (s *Server) HandleMarkNotificationRead(c *gin.Context) {
	actor, ok := s.actor(c)
	if !ok {
		return
	}

	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.notifier.MarkRead(c.Request.Context(), actor.UserID, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

const streamHeartbeat = 25 * time.Second

// HandleNotificationStream delivers live notifications over SSE. Missed
// events are not replayed beyond the hub's small buffer; the durable rows
// behind GET /api/notifications are the source of truth on reconnect.
func (s *Server) HandleNotificationStream(c *gin.Context) {
	actor, ok := s.actor(c)
	if !ok {
		return
	}

	sub, backlog, err := s.hub.Subscribe(actor.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	for _, event := range backlog {
		c.SSEvent("notification", event)
	}
	c.Writer.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, open := <-sub.Events():
			if !open {
				return false
			}
			c.SSEvent("notification", event)
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
