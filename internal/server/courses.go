package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	activitydomain "github.com/edustack/campus/internal/activity/domain"
	coursedomain "github.com/edustack/campus/internal/course/domain"
)

func (s *Server) HandleListCourses(c *gin.Context) {
	items, err := s.courseSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": items})
}

func (s *Server) HandleGetCourse(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	course, err := s.courseSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (s *Server) HandleCreateCourse(c *gin.Context) {
	actor, ok := s.actor(c)
	if !ok {
		return
	}

	var req coursedomain.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	course, err := s.courseSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.activitySvc.Record(c.Request.Context(), activitydomain.Record{
		UserID:            actor.UserID,
		ActionType:        "course_created",
		ActionDescription: "course " + course.Title + " created",
		EntityType:        "course",
		EntityID:          int64(course.ID),
		EntityName:        course.Title,
	})

	c.JSON(http.StatusCreated, course)
}

func (s *Server) HandleListEnrollments(c *gin.Context) {
	actor, ok := s.actor(c)
	if !ok {
		return
	}

	items, err := s.enrollmentSvc.ListByUser(c.Request.Context(), actor.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": items})
}
