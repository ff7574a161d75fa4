package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skolard/skolard-api/internal/service"
	appErrors "github.com/skolard/skolard-api/pkg/errors"
	"github.com/skolard/skolard-api/pkg/response"
)

// TutorHandler exposes tutor profile and transcript endpoints.
type TutorHandler struct {
	service *service.TutorService
}

// NewTutorHandler creates a new handler.
func NewTutorHandler(svc *service.TutorService) *TutorHandler {
	return &TutorHandler{service: svc}
}

// Profile godoc
// @Summary Tutor profile
// @Description Load a tutor's public profile and course list
// @Tags Tutors
// @Produce json
// @Security BearerAuth
// @Param email path string true "Tutor email"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutors/{email} [get]
func (h *TutorHandler) Profile(c *gin.Context) {
	tutor, err := h.service.Profile(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tutor, nil)
}

// RecordCourseGrade godoc
// @Summary Record a course grade
// @Description Save the authenticated tutor's transcript grade for a course
// @Tags Tutors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CourseGradeRequest true "Course grade payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /tutors/courses [put]
func (h *TutorHandler) RecordCourseGrade(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CourseGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course grade payload"))
		return
	}

	if err := h.service.RecordCourseGrade(c.Request.Context(), claims.Email, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CourseRating godoc
// @Summary Course rating
// @Description Mean student rating a tutor earned for a course
// @Tags Tutors
// @Produce json
// @Security BearerAuth
// @Param email path string true "Tutor email"
// @Param course query string true "Course name"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /tutors/{email}/rating [get]
func (h *TutorHandler) CourseRating(c *gin.Context) {
	avg, count, err := h.service.CourseRating(c.Request.Context(), c.Param("email"), c.Query("course"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"average": avg, "count": count}, nil)
}
