package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skolard/skolard-api/internal/service"
	appErrors "github.com/skolard/skolard-api/pkg/errors"
	"github.com/skolard/skolard-api/pkg/response"
)

// RatingHandler exposes the post-session rating endpoints.
type RatingHandler struct {
	service *service.RatingService
}

// NewRatingHandler creates a new handler.
func NewRatingHandler(svc *service.RatingService) *RatingHandler {
	return &RatingHandler{service: svc}
}

// Pending godoc
// @Summary Pending rating requests
// @Description List the authenticated student's unanswered rating requests
// @Tags Ratings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /ratings/pending [get]
func (h *RatingHandler) Pending(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	reqs, err := h.service.Pending(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reqs, nil)
}

// Submit godoc
// @Summary Submit a rating
// @Description Answer a pending rating request with a rating from 1 to 5
// @Tags Ratings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rating request ID"
// @Param payload body object true "Rating"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /ratings/{id} [post]
func (h *RatingHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Rating int `json:"rating" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "rating required"))
		return
	}

	req, err := h.service.Submit(c.Request.Context(), claims.Email, c.Param("id"), payload.Rating)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Skip godoc
// @Summary Skip a rating
// @Description Complete a pending rating request without leaving a rating
// @Tags Ratings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rating request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /ratings/{id}/skip [post]
func (h *RatingHandler) Skip(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req, err := h.service.Skip(c.Request.Context(), claims.Email, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Generate godoc
// @Summary Generate rating requests
// @Description Create rating requests for ended sessions without one
// @Tags Ratings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /ratings/generate [post]
func (h *RatingHandler) Generate(c *gin.Context) {
	created, err := h.service.GeneratePending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"created": created}, nil)
}
