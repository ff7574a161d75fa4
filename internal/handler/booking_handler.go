package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skolard/skolard-api/internal/models"
	"github.com/skolard/skolard-api/internal/service"
	appErrors "github.com/skolard/skolard-api/pkg/errors"
	"github.com/skolard/skolard-api/pkg/response"
)

// BookingHandler exposes the student-facing booking endpoints.
type BookingHandler struct {
	service *service.BookingService
	metrics *service.MetricsService
}

// NewBookingHandler creates a new handler.
func NewBookingHandler(svc *service.BookingService, metrics *service.MetricsService) *BookingHandler {
	return &BookingHandler{service: svc, metrics: metrics}
}

// Available godoc
// @Summary Browse available sessions
// @Description List bookable sessions for a course with an optional filter
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param course query string true "Course name"
// @Param filter query string false "One of time, rate, tutor"
// @Param range_start query string false "RFC3339 start of window (time filter)"
// @Param range_end query string false "RFC3339 end of window (time filter)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /bookings/available [get]
func (h *BookingHandler) Available(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	q := models.AvailabilityQuery{
		CourseName:   c.Query("course"),
		StudentEmail: claims.Email,
		Filter:       models.SessionFilter(c.Query("filter")),
	}
	switch q.Filter {
	case models.FilterNone, models.FilterTime, models.FilterRate, models.FilterTutor:
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "filter must be one of time, rate, tutor"))
		return
	}
	if q.Filter == models.FilterTime {
		var err error
		if q.RangeStart, err = time.Parse(time.RFC3339, c.Query("range_start")); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "range_start must be RFC3339"))
			return
		}
		if q.RangeEnd, err = time.Parse(time.RFC3339, c.Query("range_end")); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "range_end must be RFC3339"))
			return
		}
	}

	sessions, err := h.service.Available(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// Book godoc
// @Summary Book a session
// @Description Book an open session for the authenticated student
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings/{id} [post]
func (h *BookingHandler) Book(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "session id must be numeric"))
		return
	}

	session, err := h.service.Book(c.Request.Context(), claims.Email, id)
	if h.metrics != nil {
		h.metrics.ObserveBooking("book", err)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Unbook godoc
// @Summary Release a booking
// @Description Release the authenticated student's booking on a session
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Unbook(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "session id must be numeric"))
		return
	}

	session, err := h.service.Unbook(c.Request.Context(), claims.Email, id)
	if h.metrics != nil {
		h.metrics.ObserveBooking("unbook", err)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Upcoming godoc
// @Summary Upcoming bookings
// @Description List the authenticated student's upcoming booked sessions
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /bookings/upcoming [get]
func (h *BookingHandler) Upcoming(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	sessions, err := h.service.Upcoming(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}
