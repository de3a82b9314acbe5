package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"evcharge-backend/internal/domains/booking/model"
	"evcharge-backend/internal/domains/booking/service"
	"evcharge-backend/internal/shared/middleware"
	res "evcharge-backend/internal/shared/response"
	"evcharge-backend/internal/shared/utils"
)

type BookingHandler struct {
	service service.Service
}

func NewBookingHandler(s service.Service) *BookingHandler {
	return &BookingHandler{service: s}
}

// =====================================================
// SLOTS
// =====================================================

// ListSlots GET /api/slots?status=available
func (h *BookingHandler) ListSlots(c *gin.Context) {
	slots, err := h.service.ListSlots(c.Request.Context(), c.Query("status"))
	if err != nil {
		handleBookingError(c, err)
		return
	}
	res.Success(c, http.StatusOK, "Success", slots)
}

// =====================================================
// BOOKINGS
// =====================================================

// CreateBooking POST /api/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	// Step 1: Get user ID
	userID, ok := middleware.GetUserID(c)
	if !ok {
		res.Unauthorized(c, "Unauthorized")
		return
	}

	// Step 2: Bind
	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		res.Error(c, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	// Step 3: Call service (validate bên trong)
	booking, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		handleBookingError(c, err)
		return
	}

	res.Success(c, http.StatusCreated, "Booking created", booking)
}

// ListMyBookings GET /api/bookings?page=&limit=
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		res.Unauthorized(c, "Unauthorized")
		return
	}

	page, limit := utils.Pagination(c)
	out, err := h.service.ListByUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		handleBookingError(c, err)
		return
	}

	res.SuccessWithMeta(c, http.StatusOK, out.Bookings, &res.Meta{Page: out.Page, Limit: out.Limit, Total: out.Total})
}

// GetBooking GET /api/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		res.Unauthorized(c, "Unauthorized")
		return
	}
	bookingID, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		res.Error(c, http.StatusBadRequest, model.ErrCodeInvalidInput, "Invalid booking ID")
		return
	}

	booking, err := h.service.GetForUser(c.Request.Context(), userID, bookingID)
	if err != nil {
		handleBookingError(c, err)
		return
	}
	res.Success(c, http.StatusOK, "Success", booking)
}

// CancelBooking POST /api/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		res.Unauthorized(c, "Unauthorized")
		return
	}
	bookingID, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		res.Error(c, http.StatusBadRequest, model.ErrCodeInvalidInput, "Invalid booking ID")
		return
	}

	booking, err := h.service.Cancel(c.Request.Context(), userID, bookingID)
	if err != nil {
		handleBookingError(c, err)
		return
	}
	res.Success(c, http.StatusOK, "Booking cancelled", booking)
}

func handleBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrBookingNotFound):
		res.Error(c, http.StatusNotFound, model.ErrCodeBookingNotFound, "Booking not found")
	case errors.Is(err, model.ErrSlotNotFound):
		res.Error(c, http.StatusNotFound, model.ErrCodeSlotNotFound, "Charging slot not found")
	case errors.Is(err, model.ErrSlotUnavailable):
		res.Error(c, http.StatusConflict, model.ErrCodeSlotUnavailable, "Charging slot is not available")
	case errors.Is(err, model.ErrTimeConflict):
		res.Error(c, http.StatusConflict, model.ErrCodeTimeConflict, "Slot already booked for this time range")
	case errors.Is(err, model.ErrCannotCancel):
		res.Error(c, http.StatusConflict, model.ErrCodeCannotCancel, "Booking cannot be cancelled")
	case errors.Is(err, model.ErrForbidden):
		res.Error(c, http.StatusForbidden, model.ErrCodeForbidden, "You do not have access to this booking")
	default:
		var be *model.BookingError
		if errors.As(err, &be) {
			res.Error(c, http.StatusBadRequest, be.Code, be.Message)
			return
		}
		res.InternalServerError(c, "Internal server error")
	}
}
