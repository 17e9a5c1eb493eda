package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/table-booking/internal/httperr"
	ucbooking "github.com/BruksfildServices01/table-booking/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type BookingHandler struct {
	availability *ucbooking.ComputeAvailableSeats
	create       *ucbooking.CreateBooking
	update       *ucbooking.UpdateBooking
	cancel       *ucbooking.CancelBooking
	get          *ucbooking.GetBooking
}

func NewBookingHandler(
	availability *ucbooking.ComputeAvailableSeats,
	create *ucbooking.CreateBooking,
	update *ucbooking.UpdateBooking,
	cancel *ucbooking.CancelBooking,
	get *ucbooking.GetBooking,
) *BookingHandler {
	return &BookingHandler{
		availability: availability,
		create:       create,
		update:       update,
		cancel:       cancel,
		get:          get,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateBookingRequest struct {
	RestaurantID    string `json:"restaurantId"`
	ReservationTime string `json:"reservationTime"`
	Duration        string `json:"duration"`
	Guests          int    `json:"guests"`
	UserName        string `json:"userName"`
	UserEmail       string `json:"userEmail"`
}

type UpdateBookingRequest struct {
	ReservationTime string `json:"reservationTime"`
	Duration        string `json:"duration"`
	Guests          *int   `json:"guests"`
}

// ======================================================
// AVAILABILITY
// ======================================================

// Availability serves GET /api/availability.
func (h *BookingHandler) Availability(c *gin.Context) {
	h.seats(c, ucbooking.AvailabilityInput{
		RestaurantID:     c.Query("restaurantId"),
		Time:             c.Query("time"),
		Duration:         c.Query("duration"),
		ExcludeBookingID: c.Query("excludeBookingId"),
	})
}

// Seats serves the booking page's GET /api/bookings/seats/:restaurantId,
// which omits the duration for a one hour slot.
func (h *BookingHandler) Seats(c *gin.Context) {
	h.seats(c, ucbooking.AvailabilityInput{
		RestaurantID:     c.Param("restaurantId"),
		Time:             c.Query("reservationTime"),
		Duration:         c.DefaultQuery("duration", "1h"),
		ExcludeBookingID: c.Query("excludeBookingId"),
	})
}

func (h *BookingHandler) seats(c *gin.Context, in ucbooking.AvailabilityInput) {
	out, err := h.availability.Execute(c.Request.Context(), in)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ======================================================
// CREATE
// ======================================================

func (h *BookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	out, err := h.create.Execute(c.Request.Context(), ucbooking.CreateBookingInput{
		RestaurantID:    req.RestaurantID,
		ReservationTime: req.ReservationTime,
		Duration:        req.Duration,
		Guests:          req.Guests,
		UserName:        req.UserName,
		UserEmail:       req.UserEmail,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, out)
}

// ======================================================
// GET
// ======================================================

func (h *BookingHandler) Get(c *gin.Context) {
	out, err := h.get.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ======================================================
// UPDATE
// ======================================================

func (h *BookingHandler) Update(c *gin.Context) {
	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	out, err := h.update.Execute(c.Request.Context(), ucbooking.UpdateBookingInput{
		BookingID:       c.Param("id"),
		ReservationTime: req.ReservationTime,
		Duration:        req.Duration,
		Guests:          req.Guests,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// ======================================================
// CANCEL
// ======================================================

func (h *BookingHandler) Cancel(c *gin.Context) {
	out, err := h.cancel.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking cancelled.",
		"booking": out,
	})
}
