package transport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/ds124wfegd/hotel-booking/internal/service"
	"github.com/ds124wfegd/hotel-booking/internal/transport/middleware"
)

type BookingHandler struct {
	bookingService service.BookingService
}

func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// UpdateStatusRequest представляет запрос на смену статуса бронирования
type UpdateStatusRequest struct {
	Status entity.BookingStatus `json:"status" binding:"required"`
}

// actorFrom собирает инициатора операции из значений, положенных
// identity-middleware
func actorFrom(c *gin.Context) *service.Actor {
	actor := &service.Actor{Role: entity.RoleCustomer}
	if id, ok := c.Get(middleware.UserIDKey); ok {
		actor.UserID = id.(int64)
	}
	if role, ok := c.Get(middleware.UserRoleKey); ok {
		actor.Role = role.(string)
	}
	return actor
}

// CreateBooking создает новое бронирование
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	resp, err := h.bookingService.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, resp)
}

// GetBooking возвращает бронирование по ID
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid booking id"})
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, booking)
}

// ListBookings возвращает страницу бронирований по фильтрам
func (h *BookingHandler) ListBookings(c *gin.Context) {
	filter := &entity.BookingFilter{}

	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid user_id"})
			return
		}
		filter.UserID = &id
	}
	if raw := c.Query("room_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid room_id"})
			return
		}
		filter.RoomID = &id
	}
	if raw := c.Query("hotel_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid hotel_id"})
			return
		}
		filter.HotelID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status := entity.BookingStatus(raw)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid status"})
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("check_in_from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid check_in_from"})
			return
		}
		filter.CheckInFrom = &t
	}
	if raw := c.Query("check_in_to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid check_in_to"})
			return
		}
		filter.CheckInTo = &t
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	filter.Limit = limit
	filter.Offset = offset

	list, err := h.bookingService.ListBookings(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    list.Bookings,
		Meta: map[string]interface{}{
			"total":    list.Total,
			"limit":    list.Limit,
			"offset":   list.Offset,
			"has_more": list.Offset+len(list.Bookings) < list.Total,
		},
	})
}

// UpdateBooking изменяет даты и количество гостей бронирования
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid booking id"})
		return
	}

	var req service.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	booking, err := h.bookingService.UpdateBooking(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, booking)
}

// UpdateStatus выполняет переход статусной машины бронирования
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid booking id"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	if err := h.bookingService.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "status updated"})
}

// CancelBooking отменяет бронирование с учётом роли инициатора
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid booking id"})
		return
	}

	if err := h.bookingService.Cancel(c.Request.Context(), id, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "booking cancellation requested"})
}

// CheckIn фиксирует заселение гостя
func (h *BookingHandler) CheckIn(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid booking id"})
		return
	}

	if err := h.bookingService.CheckIn(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "guest checked in"})
}

// CheckOut фиксирует выселение гостя
func (h *BookingHandler) CheckOut(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid booking id"})
		return
	}

	if err := h.bookingService.CheckOut(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "guest checked out"})
}
