package transport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/ds124wfegd/hotel-booking/internal/service"
)

type RoomHandler struct {
	roomService service.RoomService
}

func NewRoomHandler(roomService service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// parseDateParam разбирает дату из query-параметра в формате YYYY-MM-DD
func parseDateParam(c *gin.Context, name string) (entity.Date, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   name + " is required",
		})
		return entity.Date{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "invalid " + name + ", expected YYYY-MM-DD",
		})
		return entity.Date{}, false
	}
	return entity.DateOf(t), true
}

// CheckAvailability проверяет доступность комнаты на даты запроса
func (h *RoomHandler) CheckAvailability(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid room id"})
		return
	}

	checkIn, ok := parseDateParam(c, "check_in")
	if !ok {
		return
	}
	checkOut, ok := parseDateParam(c, "check_out")
	if !ok {
		return
	}

	people, err := strconv.Atoi(c.DefaultQuery("people", "1"))
	if err != nil || people <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid people count"})
		return
	}

	result, err := h.roomService.CheckAvailability(c.Request.Context(), &service.AvailabilityRequest{
		RoomID:       roomID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		People:       people,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, result)
}

// QuotePrice рассчитывает стоимость проживания без создания брони
func (h *RoomHandler) QuotePrice(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid room id"})
		return
	}

	checkIn, ok := parseDateParam(c, "check_in")
	if !ok {
		return
	}
	checkOut, ok := parseDateParam(c, "check_out")
	if !ok {
		return
	}

	pricing, err := h.roomService.QuotePrice(c.Request.Context(), roomID, checkIn, checkOut)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, pricing)
}

// GetRoomHistory возвращает журнал событий комнаты
func (h *RoomHandler) GetRoomHistory(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid room id"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	logs, err := h.roomService.GetRoomHistory(c.Request.Context(), roomID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, logs)
}

// GetAvailableRooms возвращает свободные комнаты отеля на даты запроса
func (h *RoomHandler) GetAvailableRooms(c *gin.Context) {
	hotelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid hotel id"})
		return
	}

	checkIn, ok := parseDateParam(c, "check_in")
	if !ok {
		return
	}
	checkOut, ok := parseDateParam(c, "check_out")
	if !ok {
		return
	}

	rooms, err := h.roomService.GetAvailableRooms(c.Request.Context(), hotelID, checkIn, checkOut)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    rooms,
		Meta: map[string]interface{}{
			"hotel_id":  hotelID,
			"check_in":  checkIn.String(),
			"check_out": checkOut.String(),
			"total":     len(rooms),
		},
	})
}
