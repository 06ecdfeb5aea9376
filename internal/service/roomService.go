package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	repository "github.com/ds124wfegd/hotel-booking/internal/database/postgres"
	"github.com/ds124wfegd/hotel-booking/internal/entity"
)

// Причины недоступности комнаты. Обычная занятость — не ошибка,
// а штатный ответ проверки.
const (
	ReasonHotelNotAccepting = "hotel is not accepting bookings"
	ReasonRoomClosed        = "room is closed"
	ReasonTypeUnavailable   = "room type is not available for booking"
	ReasonTooManyGuests     = "number of guests exceeds room capacity"
	ReasonDatesTaken        = "room is already booked for the selected dates"
)

// reasonNotAvailableUntil — причина для комнаты с плановым временем
// открытия позже заезда (ремонт, уборка)
func reasonNotAvailableUntil(t time.Time) string {
	return fmt.Sprintf("room is not available until %s", t.Format("2006-01-02 15:04"))
}

type roomService struct {
	roomRepo    repository.RoomRepository
	bookingRepo repository.BookingRepository
	roomLogRepo repository.RoomLogRepository
}

// NewRoomService создает новый экземпляр RoomService
func NewRoomService(
	roomRepo repository.RoomRepository,
	bookingRepo repository.BookingRepository,
	roomLogRepo repository.RoomLogRepository,
) RoomService {
	return &roomService{
		roomRepo:    roomRepo,
		bookingRepo: bookingRepo,
		roomLogRepo: roomLogRepo,
	}
}

// CheckAvailability проверяет доступность комнаты на даты запроса.
// Порядок проверок: комната, плановое время открытия, тип, вместимость,
// отель, и лишь затем пересечение дат с живыми бронированиями.
func (s *roomService) CheckAvailability(ctx context.Context, req *AvailabilityRequest) (*entity.AvailabilityResult, error) {
	if err := validateStayDates(req.CheckInDate, req.CheckOutDate); err != nil {
		return nil, err
	}

	detail, err := s.roomRepo.GetRoomDetail(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	if !detail.Room.IsOpen() {
		return &entity.AvailabilityResult{Available: false, Reason: ReasonRoomClosed}, nil
	}
	if t := detail.Room.EstimatedAvailableTime; t != nil && t.After(req.CheckInDate.Time) {
		return &entity.AvailabilityResult{Available: false, Reason: reasonNotAvailableUntil(*t)}, nil
	}
	if !detail.RoomType.Availability {
		return &entity.AvailabilityResult{Available: false, Reason: ReasonTypeUnavailable}, nil
	}
	if req.People > detail.RoomType.MaxGuests {
		return &entity.AvailabilityResult{Available: false, Reason: ReasonTooManyGuests}, nil
	}
	if !detail.Hotel.AcceptsBookings() {
		return &entity.AvailabilityResult{Available: false, Reason: ReasonHotelNotAccepting}, nil
	}

	overlapping, err := s.bookingRepo.CountOverlapping(ctx, req.RoomID, req.CheckInDate, req.CheckOutDate, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check date overlap: %w", err)
	}
	if overlapping > 0 {
		return &entity.AvailabilityResult{Available: false, Reason: ReasonDatesTaken}, nil
	}

	return &entity.AvailabilityResult{Available: true}, nil
}

// QuotePrice рассчитывает стоимость проживания в комнате на даты запроса
func (s *roomService) QuotePrice(ctx context.Context, roomID int64, checkIn, checkOut entity.Date) (*entity.PriceBreakdown, error) {
	if err := validateStayDates(checkIn, checkOut); err != nil {
		return nil, err
	}

	detail, err := s.roomRepo.GetRoomDetail(ctx, roomID)
	if err != nil {
		return nil, err
	}

	price, err := s.roomRepo.GetPriceByType(ctx, detail.RoomType.ID)
	if err != nil {
		return nil, err
	}

	return CalculatePrice(price, checkIn, checkOut), nil
}

// GetAvailableRooms возвращает свободные комнаты отеля на даты запроса
// вместе с расчётом цены. Цены типов кэшируются в пределах запроса.
func (s *roomService) GetAvailableRooms(ctx context.Context, hotelID int64, checkIn, checkOut entity.Date) ([]*entity.AvailableRoom, error) {
	if err := validateStayDates(checkIn, checkOut); err != nil {
		return nil, err
	}

	rooms, err := s.roomRepo.GetAvailableRoomsByHotel(ctx, hotelID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	// Комната без ценовой записи не попадает в выдачу.
	prices := make(map[int64]*entity.RoomPrice)
	result := make([]*entity.AvailableRoom, 0, len(rooms))
	for _, room := range rooms {
		price, ok := prices[room.TypeID]
		if !ok {
			price, err = s.roomRepo.GetPriceByType(ctx, room.TypeID)
			if errors.Is(err, entity.ErrRoomPriceNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			prices[room.TypeID] = price
		}
		room.Pricing = CalculatePrice(price, checkIn, checkOut)
		result = append(result, room)
	}

	return result, nil
}

// GetRoomHistory возвращает журнал событий комнаты, новые записи первыми
func (s *roomService) GetRoomHistory(ctx context.Context, roomID int64, limit int) ([]*entity.RoomLog, error) {
	if _, err := s.roomRepo.GetRoomDetail(ctx, roomID); err != nil {
		return nil, err
	}
	return s.roomLogRepo.GetByRoomID(ctx, roomID, limit)
}
