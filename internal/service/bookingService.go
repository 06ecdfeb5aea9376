package service

import (
	"context"
	"fmt"
	"log"

	repository "github.com/ds124wfegd/hotel-booking/internal/database/postgres"
	"github.com/ds124wfegd/hotel-booking/internal/entity"
)

// allowedTransitions — статусная машина бронирования. Терминальные
// статусы (cancelled, rejected) не имеют исходящих переходов, pending
// никогда не бывает целевым.
var allowedTransitions = map[entity.BookingStatus][]entity.BookingStatus{
	entity.BookingStatusPending: {
		entity.BookingStatusAccepted,
		entity.BookingStatusRejected,
		entity.BookingStatusCancelRequested,
		entity.BookingStatusCancelled,
		entity.BookingStatusMaintained,
	},
	entity.BookingStatusAccepted: {
		entity.BookingStatusCancelRequested,
		entity.BookingStatusCancelled,
		entity.BookingStatusMaintained,
	},
	entity.BookingStatusCancelRequested: {
		entity.BookingStatusCancelled,
	},
	entity.BookingStatusMaintained: {
		entity.BookingStatusCancelled,
		entity.BookingStatusCancelRequested,
	},
}

// CanTransition проверяет допустимость перехода статусной машиной
func CanTransition(from, to entity.BookingStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	roomRepo    repository.RoomRepository
	roomLogRepo repository.RoomLogRepository

	maxStayNights int
	maxPeople     int
}

// NewBookingService создает новый экземпляр BookingService
func NewBookingService(
	bookingRepo repository.BookingRepository,
	roomRepo repository.RoomRepository,
	roomLogRepo repository.RoomLogRepository,
	maxStayNights int,
	maxPeople int,
) BookingService {
	if maxStayNights <= 0 {
		maxStayNights = 30
	}
	if maxPeople <= 0 {
		maxPeople = 10
	}
	return &bookingService{
		bookingRepo:   bookingRepo,
		roomRepo:      roomRepo,
		roomLogRepo:   roomLogRepo,
		maxStayNights: maxStayNights,
		maxPeople:     maxPeople,
	}
}

// validateStayLimits проверяет запрошенную длительность и число гостей
// против глобальных лимитов площадки
func (s *bookingService) validateStayLimits(checkIn, checkOut entity.Date, people int) error {
	if nightsBetween(checkIn, checkOut) > s.maxStayNights {
		return fmt.Errorf("%w: stay exceeds %d nights", entity.ErrValidation, s.maxStayNights)
	}
	if people <= 0 || people > s.maxPeople {
		return fmt.Errorf("%w: people must be between 1 and %d", entity.ErrValidation, s.maxPeople)
	}
	return nil
}

// CreateBooking создает новое бронирование. Предварительные проверки
// идут вне транзакции, но пересечение дат перепроверяется внутри
// сериализуемой транзакции вставки — гонка двух запросов на одни даты
// закрывается на уровне БД.
func (s *bookingService) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*BookingResponse, error) {
	if err := validateStayDates(req.CheckInDate, req.CheckOutDate); err != nil {
		return nil, err
	}
	if err := s.validateStayLimits(req.CheckInDate, req.CheckOutDate, req.People); err != nil {
		return nil, err
	}

	detail, err := s.roomRepo.GetRoomDetail(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	if !detail.Room.IsOpen() {
		return nil, fmt.Errorf("%w: %s", entity.ErrConflict, ReasonRoomClosed)
	}
	if t := detail.Room.EstimatedAvailableTime; t != nil && t.After(req.CheckInDate.Time) {
		return nil, fmt.Errorf("%w: %s", entity.ErrConflict, reasonNotAvailableUntil(*t))
	}
	if !detail.RoomType.Availability {
		return nil, fmt.Errorf("%w: %s", entity.ErrConflict, ReasonTypeUnavailable)
	}
	if req.People > detail.RoomType.MaxGuests {
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, ReasonTooManyGuests)
	}
	if !detail.Hotel.AcceptsBookings() {
		return nil, fmt.Errorf("%w: %s", entity.ErrConflict, ReasonHotelNotAccepting)
	}

	price, err := s.roomRepo.GetPriceByType(ctx, detail.RoomType.ID)
	if err != nil {
		return nil, err
	}
	pricing := CalculatePrice(price, req.CheckInDate, req.CheckOutDate)

	booking := &entity.Booking{
		UserID:       req.UserID,
		RoomID:       req.RoomID,
		CheckInDate:  req.CheckInDate,
		CheckOutDate: req.CheckOutDate,
		People:       req.People,
		TotalPrice:   pricing.TotalPrice,
		Status:       entity.BookingStatusPending,
	}

	roomLog := &entity.RoomLog{
		RoomID:    req.RoomID,
		EventType: entity.RoomLogBookCreated,
		ExtraContext: fmt.Sprintf("user=%d, check_in=%s, check_out=%s",
			req.UserID, req.CheckInDate, req.CheckOutDate),
	}

	if err := s.bookingRepo.CreateWithLog(ctx, booking, roomLog); err != nil {
		return nil, err
	}

	log.Printf("Бронирование создано: ID=%d, Room=%d, User=%d, %s..%s, Total=%d",
		booking.ID, booking.RoomID, booking.UserID,
		booking.CheckInDate, booking.CheckOutDate, booking.TotalPrice)

	return &BookingResponse{Booking: booking, Pricing: pricing}, nil
}

// GetBooking возвращает бронирование по ID
func (s *bookingService) GetBooking(ctx context.Context, id int64) (*entity.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

// ListBookings возвращает страницу бронирований по фильтру
func (s *bookingService) ListBookings(ctx context.Context, filter *entity.BookingFilter) (*entity.BookingList, error) {
	return s.bookingRepo.List(ctx, filter)
}

// UpdateBooking изменяет даты и количество гостей бронирования.
// Цена пересчитывается по текущему прайсу; пересечение с другими живыми
// бронированиями перепроверяется в транзакции обновления.
func (s *bookingService) UpdateBooking(ctx context.Context, id int64, req *UpdateBookingRequest) (*entity.Booking, error) {
	if err := validateStayDates(req.CheckInDate, req.CheckOutDate); err != nil {
		return nil, err
	}
	if err := s.validateStayLimits(req.CheckInDate, req.CheckOutDate, req.People); err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.Status != entity.BookingStatusPending && booking.Status != entity.BookingStatusAccepted {
		return nil, entity.ErrBookingNotModifiable
	}

	detail, err := s.roomRepo.GetRoomDetail(ctx, booking.RoomID)
	if err != nil {
		return nil, err
	}
	if req.People > detail.RoomType.MaxGuests {
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, ReasonTooManyGuests)
	}

	price, err := s.roomRepo.GetPriceByType(ctx, detail.RoomType.ID)
	if err != nil {
		return nil, err
	}
	pricing := CalculatePrice(price, req.CheckInDate, req.CheckOutDate)

	booking.CheckInDate = req.CheckInDate
	booking.CheckOutDate = req.CheckOutDate
	booking.People = req.People
	booking.TotalPrice = pricing.TotalPrice

	roomLog := &entity.RoomLog{
		RoomID:    booking.RoomID,
		EventType: entity.RoomLogBookCreated,
		ExtraContext: fmt.Sprintf("booking=%d, check_in=%s, check_out=%s",
			booking.ID, req.CheckInDate, req.CheckOutDate),
	}

	if err := s.bookingRepo.UpdateWithLog(ctx, booking, roomLog); err != nil {
		return nil, err
	}

	log.Printf("Бронирование обновлено: ID=%d, %s..%s, Total=%d",
		booking.ID, booking.CheckInDate, booking.CheckOutDate, booking.TotalPrice)

	return booking, nil
}

// UpdateStatus выполняет переход статусной машины бронирования
func (s *bookingService) UpdateStatus(ctx context.Context, id int64, status entity.BookingStatus) error {
	if !status.Valid() {
		return entity.ErrInvalidStatus
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !CanTransition(booking.Status, status) {
		return fmt.Errorf("%w: %s -> %s", entity.ErrInvalidTransition, booking.Status, status)
	}

	eventType := entity.RoomLogBookCreated
	if status == entity.BookingStatusCancelled {
		eventType = entity.RoomLogBookCancelled
	}
	roomLog := &entity.RoomLog{
		RoomID:       booking.RoomID,
		EventType:    eventType,
		ExtraContext: fmt.Sprintf("booking=%d, status=%s", booking.ID, status),
	}

	if err := s.bookingRepo.UpdateStatusWithLog(ctx, id, status, roomLog); err != nil {
		return err
	}

	log.Printf("Статус бронирования изменён: ID=%d, %s -> %s", id, booking.Status, status)
	return nil
}

// Cancel отменяет бронирование с учётом роли инициатора: клиент
// оставляет заявку на отмену, персонал отменяет сразу. Клиент может
// отменять только собственные бронирования.
func (s *bookingService) Cancel(ctx context.Context, id int64, actor *Actor) error {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	target := entity.BookingStatusCancelled
	if !actor.IsStaff() {
		if booking.UserID != actor.UserID {
			return entity.ErrNotBookingOwner
		}
		target = entity.BookingStatusCancelRequested
	}

	if !CanTransition(booking.Status, target) {
		return fmt.Errorf("%w: %s -> %s", entity.ErrInvalidTransition, booking.Status, target)
	}

	var roomLog *entity.RoomLog
	if target == entity.BookingStatusCancelled {
		roomLog = &entity.RoomLog{
			RoomID:       booking.RoomID,
			EventType:    entity.RoomLogBookCancelled,
			ExtraContext: fmt.Sprintf("booking=%d, by=%d", booking.ID, actor.UserID),
		}
	}

	if err := s.bookingRepo.UpdateStatusWithLog(ctx, id, target, roomLog); err != nil {
		return err
	}

	log.Printf("Отмена бронирования: ID=%d, инициатор=%d (%s), статус=%s",
		id, actor.UserID, actor.Role, target)
	return nil
}

// CheckIn фиксирует заселение гостя в журнале комнаты. Статус
// бронирования не меняется: заселение — событие аудита.
func (s *bookingService) CheckIn(ctx context.Context, id int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if booking.Status != entity.BookingStatusAccepted {
		return fmt.Errorf("%w: check-in requires an accepted booking", entity.ErrConflict)
	}

	return s.roomLogRepo.Create(ctx, &entity.RoomLog{
		RoomID:       booking.RoomID,
		EventType:    entity.RoomLogBookCheckIn,
		ExtraContext: fmt.Sprintf("booking=%d, user=%d", booking.ID, booking.UserID),
	})
}

// CheckOut фиксирует выселение гостя в журнале комнаты. Статус не
// проверяется: выселить можно и из брони, отменённой задним числом.
func (s *bookingService) CheckOut(ctx context.Context, id int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return s.roomLogRepo.Create(ctx, &entity.RoomLog{
		RoomID:       booking.RoomID,
		EventType:    entity.RoomLogBookCheckOut,
		ExtraContext: fmt.Sprintf("booking=%d, user=%d", booking.ID, booking.UserID),
	})
}
