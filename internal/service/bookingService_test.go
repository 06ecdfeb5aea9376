package service

import (
	"context"
	"testing"
	"time"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRoomDetail() *entity.RoomDetail {
	return &entity.RoomDetail{
		Room:     entity.Room{ID: 1, TypeID: 10, Name: "101", Status: entity.RoomStatusOpen},
		RoomType: entity.RoomType{ID: 10, HotelID: 100, Type: "double", Availability: true, MaxGuests: 2},
		Hotel:    entity.Hotel{ID: 100, Name: "Grand", Status: entity.HotelStatusActive},
	}
}

func standardPrices() map[int64]*entity.RoomPrice {
	return map[int64]*entity.RoomPrice{
		10: {ID: 1, TypeID: 10, BasicPrice: 500000},
	}
}

func newBookingServiceForTest(roomRepo *fakeRoomRepo, bookingRepo *fakeBookingRepo, logRepo *fakeRoomLogRepo) BookingService {
	return NewBookingService(bookingRepo, roomRepo, logRepo, 30, 10)
}

// TestCanTransition тестирует замыкание статусной машины бронирования
func TestCanTransition(t *testing.T) {
	statuses := []entity.BookingStatus{
		entity.BookingStatusPending,
		entity.BookingStatusAccepted,
		entity.BookingStatusRejected,
		entity.BookingStatusCancelRequested,
		entity.BookingStatusCancelled,
		entity.BookingStatusMaintained,
	}

	allowed := map[entity.BookingStatus]map[entity.BookingStatus]bool{
		entity.BookingStatusPending: {
			entity.BookingStatusAccepted:        true,
			entity.BookingStatusRejected:        true,
			entity.BookingStatusCancelRequested: true,
			entity.BookingStatusCancelled:       true,
			entity.BookingStatusMaintained:      true,
		},
		entity.BookingStatusAccepted: {
			entity.BookingStatusCancelRequested: true,
			entity.BookingStatusCancelled:       true,
			entity.BookingStatusMaintained:      true,
		},
		entity.BookingStatusCancelRequested: {
			entity.BookingStatusCancelled: true,
		},
		entity.BookingStatusMaintained: {
			entity.BookingStatusCancelled:       true,
			entity.BookingStatusCancelRequested: true,
		},
	}

	for _, from := range statuses {
		for _, to := range statuses {
			expected := allowed[from][to]
			assert.Equal(t, expected, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	// Терминальные статусы не имеют исходящих переходов
	for _, to := range statuses {
		assert.False(t, CanTransition(entity.BookingStatusCancelled, to))
		assert.False(t, CanTransition(entity.BookingStatusRejected, to))
	}
}

// TestCreateBooking тестирует создание бронирования
func TestCreateBooking(t *testing.T) {
	checkIn := entity.DateOf(time.Now().AddDate(0, 0, 1))
	checkOut := entity.DateOf(time.Now().AddDate(0, 0, 3))

	roomRepo := &fakeRoomRepo{detail: openRoomDetail(), prices: standardPrices()}
	bookingRepo := newFakeBookingRepo()
	logRepo := &fakeRoomLogRepo{}
	svc := newBookingServiceForTest(roomRepo, bookingRepo, logRepo)

	resp, err := svc.CreateBooking(context.Background(), &CreateBookingRequest{
		UserID:       7,
		RoomID:       1,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		People:       2,
	})

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, entity.BookingStatusPending, resp.Booking.Status)
	assert.Equal(t, int64(1000000), resp.Booking.TotalPrice)
	assert.Equal(t, 2, resp.Pricing.Nights)

	// Создание брони пишет событие в журнал комнаты
	require.Len(t, bookingRepo.logs, 1)
	assert.Equal(t, entity.RoomLogBookCreated, bookingRepo.logs[0].EventType)
	assert.Equal(t, int64(1), bookingRepo.logs[0].RoomID)
}

// TestCreateBookingValidation тестирует отказы создания бронирования
func TestCreateBookingValidation(t *testing.T) {
	checkIn := entity.DateOf(time.Now().AddDate(0, 0, 1))
	checkOut := entity.DateOf(time.Now().AddDate(0, 0, 3))

	closedRoom := openRoomDetail()
	closedRoom.Room.Status = entity.RoomStatusClosed

	inactiveHotel := openRoomDetail()
	inactiveHotel.Hotel.Status = entity.HotelStatusInactive

	reopenAt := time.Now().AddDate(0, 0, 10)
	reopeningRoom := openRoomDetail()
	reopeningRoom.Room.EstimatedAvailableTime = &reopenAt

	unavailableType := openRoomDetail()
	unavailableType.RoomType.Availability = false

	tests := []struct {
		name        string
		detail      *entity.RoomDetail
		req         *CreateBookingRequest
		expectedErr error
	}{
		{
			name:   "check-out before check-in",
			detail: openRoomDetail(),
			req: &CreateBookingRequest{
				UserID: 7, RoomID: 1,
				CheckInDate: checkOut, CheckOutDate: checkIn, People: 2,
			},
			expectedErr: entity.ErrInvalidDateRange,
		},
		{
			name:   "check-in in the past",
			detail: openRoomDetail(),
			req: &CreateBookingRequest{
				UserID: 7, RoomID: 1,
				CheckInDate:  entity.DateOf(time.Now().AddDate(0, 0, -2)),
				CheckOutDate: checkOut, People: 2,
			},
			expectedErr: entity.ErrCheckInPast,
		},
		{
			name:   "stay longer than platform limit",
			detail: openRoomDetail(),
			req: &CreateBookingRequest{
				UserID: 7, RoomID: 1,
				CheckInDate:  checkIn,
				CheckOutDate: entity.DateOf(time.Now().AddDate(0, 0, 45)),
				People:       2,
			},
			expectedErr: entity.ErrValidation,
		},
		{
			name:   "hotel is not accepting bookings",
			detail: inactiveHotel,
			req: &CreateBookingRequest{
				UserID: 7, RoomID: 1,
				CheckInDate: checkIn, CheckOutDate: checkOut, People: 2,
			},
			expectedErr: entity.ErrConflict,
		},
		{
			name:   "room is closed",
			detail: closedRoom,
			req: &CreateBookingRequest{
				UserID: 7, RoomID: 1,
				CheckInDate: checkIn, CheckOutDate: checkOut, People: 2,
			},
			expectedErr: entity.ErrConflict,
		},
		{
			name:   "room reopens after check-in",
			detail: reopeningRoom,
			req: &CreateBookingRequest{
				UserID: 7, RoomID: 1,
				CheckInDate: checkIn, CheckOutDate: checkOut, People: 2,
			},
			expectedErr: entity.ErrConflict,
		},
		{
			name:   "room type is unavailable",
			detail: unavailableType,
			req: &CreateBookingRequest{
				UserID: 7, RoomID: 1,
				CheckInDate: checkIn, CheckOutDate: checkOut, People: 2,
			},
			expectedErr: entity.ErrConflict,
		},
		{
			name:   "too many guests for the room",
			detail: openRoomDetail(),
			req: &CreateBookingRequest{
				UserID: 7, RoomID: 1,
				CheckInDate: checkIn, CheckOutDate: checkOut, People: 5,
			},
			expectedErr: entity.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roomRepo := &fakeRoomRepo{detail: tt.detail, prices: standardPrices()}
			bookingRepo := newFakeBookingRepo()
			svc := newBookingServiceForTest(roomRepo, bookingRepo, &fakeRoomLogRepo{})

			_, err := svc.CreateBooking(context.Background(), tt.req)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expectedErr)
			assert.Empty(t, bookingRepo.bookings)
		})
	}
}

// TestCreateBookingRoomTaken тестирует отказ при занятой комнате
func TestCreateBookingRoomTaken(t *testing.T) {
	roomRepo := &fakeRoomRepo{detail: openRoomDetail(), prices: standardPrices()}
	bookingRepo := newFakeBookingRepo()
	bookingRepo.createErr = entity.ErrRoomUnavailable
	svc := newBookingServiceForTest(roomRepo, bookingRepo, &fakeRoomLogRepo{})

	_, err := svc.CreateBooking(context.Background(), &CreateBookingRequest{
		UserID: 7, RoomID: 1,
		CheckInDate:  entity.DateOf(time.Now().AddDate(0, 0, 1)),
		CheckOutDate: entity.DateOf(time.Now().AddDate(0, 0, 3)),
		People:       2,
	})

	assert.ErrorIs(t, err, entity.ErrRoomUnavailable)
}

// TestUpdateBooking тестирует изменение бронирования
func TestUpdateBooking(t *testing.T) {
	checkIn := entity.DateOf(time.Now().AddDate(0, 0, 1))
	checkOut := entity.DateOf(time.Now().AddDate(0, 0, 3))
	newCheckOut := entity.DateOf(time.Now().AddDate(0, 0, 5))

	tests := []struct {
		name          string
		status        entity.BookingStatus
		expectedErr   error
		expectedTotal int64
	}{
		{
			name:          "pending booking is modifiable",
			status:        entity.BookingStatusPending,
			expectedTotal: 2000000, // 4 ночи по базовой цене
		},
		{
			name:          "accepted booking is modifiable",
			status:        entity.BookingStatusAccepted,
			expectedTotal: 2000000,
		},
		{
			name:        "cancelled booking is not modifiable",
			status:      entity.BookingStatusCancelled,
			expectedErr: entity.ErrBookingNotModifiable,
		},
		{
			name:        "maintained booking is not modifiable",
			status:      entity.BookingStatusMaintained,
			expectedErr: entity.ErrBookingNotModifiable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roomRepo := &fakeRoomRepo{detail: openRoomDetail(), prices: standardPrices()}
			bookingRepo := newFakeBookingRepo()
			bookingRepo.add(&entity.Booking{
				ID: 1, UserID: 7, RoomID: 1,
				CheckInDate: checkIn, CheckOutDate: checkOut,
				People: 2, TotalPrice: 1000000, Status: tt.status,
			})
			svc := newBookingServiceForTest(roomRepo, bookingRepo, &fakeRoomLogRepo{})

			updated, err := svc.UpdateBooking(context.Background(), 1, &UpdateBookingRequest{
				CheckInDate:  checkIn,
				CheckOutDate: newCheckOut,
				People:       2,
			})

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Empty(t, bookingRepo.logs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedTotal, updated.TotalPrice)
			assert.Equal(t, newCheckOut, updated.CheckOutDate)

			// Изменение брони оставляет след в журнале комнаты
			require.Len(t, bookingRepo.logs, 1)
			assert.Equal(t, entity.RoomLogBookCreated, bookingRepo.logs[0].EventType)
		})
	}
}

// TestUpdateStatus тестирует переходы статусной машины
func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name          string
		from          entity.BookingStatus
		to            entity.BookingStatus
		expectedErr   error
		expectedEvent string
	}{
		{
			name:          "pending to accepted",
			from:          entity.BookingStatusPending,
			to:            entity.BookingStatusAccepted,
			expectedEvent: entity.RoomLogBookCreated,
		},
		{
			name:          "pending to rejected",
			from:          entity.BookingStatusPending,
			to:            entity.BookingStatusRejected,
			expectedEvent: entity.RoomLogBookCreated,
		},
		{
			name:          "cancel requested to cancelled writes cancel event",
			from:          entity.BookingStatusCancelRequested,
			to:            entity.BookingStatusCancelled,
			expectedEvent: entity.RoomLogBookCancelled,
		},
		{
			name:        "accepted back to pending is forbidden",
			from:        entity.BookingStatusAccepted,
			to:          entity.BookingStatusPending,
			expectedErr: entity.ErrInvalidTransition,
		},
		{
			name:        "cancelled is terminal",
			from:        entity.BookingStatusCancelled,
			to:          entity.BookingStatusAccepted,
			expectedErr: entity.ErrInvalidTransition,
		},
		{
			name:        "unknown status",
			from:        entity.BookingStatusPending,
			to:          entity.BookingStatus("archived"),
			expectedErr: entity.ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookingRepo := newFakeBookingRepo()
			bookingRepo.add(&entity.Booking{ID: 1, UserID: 7, RoomID: 1, Status: tt.from})
			svc := newBookingServiceForTest(&fakeRoomRepo{}, bookingRepo, &fakeRoomLogRepo{})

			err := svc.UpdateStatus(context.Background(), 1, tt.to)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Equal(t, tt.from, bookingRepo.bookings[1].Status)
				assert.Empty(t, bookingRepo.logs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, bookingRepo.bookings[1].Status)

			// Каждый успешный переход оставляет след в журнале комнаты
			require.Len(t, bookingRepo.logs, 1)
			assert.Equal(t, tt.expectedEvent, bookingRepo.logs[0].EventType)
		})
	}
}

// TestCancel тестирует ролевую отмену бронирования
func TestCancel(t *testing.T) {
	tests := []struct {
		name           string
		bookingUserID  int64
		bookingStatus  entity.BookingStatus
		actor          *Actor
		expectedErr    error
		expectedStatus entity.BookingStatus
	}{
		{
			name:           "customer cancels own booking",
			bookingUserID:  7,
			bookingStatus:  entity.BookingStatusAccepted,
			actor:          &Actor{UserID: 7, Role: entity.RoleCustomer},
			expectedStatus: entity.BookingStatusCancelRequested,
		},
		{
			name:          "customer cannot cancel foreign booking",
			bookingUserID: 8,
			bookingStatus: entity.BookingStatusAccepted,
			actor:         &Actor{UserID: 7, Role: entity.RoleCustomer},
			expectedErr:   entity.ErrNotBookingOwner,
		},
		{
			name:           "hotel owner cancels directly",
			bookingUserID:  7,
			bookingStatus:  entity.BookingStatusAccepted,
			actor:          &Actor{UserID: 42, Role: entity.RoleHotelOwner},
			expectedStatus: entity.BookingStatusCancelled,
		},
		{
			name:           "admin cancels directly",
			bookingUserID:  7,
			bookingStatus:  entity.BookingStatusPending,
			actor:          &Actor{UserID: 1, Role: entity.RoleAdmin},
			expectedStatus: entity.BookingStatusCancelled,
		},
		{
			name:          "cancelled booking cannot be cancelled again",
			bookingUserID: 7,
			bookingStatus: entity.BookingStatusCancelled,
			actor:         &Actor{UserID: 42, Role: entity.RoleHotelOwner},
			expectedErr:   entity.ErrInvalidTransition,
		},
		{
			name:          "customer cannot re-request cancellation",
			bookingUserID: 7,
			bookingStatus: entity.BookingStatusCancelRequested,
			actor:         &Actor{UserID: 7, Role: entity.RoleCustomer},
			expectedErr:   entity.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookingRepo := newFakeBookingRepo()
			bookingRepo.add(&entity.Booking{ID: 1, UserID: tt.bookingUserID, RoomID: 1, Status: tt.bookingStatus})
			svc := newBookingServiceForTest(&fakeRoomRepo{}, bookingRepo, &fakeRoomLogRepo{})

			err := svc.Cancel(context.Background(), 1, tt.actor)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, bookingRepo.bookings[1].Status)
		})
	}
}

// TestCheckInCheckOut тестирует аудит заселения и выселения
func TestCheckInCheckOut(t *testing.T) {
	tests := []struct {
		name          string
		status        entity.BookingStatus
		expectedErr   error
		expectedEvent string
		checkOut      bool
	}{
		{
			name:          "check-in on accepted booking",
			status:        entity.BookingStatusAccepted,
			expectedEvent: entity.RoomLogBookCheckIn,
		},
		{
			name:          "check-out on accepted booking",
			status:        entity.BookingStatusAccepted,
			expectedEvent: entity.RoomLogBookCheckOut,
			checkOut:      true,
		},
		{
			name:        "check-in requires accepted booking",
			status:      entity.BookingStatusPending,
			expectedErr: entity.ErrConflict,
		},
		{
			name:          "check-out works regardless of status",
			status:        entity.BookingStatusCancelled,
			expectedEvent: entity.RoomLogBookCheckOut,
			checkOut:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookingRepo := newFakeBookingRepo()
			bookingRepo.add(&entity.Booking{ID: 1, UserID: 7, RoomID: 3, Status: tt.status})
			logRepo := &fakeRoomLogRepo{}
			svc := newBookingServiceForTest(&fakeRoomRepo{}, bookingRepo, logRepo)

			var err error
			if tt.checkOut {
				err = svc.CheckOut(context.Background(), 1)
			} else {
				err = svc.CheckIn(context.Background(), 1)
			}

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Empty(t, logRepo.logs)
				return
			}
			require.NoError(t, err)

			// Статус брони не меняется, пишется только журнал
			assert.Equal(t, tt.status, bookingRepo.bookings[1].Status)
			require.Len(t, logRepo.logs, 1)
			assert.Equal(t, tt.expectedEvent, logRepo.logs[0].EventType)
			assert.Equal(t, int64(3), logRepo.logs[0].RoomID)
		})
	}
}
