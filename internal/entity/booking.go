package entity

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusPending         BookingStatus = "pending"
	BookingStatusAccepted        BookingStatus = "accepted"
	BookingStatusRejected        BookingStatus = "rejected"
	BookingStatusCancelRequested BookingStatus = "cancel requested"
	BookingStatusCancelled       BookingStatus = "cancelled"
	BookingStatusMaintained      BookingStatus = "maintained"
)

// LiveBookingStatuses — статусы, учитываемые при проверке пересечения
// дат: такие брони держат комнату занятой.
var LiveBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusAccepted,
	BookingStatusMaintained,
}

func (s BookingStatus) IsLive() bool {
	for _, live := range LiveBookingStatuses {
		if s == live {
			return true
		}
	}
	return false
}

// IsTerminal: из cancelled и rejected переходов нет.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusRejected
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusRejected,
		BookingStatusCancelRequested, BookingStatusCancelled, BookingStatusMaintained:
		return true
	}
	return false
}

type Booking struct {
	ID           int64 `json:"id" db:"id"`
	UserID       int64 `json:"user_id" db:"user_id"`
	RoomID       int64 `json:"room_id" db:"room_id"`
	CheckInDate  Date  `json:"check_in_date" db:"check_in_date"`
	CheckOutDate Date  `json:"check_out_date" db:"check_out_date"`
	People       int   `json:"people" db:"people"`
	// TotalPrice фиксируется в момент бронирования и не пересчитывается
	// при последующих изменениях прайса.
	TotalPrice int64         `json:"total_price" db:"total_price"`
	Status     BookingStatus `json:"status" db:"status"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}

// BookingFilter — фильтры листинга бронирований.
type BookingFilter struct {
	UserID      *int64
	RoomID      *int64
	HotelID     *int64
	Status      *BookingStatus
	CheckInFrom *time.Time
	CheckInTo   *time.Time
	Limit       int
	Offset      int
}

// BookingList — страница выдачи с общим количеством.
type BookingList struct {
	Bookings []*Booking `json:"bookings"`
	Total    int        `json:"total"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}
