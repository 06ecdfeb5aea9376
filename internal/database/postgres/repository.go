package repository

import (
	"context"
	"time"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
)

type RoomRepository interface {
	// GetRoomDetail returns the room joined with its type and hotel in a
	// single query.
	GetRoomDetail(ctx context.Context, roomID int64) (*entity.RoomDetail, error)
	GetPriceByType(ctx context.Context, typeID int64) (*entity.RoomPrice, error)

	// GetAvailableRoomsByHotel returns open rooms of an accepting hotel
	// that have no live booking overlapping the given dates.
	GetAvailableRoomsByHotel(ctx context.Context, hotelID int64, checkIn, checkOut entity.Date) ([]*entity.AvailableRoom, error)
}

type BookingRepository interface {
	// CreateWithLog inserts the booking and its room log entry in one
	// serializable transaction, re-checking date overlap inside it.
	CreateWithLog(ctx context.Context, booking *entity.Booking, log *entity.RoomLog) error
	GetByID(ctx context.Context, id int64) (*entity.Booking, error)
	List(ctx context.Context, filter *entity.BookingFilter) (*entity.BookingList, error)

	// UpdateStatusWithLog changes the status and, when log is non-nil,
	// appends the room log entry in the same transaction.
	UpdateStatusWithLog(ctx context.Context, id int64, status entity.BookingStatus, log *entity.RoomLog) error

	// UpdateWithLog rewrites dates, guest count and price, re-checking
	// overlap against other live bookings inside the transaction.
	UpdateWithLog(ctx context.Context, booking *entity.Booking, log *entity.RoomLog) error

	// CountOverlapping counts live bookings of the room intersecting
	// [checkIn, checkOut). excludeBookingID > 0 skips that booking.
	CountOverlapping(ctx context.Context, roomID int64, checkIn, checkOut entity.Date, excludeBookingID int64) (int, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id int64) (*entity.Payment, error)
	GetByTxnRef(ctx context.Context, txnRef string) (*entity.Payment, error)

	// GetActiveByBooking returns the pending, processing or completed
	// payment of a booking, or ErrPaymentNotFound.
	GetActiveByBooking(ctx context.Context, bookingID int64) (*entity.Payment, error)

	// Settle applies a verified callback: on success the payment becomes
	// completed and the booking accepted, on failure only the payment
	// becomes failed. A payment that is no longer live (completed,
	// failed or refunded) returns ErrPaymentAlreadyProcessed.
	Settle(ctx context.Context, txnRef string, result *entity.CallbackResult) (*entity.Payment, error)

	// MarkRefunded sets the payment refunded and the booking cancelled
	// in one transaction.
	MarkRefunded(ctx context.Context, id int64, transactionNo string, log *entity.RoomLog) error

	MarkFailed(ctx context.Context, id int64, responseCode string) error
	GetStaleProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*entity.Payment, error)
}

type RoomLogRepository interface {
	Create(ctx context.Context, log *entity.RoomLog) error
	GetByRoomID(ctx context.Context, roomID int64, limit int) ([]*entity.RoomLog, error)
}
