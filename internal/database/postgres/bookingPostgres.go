package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
)

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `
	id, user_id, room_id, check_in_date, check_out_date,
	people, total_price, status, created_at, updated_at
`

const overlapQuery = `
	SELECT COUNT(*) FROM bookings
	WHERE room_id = $1
	  AND status IN ('pending', 'accepted', 'maintained')
	  AND check_in_date < $3 AND check_out_date > $2
	  AND ($4 = 0 OR id <> $4)
`

// isSerializationFailure reports a serializable-isolation conflict
// (SQLSTATE 40001): two transactions raced for the same room and dates.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "40001"
}

func scanBooking(row interface {
	Scan(dest ...interface{}) error
}, booking *entity.Booking) error {
	return row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.RoomID,
		&booking.CheckInDate,
		&booking.CheckOutDate,
		&booking.People,
		&booking.TotalPrice,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
}

// CreateWithLog creates a booking and its room log entry in one transaction.
// The overlap check runs again inside the serializable transaction, so two
// concurrent requests for the same room and dates cannot both commit: the
// second one either sees the first booking or fails with SQLSTATE 40001.
func (r *bookingRepository) CreateWithLog(ctx context.Context, booking *entity.Booking, log *entity.RoomLog) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	var overlapping int
	err = tx.QueryRowContext(ctx, overlapQuery,
		booking.RoomID, booking.CheckInDate, booking.CheckOutDate, int64(0),
	).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("failed to check overlapping bookings: %v", err)
	}
	if overlapping > 0 {
		return entity.ErrRoomUnavailable
	}

	query := `
		INSERT INTO bookings (
			user_id, room_id, check_in_date, check_out_date,
			people, total_price, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	now := time.Now()
	err = tx.QueryRowContext(ctx, query,
		booking.UserID,
		booking.RoomID,
		booking.CheckInDate,
		booking.CheckOutDate,
		booking.People,
		booking.TotalPrice,
		booking.Status,
		now,
		now,
	).Scan(&booking.ID)
	if err != nil {
		return fmt.Errorf("failed to create booking: %v", err)
	}

	logQuery := `
		INSERT INTO room_logs (room_id, event_type, extra_context, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, logQuery,
		log.RoomID, log.EventType, log.ExtraContext, now,
	).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("failed to create room log: %v", err)
	}

	if err := tx.Commit(); err != nil {
		if isSerializationFailure(err) {
			return entity.ErrRoomUnavailable
		}
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	log.CreatedAt = now

	return nil
}

// GetByID retrieves a booking by its ID
func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var booking entity.Booking
	err := scanBooking(r.db.QueryRowContext(ctx, query, id), &booking)

	if err == sql.ErrNoRows {
		return nil, entity.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %v", err)
	}

	return &booking, nil
}

// List retrieves a page of bookings matching the filter. The hotel filter
// goes through rooms and room_types; the rest are direct columns.
func (r *bookingRepository) List(ctx context.Context, filter *entity.BookingFilter) (*entity.BookingList, error) {
	where := "WHERE 1=1"
	args := []interface{}{}

	addArg := func(clause string, value interface{}) {
		args = append(args, value)
		where += fmt.Sprintf(" AND "+clause, len(args))
	}

	if filter.UserID != nil {
		addArg("b.user_id = $%d", *filter.UserID)
	}
	if filter.RoomID != nil {
		addArg("b.room_id = $%d", *filter.RoomID)
	}
	if filter.HotelID != nil {
		addArg(`b.room_id IN (
			SELECT r.id FROM rooms r
			JOIN room_types rt ON r.type_id = rt.id
			WHERE rt.hotel_id = $%d
		)`, *filter.HotelID)
	}
	if filter.Status != nil {
		addArg("b.status = $%d", *filter.Status)
	}
	if filter.CheckInFrom != nil {
		addArg("b.check_in_date >= $%d", *filter.CheckInFrom)
	}
	if filter.CheckInTo != nil {
		addArg("b.check_in_date <= $%d", *filter.CheckInTo)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM bookings b " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count bookings: %v", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT
			b.id, b.user_id, b.room_id, b.check_in_date, b.check_out_date,
			b.people, b.total_price, b.status, b.created_at, b.updated_at
		FROM bookings b
		%s
		ORDER BY b.created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %v", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		var booking entity.Booking
		if err := scanBooking(rows, &booking); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %v", err)
		}
		bookings = append(bookings, &booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %v", err)
	}

	return &entity.BookingList{
		Bookings: bookings,
		Total:    total,
		Limit:    limit,
		Offset:   filter.Offset,
	}, nil
}

// UpdateStatusWithLog updates the status of a booking and optionally
// appends a room log entry in the same transaction
func (r *bookingRepository) UpdateStatusWithLog(ctx context.Context, id int64, status entity.BookingStatus, log *entity.RoomLog) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	query := `UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := tx.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %v", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if rowsAffected == 0 {
		return entity.ErrBookingNotFound
	}

	if log != nil {
		logQuery := `
			INSERT INTO room_logs (room_id, event_type, extra_context, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`
		err = tx.QueryRowContext(ctx, logQuery,
			log.RoomID, log.EventType, log.ExtraContext, time.Now(),
		).Scan(&log.ID)
		if err != nil {
			return fmt.Errorf("failed to create room log: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// UpdateWithLog rewrites the mutable fields of a booking. The overlap
// check runs inside the serializable transaction and excludes the booking
// itself, so moving dates cannot collide with a concurrent creation.
func (r *bookingRepository) UpdateWithLog(ctx context.Context, booking *entity.Booking, log *entity.RoomLog) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	var overlapping int
	err = tx.QueryRowContext(ctx, overlapQuery,
		booking.RoomID, booking.CheckInDate, booking.CheckOutDate, booking.ID,
	).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("failed to check overlapping bookings: %v", err)
	}
	if overlapping > 0 {
		return entity.ErrRoomUnavailable
	}

	query := `
		UPDATE bookings
		SET check_in_date = $1, check_out_date = $2, people = $3,
		    total_price = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := tx.ExecContext(ctx, query,
		booking.CheckInDate,
		booking.CheckOutDate,
		booking.People,
		booking.TotalPrice,
		time.Now(),
		booking.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %v", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if rowsAffected == 0 {
		return entity.ErrBookingNotFound
	}

	if log != nil {
		logQuery := `
			INSERT INTO room_logs (room_id, event_type, extra_context, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`
		err = tx.QueryRowContext(ctx, logQuery,
			log.RoomID, log.EventType, log.ExtraContext, time.Now(),
		).Scan(&log.ID)
		if err != nil {
			return fmt.Errorf("failed to create room log: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isSerializationFailure(err) {
			return entity.ErrRoomUnavailable
		}
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	booking.UpdatedAt = time.Now()
	return nil
}

// CountOverlapping counts live bookings of the room intersecting the
// half-open interval [checkIn, checkOut)
func (r *bookingRepository) CountOverlapping(ctx context.Context, roomID int64, checkIn, checkOut entity.Date, excludeBookingID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, overlapQuery,
		roomID, checkIn, checkOut, excludeBookingID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count overlapping bookings: %v", err)
	}
	return count, nil
}
