package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
)

type roomRepository struct {
	db *sql.DB
}

func NewRoomRepository(db *sql.DB) RoomRepository {
	return &roomRepository{db: db}
}

// GetRoomDetail retrieves a room with its type and hotel in one query
func (r *roomRepository) GetRoomDetail(ctx context.Context, roomID int64) (*entity.RoomDetail, error) {
	query := `
		SELECT
			r.id, r.type_id, r.name, r.status, r.estimated_available_time,
			rt.id, rt.hotel_id, rt.type, rt.availability, rt.max_guests, rt.quantity,
			h.id, h.name, h.status
		FROM rooms r
		JOIN room_types rt ON r.type_id = rt.id
		JOIN hotels h ON rt.hotel_id = h.id
		WHERE r.id = $1
	`

	var detail entity.RoomDetail
	err := r.db.QueryRowContext(ctx, query, roomID).Scan(
		&detail.Room.ID,
		&detail.Room.TypeID,
		&detail.Room.Name,
		&detail.Room.Status,
		&detail.Room.EstimatedAvailableTime,
		&detail.RoomType.ID,
		&detail.RoomType.HotelID,
		&detail.RoomType.Type,
		&detail.RoomType.Availability,
		&detail.RoomType.MaxGuests,
		&detail.RoomType.Quantity,
		&detail.Hotel.ID,
		&detail.Hotel.Name,
		&detail.Hotel.Status,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room detail: %v", err)
	}

	return &detail, nil
}

// GetPriceByType retrieves the price row of a room type
func (r *roomRepository) GetPriceByType(ctx context.Context, typeID int64) (*entity.RoomPrice, error) {
	query := `
		SELECT
			id, type_id, basic_price, special_price, event,
			start_date, end_date, discount
		FROM room_prices
		WHERE type_id = $1
	`

	var price entity.RoomPrice
	err := r.db.QueryRowContext(ctx, query, typeID).Scan(
		&price.ID,
		&price.TypeID,
		&price.BasicPrice,
		&price.SpecialPrice,
		&price.Event,
		&price.StartDate,
		&price.EndDate,
		&price.Discount,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrRoomPriceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room price: %v", err)
	}

	return &price, nil
}

// GetAvailableRoomsByHotel retrieves open rooms of an accepting hotel that
// have no live booking intersecting [checkIn, checkOut)
func (r *roomRepository) GetAvailableRoomsByHotel(ctx context.Context, hotelID int64, checkIn, checkOut entity.Date) ([]*entity.AvailableRoom, error) {
	query := `
		SELECT
			r.id, r.name, rt.id, rt.type, rt.max_guests
		FROM rooms r
		JOIN room_types rt ON r.type_id = rt.id
		JOIN hotels h ON rt.hotel_id = h.id
		WHERE h.id = $1
		  AND h.status = 1
		  AND r.status = 1
		  AND rt.availability = true
		  AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.room_id = r.id
			  AND b.status IN ('pending', 'accepted', 'maintained')
			  AND b.check_in_date < $3 AND b.check_out_date > $2
		  )
		ORDER BY rt.id ASC, r.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, hotelID, checkIn, checkOut)
	if err != nil {
		return nil, fmt.Errorf("failed to query available rooms: %v", err)
	}
	defer rows.Close()

	var rooms []*entity.AvailableRoom
	for rows.Next() {
		var room entity.AvailableRoom
		err := rows.Scan(
			&room.RoomID,
			&room.RoomName,
			&room.TypeID,
			&room.RoomType,
			&room.MaxGuests,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan available room: %v", err)
		}
		rooms = append(rooms, &room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating available rooms: %v", err)
	}

	return rooms, nil
}
