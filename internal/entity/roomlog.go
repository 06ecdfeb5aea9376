package entity

import (
	"time"
)

// Типы событий журнала комнаты.
const (
	RoomLogBookCreated   = "BOOK_CREATED"
	RoomLogBookCancelled = "BOOK_CANCELLED"
	RoomLogBookCheckIn   = "BOOK_CHECKIN"
	RoomLogBookCheckOut  = "BOOK_CHECKOUT"
)

// RoomLog — append-only запись журнала событий комнаты.
type RoomLog struct {
	ID           int64     `json:"id" db:"id"`
	RoomID       int64     `json:"room_id" db:"room_id"`
	EventType    string    `json:"event_type" db:"event_type"`
	ExtraContext string    `json:"extra_context" db:"extra_context"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
