package entity

import (
	"time"
)

// Операционные статусы комнаты и отеля хранятся числами,
// как в исходной схеме: 0 — закрыто, 1 — открыто/активно.
const (
	RoomStatusClosed = 0
	RoomStatusOpen   = 1

	HotelStatusInactive = 0
	HotelStatusActive   = 1
)

type Room struct {
	ID     int64  `json:"id" db:"id"`
	TypeID int64  `json:"type_id" db:"type_id"`
	Name   string `json:"name" db:"name"`
	Status int    `json:"status" db:"status"`
	// EstimatedAvailableTime — плановое время, до которого комната не
	// принимает заезды (ремонт, уборка). NULL, если комната доступна сразу.
	EstimatedAvailableTime *time.Time `json:"estimated_available_time,omitempty" db:"estimated_available_time"`
}

func (r *Room) IsOpen() bool {
	return r.Status == RoomStatusOpen
}

type RoomType struct {
	ID           int64  `json:"id" db:"id"`
	HotelID      int64  `json:"hotel_id" db:"hotel_id"`
	Type         string `json:"type" db:"type"`
	Availability bool   `json:"availability" db:"availability"`
	MaxGuests    int    `json:"max_guests" db:"max_guests"`
	// Quantity — количество физических комнат данного типа.
	// Информационное поле, per-unit инвентарь не ведётся.
	Quantity int `json:"quantity" db:"quantity"`
}

type Hotel struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Status int    `json:"status" db:"status"`
}

func (h *Hotel) AcceptsBookings() bool {
	return h.Status == HotelStatusActive
}

// RoomDetail — комната вместе с типом и отелем, загруженная одним
// запросом. Ядро не ходит по ленивым ассоциациям ORM.
type RoomDetail struct {
	Room     Room     `json:"room"`
	RoomType RoomType `json:"room_type"`
	Hotel    Hotel    `json:"hotel"`
}

// RoomPrice — действующая ценовая запись типа комнаты: базовая цена за
// ночь, опциональное событийное окно со спеццентой и опциональная
// скидка (доля 0..1).
type RoomPrice struct {
	ID           int64      `json:"id" db:"id"`
	TypeID       int64      `json:"type_id" db:"type_id"`
	BasicPrice   int64      `json:"basic_price" db:"basic_price"`
	SpecialPrice *int64     `json:"special_price,omitempty" db:"special_price"`
	Event        *string    `json:"event,omitempty" db:"event"`
	StartDate    *time.Time `json:"start_date,omitempty" db:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty" db:"end_date"`
	Discount     float64    `json:"discount" db:"discount"`
}

// HasEventWindow сообщает, задано ли событийное окно целиком.
func (p *RoomPrice) HasEventWindow() bool {
	return p.StartDate != nil && p.EndDate != nil && p.SpecialPrice != nil
}

// PriceBreakdown — детализация расчёта стоимости проживания.
// Все суммы в целых единицах валюты, округление только в конце расчёта.
type PriceBreakdown struct {
	TotalPrice     int64   `json:"total_price"`
	Nights         int     `json:"nights"`
	PricePerNight  int64   `json:"price_per_night"`
	Subtotal       int64   `json:"subtotal"`
	Discount       float64 `json:"discount"`
	DiscountAmount int64   `json:"discount_amount"`
	EventApplied   *string `json:"event_applied,omitempty"`
}

// AvailabilityResult — результат проверки доступности комнаты.
// Обычная недоступность — не ошибка: Available=false плюс причина.
type AvailabilityResult struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// AvailableRoom — свободная комната отеля с расчётом цены на даты
// запроса, для выдачи поиска.
type AvailableRoom struct {
	RoomID    int64           `json:"room_id"`
	RoomName  string          `json:"room_name"`
	TypeID    int64           `json:"type_id"`
	RoomType  string          `json:"room_type"`
	MaxGuests int             `json:"max_guests"`
	Pricing   *PriceBreakdown `json:"pricing"`
}
