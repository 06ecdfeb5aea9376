package service

import (
	"math"
	"time"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
)

// nightsBetween считает количество ночей между датами заезда и выезда.
// Неполные сутки округляются вверх.
func nightsBetween(checkIn, checkOut entity.Date) int {
	hours := checkOut.Sub(checkIn.Time).Hours()
	return int(math.Ceil(hours / 24))
}

// eventWindowCovers сообщает, пересекается ли проживание с событийным
// окном прайса: заезд не позже конца окна и выезд не раньше начала.
func eventWindowCovers(price *entity.RoomPrice, checkIn, checkOut entity.Date) bool {
	if !price.HasEventWindow() {
		return false
	}
	return !checkIn.After(*price.EndDate) && !checkOut.Before(*price.StartDate)
}

// CalculatePrice рассчитывает стоимость проживания по ценовой записи.
// Событийная спеццена заменяет базовую ставку целиком, скидка
// применяется к подытогу, округление — только в самом конце.
func CalculatePrice(price *entity.RoomPrice, checkIn, checkOut entity.Date) *entity.PriceBreakdown {
	nights := nightsBetween(checkIn, checkOut)

	pricePerNight := price.BasicPrice
	var eventApplied *string
	if eventWindowCovers(price, checkIn, checkOut) {
		pricePerNight = *price.SpecialPrice
		eventApplied = price.Event
	}

	subtotal := pricePerNight * int64(nights)
	discountAmount := int64(math.Round(float64(subtotal) * price.Discount))

	return &entity.PriceBreakdown{
		TotalPrice:     subtotal - discountAmount,
		Nights:         nights,
		PricePerNight:  pricePerNight,
		Subtotal:       subtotal,
		Discount:       price.Discount,
		DiscountAmount: discountAmount,
		EventApplied:   eventApplied,
	}
}

// validateStayDates проверяет корректность интервала проживания
func validateStayDates(checkIn, checkOut entity.Date) error {
	if !checkOut.After(checkIn.Time) {
		return entity.ErrInvalidDateRange
	}
	today := entity.DateOf(time.Now())
	if checkIn.Before(today.Time) {
		return entity.ErrCheckInPast
	}
	return nil
}
