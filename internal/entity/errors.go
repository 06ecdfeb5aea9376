package entity

import (
	"errors"
	"fmt"
)

// Базовые виды ошибок. Конкретные ошибки ниже оборачивают их, чтобы
// вызывающий различал вид через errors.Is, а человеку доставался
// читаемый текст.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrProcessor        = errors.New("payment processor error")
	ErrStorage          = errors.New("storage error")
)

var (
	// Validation
	ErrInvalidDateRange = fmt.Errorf("%w: check-out date must be after check-in date", ErrValidation)
	ErrCheckInPast      = fmt.Errorf("%w: check-in date cannot be in the past", ErrValidation)
	ErrAmountMismatch   = fmt.Errorf("%w: callback amount does not match payment amount", ErrValidation)
	ErrInvalidStatus    = fmt.Errorf("%w: invalid booking status", ErrValidation)
	ErrInvalidAmount    = fmt.Errorf("%w: booking has no valid price", ErrValidation)

	// Not found
	ErrRoomNotFound      = fmt.Errorf("room %w", ErrNotFound)
	ErrRoomPriceNotFound = fmt.Errorf("room price %w", ErrNotFound)
	ErrBookingNotFound   = fmt.Errorf("booking %w", ErrNotFound)
	ErrPaymentNotFound   = fmt.Errorf("payment %w", ErrNotFound)

	// Conflict
	ErrRoomUnavailable         = fmt.Errorf("%w: room is already booked for the selected dates", ErrConflict)
	ErrInvalidTransition       = fmt.Errorf("%w: status transition not allowed", ErrConflict)
	ErrBookingNotModifiable    = fmt.Errorf("%w: only pending or accepted bookings can be modified", ErrConflict)
	ErrPaymentAlreadyCompleted = fmt.Errorf("%w: this booking has already been paid", ErrConflict)
	ErrPaymentAlreadyProcessed = fmt.Errorf("%w: payment already processed", ErrConflict)
	ErrPaymentNotRefundable    = fmt.Errorf("%w: only completed payments can be refunded", ErrConflict)

	// Authorization (слой auth вне ядра, но владение бронью проверяем здесь)
	ErrNotBookingOwner = fmt.Errorf("%w: you can only cancel your own bookings", ErrValidation)
)
