package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/ds124wfegd/hotel-booking/pkg/vnpay"
)

// RoomService определяет интерфейс для операций с комнатами
type RoomService interface {
	// Основные операции
	CheckAvailability(ctx context.Context, req *AvailabilityRequest) (*entity.AvailabilityResult, error)
	QuotePrice(ctx context.Context, roomID int64, checkIn, checkOut entity.Date) (*entity.PriceBreakdown, error)
	GetAvailableRooms(ctx context.Context, hotelID int64, checkIn, checkOut entity.Date) ([]*entity.AvailableRoom, error)

	// Журнал событий комнаты
	GetRoomHistory(ctx context.Context, roomID int64, limit int) ([]*entity.RoomLog, error)
}

// BookingService определяет интерфейс для операций с бронированиями
type BookingService interface {
	// Основные операции
	CreateBooking(ctx context.Context, req *CreateBookingRequest) (*BookingResponse, error)
	GetBooking(ctx context.Context, id int64) (*entity.Booking, error)
	ListBookings(ctx context.Context, filter *entity.BookingFilter) (*entity.BookingList, error)
	UpdateBooking(ctx context.Context, id int64, req *UpdateBookingRequest) (*entity.Booking, error)

	// Операции статусной машины
	UpdateStatus(ctx context.Context, id int64, status entity.BookingStatus) error
	Cancel(ctx context.Context, id int64, actor *Actor) error
	CheckIn(ctx context.Context, id int64) error
	CheckOut(ctx context.Context, id int64) error
}

// PaymentService определяет интерфейс для платёжных операций
type PaymentService interface {
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*entity.Payment, error)
	GetPayment(ctx context.Context, id int64) (*entity.Payment, error)

	// Callbacks процессора
	HandleReturn(ctx context.Context, params map[string]string) (*CallbackResponse, error)
	HandleIPN(ctx context.Context, params map[string]string) *IPNResponse

	// Server-to-server операции
	Refund(ctx context.Context, req *RefundRequest) (*entity.Payment, error)
	QueryPayment(ctx context.Context, paymentID int64, ipAddress string) (*PaymentStatusView, error)

	// Сверка зависших платежей
	ReconcilePayment(ctx context.Context, paymentID int64) error
	ReconcileStale(ctx context.Context) (int, error)
}

// Actor — инициатор операции, извлечённый из заголовков запроса.
// Аутентификация живёт вне ядра.
type Actor struct {
	UserID int64
	Role   string
}

func (a *Actor) IsStaff() bool {
	return a.Role == entity.RoleHotelOwner || a.Role == entity.RoleAdmin
}

// AvailabilityRequest представляет запрос проверки доступности комнаты
type AvailabilityRequest struct {
	RoomID       int64       `json:"room_id" binding:"required"`
	CheckInDate  entity.Date `json:"check_in_date" binding:"required"`
	CheckOutDate entity.Date `json:"check_out_date" binding:"required"`
	People       int         `json:"people" binding:"required,min=1"`
}

// CreateBookingRequest представляет данные для создания бронирования
type CreateBookingRequest struct {
	UserID       int64       `json:"user_id" binding:"required"`
	RoomID       int64       `json:"room_id" binding:"required"`
	CheckInDate  entity.Date `json:"check_in_date" binding:"required"`
	CheckOutDate entity.Date `json:"check_out_date" binding:"required"`
	People       int         `json:"people" binding:"required,min=1"`
}

// UpdateBookingRequest представляет изменяемые поля бронирования.
// Цена пересчитывается по текущему прайсу на новые даты.
type UpdateBookingRequest struct {
	CheckInDate  entity.Date `json:"check_in_date" binding:"required"`
	CheckOutDate entity.Date `json:"check_out_date" binding:"required"`
	People       int         `json:"people" binding:"required,min=1"`
}

// BookingResponse — созданное бронирование вместе с детализацией цены
type BookingResponse struct {
	Booking *entity.Booking        `json:"booking"`
	Pricing *entity.PriceBreakdown `json:"pricing"`
}

// CreatePaymentRequest представляет запрос на выпуск платежа
type CreatePaymentRequest struct {
	BookingID int64  `json:"booking_id" binding:"required"`
	Method    string `json:"payment_method"`
	BankCode  string `json:"bank_code"`
	OrderInfo string `json:"order_info"`
	IPAddress string `json:"-"`
}

// RefundRequest представляет запрос на возврат платежа.
// PaymentID приходит из пути запроса, не из тела.
type RefundRequest struct {
	PaymentID int64  `json:"-"`
	Amount    int64  `json:"amount"` // 0 — полный возврат
	CreateBy  string `json:"create_by"`
	IPAddress string `json:"-"`
}

// PaymentStatusView — локальный платёж рядом с сырым ответом процессора
// на запрос статуса. Запрос ничего не меняет: ручная сверка при
// потерянном callback-е сначала смотрит, потом чинит.
type PaymentStatusView struct {
	Payment   *entity.Payment    `json:"payment"`
	Processor *vnpay.APIResponse `json:"processor"`
}

// CallbackResponse — результат обработки return-callback для показа
// пользователю
type CallbackResponse struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Payment *entity.Payment `json:"payment,omitempty"`
}

// IPNResponse — ответ процессору в формате, который он ожидает
type IPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// TaskPublisher интерфейс для публикации задач в очередь
type TaskPublisher interface {
	Publish(ctx context.Context, task *Task) error
}

// Task представляет задачу для очереди
type Task struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	ExecuteAt  time.Time              `json:"execute_at"`
	MaxRetries int                    `json:"max_retries"`
	Attempts   int                    `json:"attempts"`
}

// Константы типов задач
const (
	TaskTypeReconcilePayment = "reconcile_payment"
)
