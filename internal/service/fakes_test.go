package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
)

// Фейковые репозитории для тестов сервисного слоя. Хранят всё в памяти
// и воспроизводят контракт настоящих репозиториев, включая sentinel-ошибки.

type fakeRoomRepo struct {
	detail    *entity.RoomDetail
	detailErr error
	prices    map[int64]*entity.RoomPrice
	available []*entity.AvailableRoom
}

func (f *fakeRoomRepo) GetRoomDetail(ctx context.Context, roomID int64) (*entity.RoomDetail, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	if f.detail == nil {
		return nil, entity.ErrRoomNotFound
	}
	return f.detail, nil
}

func (f *fakeRoomRepo) GetPriceByType(ctx context.Context, typeID int64) (*entity.RoomPrice, error) {
	price, ok := f.prices[typeID]
	if !ok {
		return nil, entity.ErrRoomPriceNotFound
	}
	return price, nil
}

func (f *fakeRoomRepo) GetAvailableRoomsByHotel(ctx context.Context, hotelID int64, checkIn, checkOut entity.Date) ([]*entity.AvailableRoom, error) {
	return f.available, nil
}

type fakeBookingRepo struct {
	bookings  map[int64]*entity.Booking
	nextID    int64
	overlap   int
	createErr error
	logs      []*entity.RoomLog
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[int64]*entity.Booking), nextID: 1}
}

func (f *fakeBookingRepo) add(b *entity.Booking) *entity.Booking {
	if b.ID == 0 {
		b.ID = f.nextID
		f.nextID++
	} else if b.ID >= f.nextID {
		f.nextID = b.ID + 1
	}
	f.bookings[b.ID] = b
	return b
}

func (f *fakeBookingRepo) CreateWithLog(ctx context.Context, booking *entity.Booking, log *entity.RoomLog) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.add(booking)
	if log != nil {
		f.logs = append(f.logs, log)
	}
	return nil
}

func (f *fakeBookingRepo) GetByID(ctx context.Context, id int64) (*entity.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, entity.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeBookingRepo) List(ctx context.Context, filter *entity.BookingFilter) (*entity.BookingList, error) {
	list := &entity.BookingList{Limit: filter.Limit, Offset: filter.Offset}
	for _, b := range f.bookings {
		list.Bookings = append(list.Bookings, b)
	}
	list.Total = len(list.Bookings)
	return list, nil
}

func (f *fakeBookingRepo) UpdateStatusWithLog(ctx context.Context, id int64, status entity.BookingStatus, log *entity.RoomLog) error {
	b, ok := f.bookings[id]
	if !ok {
		return entity.ErrBookingNotFound
	}
	b.Status = status
	if log != nil {
		f.logs = append(f.logs, log)
	}
	return nil
}

func (f *fakeBookingRepo) UpdateWithLog(ctx context.Context, booking *entity.Booking, log *entity.RoomLog) error {
	if _, ok := f.bookings[booking.ID]; !ok {
		return entity.ErrBookingNotFound
	}
	f.bookings[booking.ID] = booking
	if log != nil {
		f.logs = append(f.logs, log)
	}
	return nil
}

func (f *fakeBookingRepo) CountOverlapping(ctx context.Context, roomID int64, checkIn, checkOut entity.Date, excludeBookingID int64) (int, error) {
	return f.overlap, nil
}

type fakeRoomLogRepo struct {
	logs   []*entity.RoomLog
	nextID int64
}

func (f *fakeRoomLogRepo) Create(ctx context.Context, log *entity.RoomLog) error {
	f.nextID++
	log.ID = f.nextID
	log.CreatedAt = time.Now()
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeRoomLogRepo) GetByRoomID(ctx context.Context, roomID int64, limit int) ([]*entity.RoomLog, error) {
	var out []*entity.RoomLog
	for i := len(f.logs) - 1; i >= 0; i-- {
		if f.logs[i].RoomID != roomID {
			continue
		}
		out = append(out, f.logs[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakePaymentRepo struct {
	payments  map[int64]*entity.Payment
	nextID    int64
	createErr error
	// bookings даёт фейку доступ к броням, чтобы Settle и MarkRefunded
	// меняли статус брони так же, как транзакции настоящего репозитория.
	bookings *fakeBookingRepo
	logs     []*entity.RoomLog
}

func newFakePaymentRepo(bookings *fakeBookingRepo) *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[int64]*entity.Payment), nextID: 1, bookings: bookings}
}

func (f *fakePaymentRepo) add(p *entity.Payment) *entity.Payment {
	if p.ID == 0 {
		p.ID = f.nextID
		f.nextID++
	} else if p.ID >= f.nextID {
		f.nextID = p.ID + 1
	}
	f.payments[p.ID] = p
	return p
}

func (f *fakePaymentRepo) Create(ctx context.Context, payment *entity.Payment) error {
	if f.createErr != nil {
		return f.createErr
	}
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = time.Now()
	f.add(payment)
	return nil
}

func (f *fakePaymentRepo) GetByID(ctx context.Context, id int64) (*entity.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, entity.ErrPaymentNotFound
	}
	return p, nil
}

func (f *fakePaymentRepo) GetByTxnRef(ctx context.Context, txnRef string) (*entity.Payment, error) {
	for _, p := range f.payments {
		if p.TxnRef == txnRef {
			return p, nil
		}
	}
	return nil, entity.ErrPaymentNotFound
}

func (f *fakePaymentRepo) GetActiveByBooking(ctx context.Context, bookingID int64) (*entity.Payment, error) {
	for _, p := range f.payments {
		if p.BookingID != bookingID {
			continue
		}
		switch p.Status {
		case entity.PaymentStatusPending, entity.PaymentStatusProcessing, entity.PaymentStatusCompleted:
			return p, nil
		}
	}
	return nil, entity.ErrPaymentNotFound
}

func (f *fakePaymentRepo) Settle(ctx context.Context, txnRef string, result *entity.CallbackResult) (*entity.Payment, error) {
	p, err := f.GetByTxnRef(ctx, txnRef)
	if err != nil {
		return nil, err
	}
	if p.Status != entity.PaymentStatusPending && p.Status != entity.PaymentStatusProcessing {
		return p, entity.ErrPaymentAlreadyProcessed
	}

	p.ResponseCode = result.ResponseCode
	p.TransactionNo = result.TransactionNo
	p.BankCode = result.BankCode
	p.PayDate = result.PayDate
	p.UpdatedAt = time.Now()

	if result.Success {
		p.Status = entity.PaymentStatusCompleted
		if f.bookings != nil {
			if b, ok := f.bookings.bookings[p.BookingID]; ok && b.Status == entity.BookingStatusPending {
				b.Status = entity.BookingStatusAccepted
			}
		}
	} else {
		p.Status = entity.PaymentStatusFailed
	}
	return p, nil
}

func (f *fakePaymentRepo) MarkRefunded(ctx context.Context, id int64, transactionNo string, log *entity.RoomLog) error {
	p, ok := f.payments[id]
	if !ok {
		return entity.ErrPaymentNotFound
	}
	if p.Status != entity.PaymentStatusCompleted {
		return entity.ErrPaymentNotRefundable
	}
	p.Status = entity.PaymentStatusRefunded
	p.TransactionNo = transactionNo
	p.UpdatedAt = time.Now()
	if f.bookings != nil {
		if b, ok := f.bookings.bookings[p.BookingID]; ok {
			b.Status = entity.BookingStatusCancelled
		}
	}
	if log != nil {
		f.logs = append(f.logs, log)
	}
	return nil
}

func (f *fakePaymentRepo) MarkFailed(ctx context.Context, id int64, responseCode string) error {
	p, ok := f.payments[id]
	if !ok {
		return entity.ErrPaymentNotFound
	}
	if p.Status == entity.PaymentStatusPending || p.Status == entity.PaymentStatusProcessing {
		p.Status = entity.PaymentStatusFailed
		p.ResponseCode = responseCode
		p.UpdatedAt = time.Now()
	}
	return nil
}

func (f *fakePaymentRepo) GetStaleProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*entity.Payment, error) {
	var out []*entity.Payment
	for _, p := range f.payments {
		if p.Status != entity.PaymentStatusPending && p.Status != entity.PaymentStatusProcessing {
			continue
		}
		if p.UpdatedAt.After(olderThan) {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
