package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	repository "github.com/ds124wfegd/hotel-booking/internal/database/postgres"
	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/ds124wfegd/hotel-booking/pkg/vnpay"
)

const defaultPaymentMethod = "vnpay"

type paymentService struct {
	paymentRepo repository.PaymentRepository
	bookingRepo repository.BookingRepository
	processor   *vnpay.Client
	queue       TaskPublisher

	expireMinutes int
	staleAfter    time.Duration
	batchSize     int
}

// NewPaymentService создает новый экземпляр PaymentService
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	bookingRepo repository.BookingRepository,
	processor *vnpay.Client,
	queue TaskPublisher,
	expireMinutes int,
	staleAfter time.Duration,
	batchSize int,
) PaymentService {
	if expireMinutes <= 0 {
		expireMinutes = 15
	}
	if staleAfter <= 0 {
		staleAfter = 20 * time.Minute
	}
	return &paymentService{
		paymentRepo:   paymentRepo,
		bookingRepo:   bookingRepo,
		processor:     processor,
		queue:         queue,
		expireMinutes: expireMinutes,
		staleAfter:    staleAfter,
		batchSize:     batchSize,
	}
}

// newTxnRef выпускает ссылку транзакции. Миллисекундный суффикс
// позволяет повторно выпускать платёж той же брони под новой ссылкой.
func newTxnRef(bookingID int64) string {
	return fmt.Sprintf("%d_%d", bookingID, time.Now().UnixMilli())
}

// bookingIDFromTxnRef извлекает ID брони из ссылки транзакции
func bookingIDFromTxnRef(txnRef string) (int64, error) {
	for i, c := range txnRef {
		if c == '_' {
			return strconv.ParseInt(txnRef[:i], 10, 64)
		}
	}
	return strconv.ParseInt(txnRef, 10, 64)
}

// expired сообщает, истёк ли платёжный URL
func (s *paymentService) expired(p *entity.Payment) bool {
	deadline := p.UpdatedAt.Add(time.Duration(s.expireMinutes) * time.Minute)
	return time.Now().After(deadline)
}

// CreatePayment выпускает платёж для pending-бронирования. Операция
// идемпотентна: живой неистёкший платёж возвращается как есть, истёкший
// закрывается и выпускается заново отдельной записью, завершённый —
// конфликт.
func (s *paymentService) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*entity.Payment, error) {
	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != entity.BookingStatusPending {
		return nil, fmt.Errorf("%w: only pending bookings can be paid", entity.ErrConflict)
	}
	if booking.TotalPrice <= 0 {
		return nil, entity.ErrInvalidAmount
	}

	orderInfo := req.OrderInfo
	if orderInfo == "" {
		orderInfo = fmt.Sprintf("Payment for booking %d", booking.ID)
	}
	method := req.Method
	if method == "" {
		method = defaultPaymentMethod
	}

	existing, err := s.paymentRepo.GetActiveByBooking(ctx, req.BookingID)
	if err != nil && !errors.Is(err, entity.ErrPaymentNotFound) {
		return nil, err
	}

	if existing != nil {
		if existing.Status == entity.PaymentStatusCompleted {
			return nil, entity.ErrPaymentAlreadyCompleted
		}
		if !s.expired(existing) {
			return existing, nil
		}

		// Истёкший платёж закрывается, его ссылка остаётся в истории:
		// поздний callback по ней получит «уже обработано», а не
		// потеряется. Новый платёж выпускается отдельной записью.
		if err := s.paymentRepo.MarkFailed(ctx, existing.ID, vnpay.CodeTimeout); err != nil {
			return nil, err
		}

		log.Printf("Платёж истёк и закрыт: ID=%d, Booking=%d, TxnRef=%s",
			existing.ID, booking.ID, existing.TxnRef)
	}

	now := time.Now()
	payment := &entity.Payment{
		BookingID: booking.ID,
		Amount:    booking.TotalPrice,
		Method:    method,
		Status:    entity.PaymentStatusProcessing,
		TxnRef:    newTxnRef(booking.ID),
		OrderInfo: orderInfo,
		IPAddress: req.IPAddress,
	}
	payment.PaymentURL = s.processor.BuildPaymentURL(vnpay.PaymentURLInput{
		TxnRef:    payment.TxnRef,
		Amount:    payment.Amount,
		OrderInfo: payment.OrderInfo,
		IPAddress: req.IPAddress,
		BankCode:  req.BankCode,
		CreateAt:  now,
	})

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	log.Printf("Платёж создан: ID=%d, Booking=%d, Amount=%d, TxnRef=%s",
		payment.ID, payment.BookingID, payment.Amount, payment.TxnRef)

	s.scheduleReconcile(ctx, payment)
	return payment, nil
}

// scheduleReconcile планирует сверку платежа сразу после истечения
// платёжного URL, на случай потерянного callback-а
func (s *paymentService) scheduleReconcile(ctx context.Context, payment *entity.Payment) {
	if s.queue == nil {
		return
	}

	task := &Task{
		ID:   fmt.Sprintf("reconcile_payment_%d_%d", payment.ID, time.Now().Unix()),
		Type: TaskTypeReconcilePayment,
		Data: map[string]interface{}{
			"payment_id": payment.ID,
			"txn_ref":    payment.TxnRef,
		},
		ExecuteAt:  time.Now().Add(time.Duration(s.expireMinutes)*time.Minute + time.Minute),
		MaxRetries: 3,
	}

	if err := s.queue.Publish(ctx, task); err != nil {
		log.Printf("Ошибка при планировании сверки платежа %d: %v", payment.ID, err)
	}
}

// callbackResult разбирает проверенные параметры callback-а
func callbackResult(params map[string]string) *entity.CallbackResult {
	code := params["vnp_ResponseCode"]
	return &entity.CallbackResult{
		ResponseCode:  code,
		TransactionNo: params["vnp_TransactionNo"],
		BankCode:      params["vnp_BankCode"],
		PayDate:       params["vnp_PayDate"],
		Success:       code == vnpay.CodeSuccess,
	}
}

// verifyCallbackAmount сверяет сумму callback-а с суммой платежа.
// Процессор передаёт сумму, умноженную на 100.
func verifyCallbackAmount(params map[string]string, payment *entity.Payment) error {
	raw, ok := params["vnp_Amount"]
	if !ok {
		return entity.ErrAmountMismatch
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount != payment.Amount*100 {
		return entity.ErrAmountMismatch
	}
	return nil
}

// HandleReturn обрабатывает возврат пользователя с платёжной страницы.
// Повторная доставка уже применённого callback-а не ошибка: пользователю
// показывается фактический результат.
func (s *paymentService) HandleReturn(ctx context.Context, params map[string]string) (*CallbackResponse, error) {
	if !s.processor.Signer().VerifyParams(params) {
		return nil, entity.ErrInvalidSignature
	}

	txnRef := params["vnp_TxnRef"]
	payment, err := s.paymentRepo.GetByTxnRef(ctx, txnRef)
	if err != nil {
		return nil, err
	}

	if err := verifyCallbackAmount(params, payment); err != nil {
		return nil, err
	}

	result := callbackResult(params)
	settled, err := s.paymentRepo.Settle(ctx, txnRef, result)
	if errors.Is(err, entity.ErrPaymentAlreadyProcessed) {
		// Повторная доставка: показываем сохранённый исход, каким бы
		// он ни был.
		code := settled.ResponseCode
		if code == "" {
			code = vnpay.CodeSuccess
		}
		return &CallbackResponse{
			Code:    code,
			Message: vnpay.ResponseMessage(code),
			Payment: settled,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	log.Printf("Return-callback применён: TxnRef=%s, Code=%s, Success=%v",
		txnRef, result.ResponseCode, result.Success)

	return &CallbackResponse{
		Code:    result.ResponseCode,
		Message: vnpay.ResponseMessage(result.ResponseCode),
		Payment: settled,
	}, nil
}

// HandleIPN обрабатывает server-to-server уведомление процессора.
// Любой исход выражается кодом в теле ответа, ошибки наружу не уходят:
// процессор ретраит до получения валидного ответа.
func (s *paymentService) HandleIPN(ctx context.Context, params map[string]string) *IPNResponse {
	if !s.processor.Signer().VerifyParams(params) {
		return &IPNResponse{RspCode: vnpay.CodeChecksumFailed, Message: "Checksum failed"}
	}

	txnRef := params["vnp_TxnRef"]
	payment, err := s.paymentRepo.GetByTxnRef(ctx, txnRef)
	if errors.Is(err, entity.ErrPaymentNotFound) {
		return &IPNResponse{RspCode: vnpay.CodeOrderNotFound, Message: "Order not found"}
	}
	if err != nil {
		return &IPNResponse{RspCode: vnpay.CodeUnknownError, Message: "Unknown error"}
	}

	if err := verifyCallbackAmount(params, payment); err != nil {
		return &IPNResponse{RspCode: vnpay.CodeInvalidAmount, Message: "Amount invalid"}
	}

	result := callbackResult(params)
	_, err = s.paymentRepo.Settle(ctx, txnRef, result)
	if errors.Is(err, entity.ErrPaymentAlreadyProcessed) {
		return &IPNResponse{RspCode: vnpay.CodeOrderAlreadyDone, Message: "Order already confirmed"}
	}
	if err != nil {
		log.Printf("Ошибка при применении IPN: TxnRef=%s: %v", txnRef, err)
		return &IPNResponse{RspCode: vnpay.CodeUnknownError, Message: "Unknown error"}
	}

	log.Printf("IPN применён: TxnRef=%s, Code=%s, Success=%v",
		txnRef, result.ResponseCode, result.Success)

	return &IPNResponse{RspCode: vnpay.CodeSuccess, Message: "Confirm success"}
}

// Refund выполняет возврат завершённого платежа через API процессора.
// Нулевая сумма означает полный возврат. Локальное состояние меняется
// только после подтверждения процессора.
func (s *paymentService) Refund(ctx context.Context, req *RefundRequest) (*entity.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}

	if payment.Status != entity.PaymentStatusCompleted {
		return nil, entity.ErrPaymentNotRefundable
	}

	amount := req.Amount
	refundType := vnpay.RefundTypePartial
	if amount == 0 || amount == payment.Amount {
		amount = payment.Amount
		refundType = vnpay.RefundTypeFull
	}
	if amount < 0 || amount > payment.Amount {
		return nil, fmt.Errorf("%w: refund amount exceeds payment amount", entity.ErrValidation)
	}

	resp, err := s.processor.Refund(ctx, vnpay.RefundInput{
		TxnRef:          payment.TxnRef,
		Amount:          amount,
		TransactionNo:   payment.TransactionNo,
		TransactionDate: payment.PayDate,
		TransactionType: refundType,
		OrderInfo:       fmt.Sprintf("Refund for booking %d", payment.BookingID),
		CreateBy:        req.CreateBy,
		IPAddress:       req.IPAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrProcessor, err)
	}
	if !resp.Success() {
		return nil, fmt.Errorf("%w: refund rejected: %s (%s)",
			entity.ErrProcessor, vnpay.ResponseMessage(resp.ResponseCode), resp.ResponseCode)
	}

	booking, err := s.bookingRepo.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}

	roomLog := &entity.RoomLog{
		RoomID:       booking.RoomID,
		EventType:    entity.RoomLogBookCancelled,
		ExtraContext: fmt.Sprintf("booking=%d, refund=%d", booking.ID, amount),
	}

	if err := s.paymentRepo.MarkRefunded(ctx, payment.ID, resp.TransactionNo, roomLog); err != nil {
		return nil, err
	}

	log.Printf("Возврат выполнен: Payment=%d, Booking=%d, Amount=%d",
		payment.ID, payment.BookingID, amount)

	return s.paymentRepo.GetByID(ctx, payment.ID)
}

// GetPayment возвращает платёж по ID
func (s *paymentService) GetPayment(ctx context.Context, id int64) (*entity.Payment, error) {
	return s.paymentRepo.GetByID(ctx, id)
}

// QueryPayment запрашивает у процессора состояние транзакции. Локальный
// платёж не меняется: чинит расхождения только контур сверки.
func (s *paymentService) QueryPayment(ctx context.Context, paymentID int64, ipAddress string) (*PaymentStatusView, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	resp, err := s.processor.Query(ctx, vnpay.QueryInput{
		TxnRef:          payment.TxnRef,
		TransactionDate: queryTransactionDate(payment),
		OrderInfo:       payment.OrderInfo,
		IPAddress:       ipAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrProcessor, err)
	}

	return &PaymentStatusView{Payment: payment, Processor: resp}, nil
}

// queryTransactionDate выбирает дату транзакции для запроса: дата оплаты,
// если известна, иначе дата создания платежа
func queryTransactionDate(payment *entity.Payment) string {
	if payment.PayDate != "" {
		return payment.PayDate
	}
	return vnpay.FormatDate(payment.CreatedAt)
}

// applyQueryResult приводит локальный платёж к ответу процессора.
// Трогаются только живые незавершённые платежи.
func (s *paymentService) applyQueryResult(ctx context.Context, payment *entity.Payment, resp *vnpay.APIResponse) error {
	if payment.Status != entity.PaymentStatusPending && payment.Status != entity.PaymentStatusProcessing {
		return nil
	}
	if !resp.Success() {
		// 91 — транзакция не найдена у процессора: пользователь так и
		// не дошёл до оплаты. Остальные коды оставляем на следующий цикл.
		return nil
	}

	switch resp.TransactionStatus {
	case vnpay.CodeSuccess:
		result := &entity.CallbackResult{
			ResponseCode:  resp.TransactionStatus,
			TransactionNo: resp.TransactionNo,
			BankCode:      resp.BankCode,
			PayDate:       resp.PayDate,
			Success:       true,
		}
		_, err := s.paymentRepo.Settle(ctx, payment.TxnRef, result)
		if err != nil && !errors.Is(err, entity.ErrPaymentAlreadyProcessed) {
			return err
		}
		log.Printf("Сверка: платёж %d подтверждён процессором", payment.ID)
	case vnpay.CodeOrderAlreadyDone:
		// Уже подтверждён — ничего делать не нужно.
	default:
		if err := s.paymentRepo.MarkFailed(ctx, payment.ID, resp.TransactionStatus); err != nil {
			return err
		}
		log.Printf("Сверка: платёж %d помечен неуспешным, статус процессора %s",
			payment.ID, resp.TransactionStatus)
	}
	return nil
}

// ReconcilePayment сверяет один платёж с процессором. Используется
// отложенными задачами очереди.
func (s *paymentService) ReconcilePayment(ctx context.Context, paymentID int64) error {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment.Status != entity.PaymentStatusPending && payment.Status != entity.PaymentStatusProcessing {
		return nil
	}

	resp, err := s.processor.Query(ctx, vnpay.QueryInput{
		TxnRef:          payment.TxnRef,
		TransactionDate: queryTransactionDate(payment),
		OrderInfo:       payment.OrderInfo,
		IPAddress:       "127.0.0.1",
	})
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrProcessor, err)
	}

	return s.applyQueryResult(ctx, payment, resp)
}

// ReconcileStale сверяет платежи, зависшие дольше порога. Страховка
// фонового воркера на случай потерянных задач очереди.
func (s *paymentService) ReconcileStale(ctx context.Context) (int, error) {
	stale, err := s.paymentRepo.GetStaleProcessing(ctx, time.Now().Add(-s.staleAfter), s.batchSize)
	if err != nil {
		return 0, err
	}

	reconciled := 0
	for _, payment := range stale {
		if err := s.ReconcilePayment(ctx, payment.ID); err != nil {
			log.Printf("Ошибка при сверке платежа %d: %v", payment.ID, err)
			continue
		}
		reconciled++
	}

	if reconciled > 0 {
		log.Printf("Сверено %d зависших платежей", reconciled)
	}
	return reconciled, nil
}
