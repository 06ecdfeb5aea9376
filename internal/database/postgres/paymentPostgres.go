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

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// isUniqueViolation reports SQLSTATE 23505: a second live payment raced
// into the same booking past the partial unique index.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

const paymentColumns = `
	id, booking_id, amount, payment_method, status,
	vnp_txn_ref, vnp_order_info, vnp_response_code, vnp_transaction_no,
	vnp_bank_code, vnp_pay_date, payment_url, ip_address,
	created_at, updated_at
`

func scanPayment(row interface {
	Scan(dest ...interface{}) error
}, p *entity.Payment) error {
	var responseCode, transactionNo, bankCode, payDate, paymentURL, ipAddress sql.NullString
	err := row.Scan(
		&p.ID,
		&p.BookingID,
		&p.Amount,
		&p.Method,
		&p.Status,
		&p.TxnRef,
		&p.OrderInfo,
		&responseCode,
		&transactionNo,
		&bankCode,
		&payDate,
		&paymentURL,
		&ipAddress,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	p.ResponseCode = responseCode.String
	p.TransactionNo = transactionNo.String
	p.BankCode = bankCode.String
	p.PayDate = payDate.String
	p.PaymentURL = paymentURL.String
	p.IPAddress = ipAddress.String
	return nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (
			booking_id, amount, payment_method, status,
			vnp_txn_ref, vnp_order_info, payment_url, ip_address,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		payment.BookingID,
		payment.Amount,
		payment.Method,
		payment.Status,
		payment.TxnRef,
		payment.OrderInfo,
		payment.PaymentURL,
		payment.IPAddress,
		now,
		now,
	).Scan(&payment.ID)

	if isUniqueViolation(err) {
		return fmt.Errorf("%w: booking already has a live payment", entity.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create payment: %v", err)
	}

	payment.CreatedAt = now
	payment.UpdatedAt = now
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id int64) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	var payment entity.Payment
	err := scanPayment(r.db.QueryRowContext(ctx, query, id), &payment)

	if err == sql.ErrNoRows {
		return nil, entity.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %v", err)
	}

	return &payment, nil
}

func (r *paymentRepository) GetByTxnRef(ctx context.Context, txnRef string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE vnp_txn_ref = $1`

	var payment entity.Payment
	err := scanPayment(r.db.QueryRowContext(ctx, query, txnRef), &payment)

	if err == sql.ErrNoRows {
		return nil, entity.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment by txn ref: %v", err)
	}

	return &payment, nil
}

// GetActiveByBooking retrieves the pending, processing or completed
// payment of a booking, newest first
func (r *paymentRepository) GetActiveByBooking(ctx context.Context, bookingID int64) (*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1 AND status IN ('pending', 'processing', 'completed')
		ORDER BY created_at DESC
		LIMIT 1
	`

	var payment entity.Payment
	err := scanPayment(r.db.QueryRowContext(ctx, query, bookingID), &payment)

	if err == sql.ErrNoRows {
		return nil, entity.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active payment: %v", err)
	}

	return &payment, nil
}

// Settle applies a verified callback. The payment row is locked for the
// duration of the transaction, so a return and an IPN arriving together
// cannot both mutate it: the second caller gets ErrPaymentAlreadyProcessed.
// A payment already settled either way (completed, failed, refunded) is
// never re-applied. On success the booking is accepted in the same
// transaction.
func (r *paymentRepository) Settle(ctx context.Context, txnRef string, result *entity.CallbackResult) (*entity.Payment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE vnp_txn_ref = $1 FOR UPDATE`

	var payment entity.Payment
	err = scanPayment(tx.QueryRowContext(ctx, query, txnRef), &payment)
	if err == sql.ErrNoRows {
		return nil, entity.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock payment: %v", err)
	}

	if payment.Status != entity.PaymentStatusPending && payment.Status != entity.PaymentStatusProcessing {
		return &payment, entity.ErrPaymentAlreadyProcessed
	}

	now := time.Now()
	newStatus := entity.PaymentStatusFailed
	if result.Success {
		newStatus = entity.PaymentStatusCompleted
	}

	updateQuery := `
		UPDATE payments
		SET status = $1, vnp_response_code = $2, vnp_transaction_no = $3,
		    vnp_bank_code = $4, vnp_pay_date = $5, updated_at = $6
		WHERE id = $7
	`
	_, err = tx.ExecContext(ctx, updateQuery,
		newStatus,
		result.ResponseCode,
		result.TransactionNo,
		result.BankCode,
		result.PayDate,
		now,
		payment.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update payment: %v", err)
	}

	// Неуспешный callback бронь не трогает: она остаётся pending,
	// платёж можно выпустить заново.
	if result.Success {
		bookingQuery := `
			UPDATE bookings SET status = $1, updated_at = $2
			WHERE id = $3 AND status = $4
		`
		_, err = tx.ExecContext(ctx, bookingQuery,
			entity.BookingStatusAccepted, now,
			payment.BookingID, entity.BookingStatusPending,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to accept booking: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %v", err)
	}

	payment.Status = newStatus
	payment.ResponseCode = result.ResponseCode
	payment.TransactionNo = result.TransactionNo
	payment.BankCode = result.BankCode
	payment.PayDate = result.PayDate
	payment.UpdatedAt = now

	return &payment, nil
}

// MarkRefunded sets the payment refunded and the booking cancelled in one
// transaction, appending the room log entry when log is non-nil
func (r *paymentRepository) MarkRefunded(ctx context.Context, id int64, transactionNo string, log *entity.RoomLog) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	now := time.Now()

	var bookingID int64
	query := `
		UPDATE payments
		SET status = $1, vnp_transaction_no = $2, updated_at = $3
		WHERE id = $4 AND status = $5
		RETURNING booking_id
	`
	err = tx.QueryRowContext(ctx, query,
		entity.PaymentStatusRefunded, transactionNo, now,
		id, entity.PaymentStatusCompleted,
	).Scan(&bookingID)
	if err == sql.ErrNoRows {
		return entity.ErrPaymentNotRefundable
	}
	if err != nil {
		return fmt.Errorf("failed to mark payment refunded: %v", err)
	}

	bookingQuery := `UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3`
	_, err = tx.ExecContext(ctx, bookingQuery, entity.BookingStatusCancelled, now, bookingID)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %v", err)
	}

	if log != nil {
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
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *paymentRepository) MarkFailed(ctx context.Context, id int64, responseCode string) error {
	query := `
		UPDATE payments
		SET status = $1, vnp_response_code = $2, updated_at = $3
		WHERE id = $4 AND status IN ('pending', 'processing')
	`
	result, err := r.db.ExecContext(ctx, query,
		entity.PaymentStatusFailed, responseCode, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark payment failed: %v", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if rowsAffected == 0 {
		return entity.ErrPaymentNotFound
	}

	return nil
}

// GetStaleProcessing retrieves payments stuck in pending or processing
// longer than olderThan, for reconciliation against the processor
func (r *paymentRepository) GetStaleProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*entity.Payment, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status IN ('pending', 'processing') AND updated_at < $1
		ORDER BY updated_at ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale payments: %v", err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		var payment entity.Payment
		if err := scanPayment(rows, &payment); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %v", err)
		}
		payments = append(payments, &payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stale payments: %v", err)
	}

	return payments, nil
}
