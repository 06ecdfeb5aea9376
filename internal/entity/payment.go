package entity

import (
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// ActivePaymentStatuses — для одной брони одновременно допустим не более
// одного платежа в этих статусах.
var ActivePaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusProcessing,
	PaymentStatusCompleted,
}

type Payment struct {
	ID        int64         `json:"id" db:"id"`
	BookingID int64         `json:"booking_id" db:"booking_id"`
	Amount    int64         `json:"amount" db:"amount"`
	Method    string        `json:"payment_method" db:"payment_method"`
	Status    PaymentStatus `json:"status" db:"status"`

	// Поля протокола процессора.
	TxnRef        string `json:"vnp_txn_ref" db:"vnp_txn_ref"`
	OrderInfo     string `json:"vnp_order_info" db:"vnp_order_info"`
	ResponseCode  string `json:"vnp_response_code,omitempty" db:"vnp_response_code"`
	TransactionNo string `json:"vnp_transaction_no,omitempty" db:"vnp_transaction_no"`
	BankCode      string `json:"vnp_bank_code,omitempty" db:"vnp_bank_code"`
	PayDate       string `json:"vnp_pay_date,omitempty" db:"vnp_pay_date"`

	PaymentURL string    `json:"payment_url,omitempty" db:"payment_url"`
	IPAddress  string    `json:"ip_address,omitempty" db:"ip_address"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// CallbackResult — разобранные поля callback-а процессора, применяемые
// к платежу при сверке.
type CallbackResult struct {
	ResponseCode  string
	TransactionNo string
	BankCode      string
	PayDate       string
	Success       bool
}
