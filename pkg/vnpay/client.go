package vnpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	commandPay     = "pay"
	commandRefund  = "refund"
	commandQueryDR = "querydr"

	// Refund transaction types.
	RefundTypeFull    = "02"
	RefundTypePartial = "03"
)

// Client talks to the payment processor: it builds redirect URLs and
// performs server-to-server refund and query calls against the JSON API.
type Client struct {
	cfg    Config
	signer *Signer
	http   *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		signer: NewSigner(cfg.HashSecret),
		http:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) Signer() *Signer { return c.signer }

// PaymentURLInput carries the per-payment fields of a redirect URL.
// Amount is in whole currency units; the protocol multiplies by 100.
type PaymentURLInput struct {
	TxnRef    string
	Amount    int64
	OrderInfo string
	IPAddress string
	BankCode  string
	CreateAt  time.Time
}

// BuildPaymentURL assembles the signed redirect URL the customer is
// sent to. The URL expires ExpireMinutes after CreateAt.
func (c *Client) BuildPaymentURL(in PaymentURLInput) string {
	params := map[string]string{
		"vnp_Version":    c.cfg.Version,
		"vnp_Command":    commandPay,
		"vnp_TmnCode":    c.cfg.TmnCode,
		"vnp_Amount":     strconv.FormatInt(in.Amount*100, 10),
		"vnp_CurrCode":   c.cfg.CurrencyCode,
		"vnp_TxnRef":     in.TxnRef,
		"vnp_OrderInfo":  in.OrderInfo,
		"vnp_OrderType":  c.cfg.OrderType,
		"vnp_Locale":     c.cfg.Locale,
		"vnp_ReturnUrl":  c.cfg.ReturnURL,
		"vnp_IpAddr":     in.IPAddress,
		"vnp_CreateDate": FormatDate(in.CreateAt),
		"vnp_ExpireDate": FormatDate(in.CreateAt.Add(time.Duration(c.cfg.ExpireMinutes) * time.Minute)),
	}
	if in.BankCode != "" {
		params["vnp_BankCode"] = in.BankCode
	}
	signed := c.signer.SignParams(params)

	// Запрос передаётся байт в байт в том виде, в каком подписан:
	// канонизированная строка плюс подпись в конце. Перекодирование
	// значений url.Values сломало бы проверку на стороне процессора.
	return c.cfg.PayURL + "?" + CanonicalQuery(params) + "&" + HashParam + "=" + signed[HashParam]
}

// RefundInput describes a refund request against a settled transaction.
type RefundInput struct {
	TxnRef          string
	Amount          int64
	TransactionNo   string
	TransactionDate string
	TransactionType string // RefundTypeFull or RefundTypePartial
	OrderInfo       string
	CreateBy        string
	IPAddress       string
}

// QueryInput describes a transaction status query.
type QueryInput struct {
	TxnRef          string
	TransactionDate string
	OrderInfo       string
	IPAddress       string
}

// APIResponse is the common shape of refund and query responses.
type APIResponse struct {
	ResponseID        string `json:"vnp_ResponseId"`
	Command           string `json:"vnp_Command"`
	TmnCode           string `json:"vnp_TmnCode"`
	TxnRef            string `json:"vnp_TxnRef"`
	Amount            string `json:"vnp_Amount"`
	OrderInfo         string `json:"vnp_OrderInfo"`
	ResponseCode      string `json:"vnp_ResponseCode"`
	Message           string `json:"vnp_Message"`
	BankCode          string `json:"vnp_BankCode"`
	PayDate           string `json:"vnp_PayDate"`
	TransactionNo     string `json:"vnp_TransactionNo"`
	TransactionType   string `json:"vnp_TransactionType"`
	TransactionStatus string `json:"vnp_TransactionStatus"`
	SecureHash        string `json:"vnp_SecureHash"`
}

// Success reports whether the processor accepted the request.
func (r *APIResponse) Success() bool {
	return r.ResponseCode == CodeSuccess
}

// Refund sends a refund command. The signature input is the
// pipe-joined field list in the order the processor prescribes.
func (c *Client) Refund(ctx context.Context, in RefundInput) (*APIResponse, error) {
	requestID := uuid.NewString()
	createDate := FormatDate(time.Now())
	amount := strconv.FormatInt(in.Amount*100, 10)

	body := map[string]string{
		"vnp_RequestId":       requestID,
		"vnp_Version":         c.cfg.Version,
		"vnp_Command":         commandRefund,
		"vnp_TmnCode":         c.cfg.TmnCode,
		"vnp_TransactionType": in.TransactionType,
		"vnp_TxnRef":          in.TxnRef,
		"vnp_Amount":          amount,
		"vnp_OrderInfo":       in.OrderInfo,
		"vnp_TransactionNo":   in.TransactionNo,
		"vnp_TransactionDate": in.TransactionDate,
		"vnp_CreateBy":        in.CreateBy,
		"vnp_CreateDate":      createDate,
		"vnp_IpAddr":          in.IPAddress,
	}
	body[HashParam] = c.signer.SignPipe(
		requestID, c.cfg.Version, commandRefund, c.cfg.TmnCode,
		in.TransactionType, in.TxnRef, amount, in.TransactionNo,
		in.TransactionDate, in.CreateBy, createDate, in.IPAddress,
		in.OrderInfo,
	)

	return c.post(ctx, body)
}

// Query asks the processor for the authoritative state of a transaction.
func (c *Client) Query(ctx context.Context, in QueryInput) (*APIResponse, error) {
	requestID := uuid.NewString()
	createDate := FormatDate(time.Now())

	body := map[string]string{
		"vnp_RequestId":       requestID,
		"vnp_Version":         c.cfg.Version,
		"vnp_Command":         commandQueryDR,
		"vnp_TmnCode":         c.cfg.TmnCode,
		"vnp_TxnRef":          in.TxnRef,
		"vnp_OrderInfo":       in.OrderInfo,
		"vnp_TransactionDate": in.TransactionDate,
		"vnp_CreateDate":      createDate,
		"vnp_IpAddr":          in.IPAddress,
	}
	body[HashParam] = c.signer.SignPipe(
		requestID, c.cfg.Version, commandQueryDR, c.cfg.TmnCode,
		in.TxnRef, in.TransactionDate, createDate, in.IPAddress,
		in.OrderInfo,
	)

	return c.post(ctx, body)
}

func (c *Client) post(ctx context.Context, body map[string]string) (*APIResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("processor API error: %s", resp.Status)
	}

	var out APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode processor response: %w", err)
	}
	return &out, nil
}
