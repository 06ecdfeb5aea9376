package vnpay

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCanonicalQuery тестирует канонизацию параметров перед подписью
func TestCanonicalQuery(t *testing.T) {
	tests := []struct {
		name     string
		params   map[string]string
		expected string
	}{
		{
			name:     "keys are sorted lexicographically",
			params:   map[string]string{"vnp_TxnRef": "42_1", "vnp_Amount": "100000", "vnp_Command": "pay"},
			expected: "vnp_Amount=100000&vnp_Command=pay&vnp_TxnRef=42_1",
		},
		{
			name:     "empty values are dropped",
			params:   map[string]string{"vnp_Amount": "100000", "vnp_BankCode": "", "vnp_TxnRef": "42_1"},
			expected: "vnp_Amount=100000&vnp_TxnRef=42_1",
		},
		{
			name:     "values are used verbatim",
			params:   map[string]string{"vnp_OrderInfo": "Payment for booking 42"},
			expected: "vnp_OrderInfo=Payment for booking 42",
		},
		{
			name:     "empty map",
			params:   map[string]string{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalQuery(tt.params))
		})
	}
}

// TestSignVerifyParams тестирует подпись и проверку параметров
func TestSignVerifyParams(t *testing.T) {
	signer := NewSigner("secret")

	params := map[string]string{
		"vnp_TmnCode":      "TESTTMN",
		"vnp_TxnRef":       "42_1700000000000",
		"vnp_Amount":       "100000000",
		"vnp_ResponseCode": "00",
	}

	t.Run("round trip", func(t *testing.T) {
		signed := signer.SignParams(params)

		require.NotEmpty(t, signed[HashParam])
		// Подпись — hex в нижнем регистре
		assert.Equal(t, strings.ToLower(signed[HashParam]), signed[HashParam])
		assert.True(t, signer.VerifyParams(signed))
	})

	t.Run("original map is not mutated", func(t *testing.T) {
		_ = signer.SignParams(params)
		_, ok := params[HashParam]
		assert.False(t, ok)
	})

	t.Run("mutated value fails verification", func(t *testing.T) {
		signed := signer.SignParams(params)
		signed["vnp_Amount"] = "1"
		assert.False(t, signer.VerifyParams(signed))
	})

	t.Run("wrong secret fails verification", func(t *testing.T) {
		signed := signer.SignParams(params)
		assert.False(t, NewSigner("other").VerifyParams(signed))
	})

	t.Run("missing signature fails verification", func(t *testing.T) {
		assert.False(t, signer.VerifyParams(params))
	})

	t.Run("uppercase signature is accepted", func(t *testing.T) {
		signed := signer.SignParams(params)
		signed[HashParam] = strings.ToUpper(signed[HashParam])
		assert.True(t, signer.VerifyParams(signed))
	})

	t.Run("hash type parameter is excluded from the signed input", func(t *testing.T) {
		signed := signer.SignParams(params)
		signed[HashTypeParam] = "HmacSHA512"
		assert.True(t, signer.VerifyParams(signed))
	})
}

// TestSignVerifyPipe тестирует pipe-подпись server-to-server запросов
func TestSignVerifyPipe(t *testing.T) {
	signer := NewSigner("secret")

	fields := []string{"req-1", "2.1.0", "refund", "TESTTMN", "02", "42_1", "100000000"}

	t.Run("round trip", func(t *testing.T) {
		sig := signer.SignPipe(fields...)
		require.NotEmpty(t, sig)
		assert.True(t, signer.VerifyPipe(sig, fields...))
	})

	t.Run("field order matters", func(t *testing.T) {
		sig := signer.SignPipe(fields...)
		swapped := []string{"2.1.0", "req-1", "refund", "TESTTMN", "02", "42_1", "100000000"}
		assert.False(t, signer.VerifyPipe(sig, swapped...))
	})

	t.Run("empty fields stay in place", func(t *testing.T) {
		withEmpty := signer.SignPipe("req-1", "", "refund")
		withoutEmpty := signer.SignPipe("req-1", "refund")
		assert.NotEqual(t, withEmpty, withoutEmpty)
	})

	t.Run("wrong secret fails verification", func(t *testing.T) {
		sig := signer.SignPipe(fields...)
		assert.False(t, NewSigner("other").VerifyPipe(sig, fields...))
	})
}

// TestFormatDate тестирует формат даты процессора
func TestFormatDate(t *testing.T) {
	moment := time.Date(2027, time.May, 1, 10, 15, 30, 0, time.UTC)
	assert.Equal(t, "20270501101530", FormatDate(moment))
}

// TestResponseMessage тестирует сопоставление кодов ответов сообщениям
func TestResponseMessage(t *testing.T) {
	assert.Equal(t, "Transaction successful", ResponseMessage(CodeSuccess))
	assert.Equal(t, "Invalid checksum", ResponseMessage(CodeChecksumFailed))
	assert.Equal(t, "Transaction cancelled by customer", ResponseMessage(CodeUserCancelled))

	// Неизвестный код сводится к общему сообщению
	assert.Equal(t, ResponseMessage(CodeUnknownError), ResponseMessage("42"))
}

// TestBuildPaymentURL тестирует сборку подписанного платёжного URL
func TestBuildPaymentURL(t *testing.T) {
	cfg := Config{
		TmnCode:       "TESTTMN",
		HashSecret:    "secret",
		PayURL:        "https://sandbox.example/paymentv2/vpcpay.html",
		ReturnURL:     "https://shop.example/api/v1/payments/vnpay-return",
		Version:       "2.1.0",
		CurrencyCode:  "VND",
		Locale:        "vn",
		OrderType:     "other",
		ExpireMinutes: 15,
	}
	client := NewClient(cfg)
	createAt := time.Date(2027, time.May, 1, 10, 0, 0, 0, time.UTC)

	raw := client.BuildPaymentURL(PaymentURLInput{
		TxnRef:    "42_1700000000000",
		Amount:    1000000,
		OrderInfo: "Payment for booking 42",
		IPAddress: "10.0.0.1",
		BankCode:  "NCB",
		CreateAt:  createAt,
	})

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "sandbox.example", parsed.Host)

	query := parsed.Query()
	// Сумма передаётся умноженной на 100
	assert.Equal(t, "100000000", query.Get("vnp_Amount"))
	assert.Equal(t, "42_1700000000000", query.Get("vnp_TxnRef"))
	assert.Equal(t, "pay", query.Get("vnp_Command"))
	assert.Equal(t, "NCB", query.Get("vnp_BankCode"))
	assert.Equal(t, "20270501100000", query.Get("vnp_CreateDate"))
	// URL истекает через ExpireMinutes после создания
	assert.Equal(t, "20270501101500", query.Get("vnp_ExpireDate"))

	// Подпись URL проходит обратную проверку
	params := make(map[string]string, len(query))
	for k := range query {
		params[k] = query.Get(k)
	}
	assert.True(t, client.Signer().VerifyParams(params))

	// Строка запроса передаётся байт в байт в том виде, в каком
	// подписана: канонизированные пары плюс подпись в конце
	unsigned := make(map[string]string, len(params))
	for k, v := range params {
		if k == HashParam {
			continue
		}
		unsigned[k] = v
	}
	assert.Equal(t, CanonicalQuery(unsigned)+"&"+HashParam+"="+params[HashParam], parsed.RawQuery)
	assert.Contains(t, parsed.RawQuery, "vnp_OrderInfo=Payment for booking 42")
}

// TestBuildPaymentURLOmitsEmptyBankCode тестирует опциональность кода банка
func TestBuildPaymentURLOmitsEmptyBankCode(t *testing.T) {
	client := NewClient(Config{
		TmnCode:       "TESTTMN",
		HashSecret:    "secret",
		PayURL:        "https://sandbox.example/paymentv2/vpcpay.html",
		ReturnURL:     "https://shop.example/return",
		Version:       "2.1.0",
		CurrencyCode:  "VND",
		Locale:        "vn",
		OrderType:     "other",
		ExpireMinutes: 15,
	})

	raw := client.BuildPaymentURL(PaymentURLInput{
		TxnRef:   "42_1",
		Amount:   1000,
		CreateAt: time.Now(),
	})

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.False(t, parsed.Query().Has("vnp_BankCode"))
}
