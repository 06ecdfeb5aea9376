package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Config holds the merchant credentials and endpoint settings for the
// payment processor.
type Config struct {
	TmnCode        string
	HashSecret     string
	PayURL         string
	APIURL         string
	ReturnURL      string
	Version        string
	CurrencyCode   string
	Locale         string
	OrderType      string
	ExpireMinutes  int
	RequestTimeout time.Duration
}

// DateLayout is the timestamp format the processor expects in every
// request and response (yyyyMMddHHmmss).
const DateLayout = "20060102150405"

// HashParam is the query parameter carrying the signature. It is never
// part of the signed input.
const (
	HashParam     = "vnp_SecureHash"
	HashTypeParam = "vnp_SecureHashType"
)

// Signer computes and verifies HMAC-SHA512 signatures over processor
// payloads.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// CanonicalQuery builds the canonical form of a parameter map: empty
// values are dropped, keys are sorted lexicographically and pairs are
// joined as key=value with '&'. Values are used verbatim, without URL
// re-encoding.
func CanonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

func (s *Signer) hash(data string) string {
	mac := hmac.New(sha512.New, s.secret)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignParams signs a parameter map and returns the same map with the
// signature added under vnp_SecureHash.
func (s *Signer) SignParams(params map[string]string) map[string]string {
	signed := make(map[string]string, len(params)+1)
	for k, v := range params {
		signed[k] = v
	}
	delete(signed, HashParam)
	delete(signed, HashTypeParam)
	signed[HashParam] = s.hash(CanonicalQuery(signed))
	return signed
}

// VerifyParams checks the signature of an incoming callback. The
// vnp_SecureHash and vnp_SecureHashType parameters are removed before
// canonicalization; the comparison is constant-time.
func (s *Signer) VerifyParams(params map[string]string) bool {
	got, ok := params[HashParam]
	if !ok || got == "" {
		return false
	}
	unsigned := make(map[string]string, len(params))
	for k, v := range params {
		if k == HashParam || k == HashTypeParam {
			continue
		}
		unsigned[k] = v
	}
	want := s.hash(CanonicalQuery(unsigned))
	return hmac.Equal([]byte(strings.ToLower(got)), []byte(want))
}

// SignPipe signs server-to-server payloads (refund, query), whose
// signature input is the given fields joined with '|' in the exact
// order the processor prescribes. Empty fields stay in place.
func (s *Signer) SignPipe(fields ...string) string {
	return s.hash(strings.Join(fields, "|"))
}

// VerifyPipe checks a pipe-format signature in constant time.
func (s *Signer) VerifyPipe(signature string, fields ...string) bool {
	want := s.SignPipe(fields...)
	return hmac.Equal([]byte(strings.ToLower(signature)), []byte(want))
}

// FormatDate renders a timestamp in the processor's date format.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
