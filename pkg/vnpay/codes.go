package vnpay

// Transaction response codes returned by the processor.
const (
	CodeSuccess          = "00"
	CodeOrderNotFound    = "01"
	CodeOrderAlreadyDone = "02"
	CodeInvalidAmount    = "04"
	CodeRefundRejected   = "06"
	CodeFraudSuspected   = "07"
	CodeCardNotEnrolled  = "09"
	CodeAuthFailed       = "10"
	CodeTimeout          = "11"
	CodeCardLocked       = "12"
	CodeWrongOTP         = "13"
	CodeUserCancelled    = "24"
	CodeInsufficient     = "51"
	CodeLimitExceeded    = "65"
	CodeBankMaintenance  = "75"
	CodeWrongPassword    = "79"
	CodeChecksumFailed   = "97"
	CodeUnknownError     = "99"
)

var responseMessages = map[string]string{
	CodeSuccess:          "Transaction successful",
	CodeOrderNotFound:    "Order not found",
	CodeOrderAlreadyDone: "Order already confirmed",
	CodeInvalidAmount:    "Invalid amount",
	CodeRefundRejected:   "Refund rejected by issuing bank",
	CodeFraudSuspected:   "Transaction suspected of fraud",
	CodeCardNotEnrolled:  "Card not registered for internet banking",
	CodeAuthFailed:       "Card authentication failed",
	CodeTimeout:          "Payment deadline expired",
	CodeCardLocked:       "Card is locked",
	CodeWrongOTP:         "Wrong OTP entered",
	CodeUserCancelled:    "Transaction cancelled by customer",
	CodeInsufficient:     "Insufficient account balance",
	CodeLimitExceeded:    "Daily transaction limit exceeded",
	CodeBankMaintenance:  "Issuing bank under maintenance",
	CodeWrongPassword:    "Wrong payment password entered too many times",
	CodeChecksumFailed:   "Invalid checksum",
	CodeUnknownError:     "Unknown error",
}

// ResponseMessage maps a processor response code to a human-readable
// message. Unknown codes fall back to the generic message.
func ResponseMessage(code string) string {
	if msg, ok := responseMessages[code]; ok {
		return msg
	}
	return responseMessages[CodeUnknownError]
}
