package easebuzz

import (
	"strings"

	"github.com/codebreakz/hackathon-registration/registration"
)

const (
	vendorStatusSuccess       = "success"
	vendorStatusFailure       = "failure"
	vendorStatusUserCancelled = "usercancelled"
)

// TranslateStatus maps a gateway status to a payment status, ignoring case.
// Anything else, including padded values, stays pending.
func TranslateStatus(vendorStatus string) registration.PaymentStatus {
	switch strings.ToLower(vendorStatus) {
	case vendorStatusSuccess:
		return registration.PAYMENT_COMPLETED
	case vendorStatusFailure, vendorStatusUserCancelled:
		return registration.PAYMENT_FAILED
	default:
		return registration.PAYMENT_PENDING
	}
}
