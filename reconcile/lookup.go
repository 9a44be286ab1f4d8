package reconcile

import (
	"strings"

	"github.com/codebreakz/hackathon-registration/easebuzz"
	"github.com/codebreakz/hackathon-registration/ptr"
	"github.com/codebreakz/hackathon-registration/registration"
)

type LookupField string

const (
	LOOKUP_REGISTRATION_ID LookupField = "registrationId"
	LOOKUP_EMAIL           LookupField = "email"
	LOOKUP_MOBILE          LookupField = "mobile"
)

// Selector names the single registration a strategy wants to update.
type Selector struct {
	Field LookupField
	Value string
}

type lookupStrategy func(c easebuzz.Callback, lookupKey string) (Selector, bool)

// Evaluated in order; the first selector that matches a record wins.
var lookupStrategies = []lookupStrategy{
	byRegistrationID,
	byPendingEmail,
	byPendingMobile,
}

// LookupKey prefers udf1, which carries the registration ID when it was set at
// payment initiation, and falls back to txnid.
func LookupKey(c easebuzz.Callback) string {
	udf1 := strings.TrimSpace(ptr.Deref(c.UDF1))
	if udf1 != "" && udf1 != "undefined" {
		return udf1
	}

	return strings.TrimSpace(ptr.Deref(c.TxnID))
}

// Selectors returns the selectors to try for a callback, in precedence order.
func Selectors(c easebuzz.Callback, lookupKey string) []Selector {
	var selectors []Selector
	for _, strategy := range lookupStrategies {
		if sel, ok := strategy(c, lookupKey); ok {
			selectors = append(selectors, sel)
		}
	}
	return selectors
}

func byRegistrationID(_ easebuzz.Callback, lookupKey string) (Selector, bool) {
	key := strings.TrimSpace(lookupKey)
	if key == "" {
		return Selector{}, false
	}
	return Selector{Field: LOOKUP_REGISTRATION_ID, Value: key}, true
}

func byPendingEmail(c easebuzz.Callback, _ string) (Selector, bool) {
	email := registration.NormalizeEmail(ptr.Deref(c.Email))
	if email == "" {
		return Selector{}, false
	}
	return Selector{Field: LOOKUP_EMAIL, Value: email}, true
}

func byPendingMobile(c easebuzz.Callback, _ string) (Selector, bool) {
	mobile := strings.TrimSpace(ptr.Deref(c.Phone))
	if mobile == "" {
		return Selector{}, false
	}
	return Selector{Field: LOOKUP_MOBILE, Value: mobile}, true
}
