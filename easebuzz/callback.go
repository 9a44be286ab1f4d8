// Package easebuzz holds the Easebuzz payment gateway vocabulary: the callback
// payload, its reverse-hash signature and the vendor status strings.
package easebuzz

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/codebreakz/hackathon-registration/ptr"
)

const (
	FieldTxnID       = "txnid"
	FieldAmount      = "amount"
	FieldProductInfo = "productinfo"
	FieldFirstName   = "firstname"
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldStatus      = "status"
	FieldEasepayID   = "easepayid"
	FieldHash        = "hash"
	FieldUDF1        = "udf1"
	FieldUDF2        = "udf2"
	FieldUDF3        = "udf3"
	FieldUDF4        = "udf4"
	FieldUDF5        = "udf5"
)

// Callback is a payment notification as delivered by the gateway. A nil field
// was absent from the payload.
type Callback struct {
	TxnID       *string
	Amount      *string
	ProductInfo *string
	FirstName   *string
	Email       *string
	Phone       *string
	Status      *string
	EasepayID   *string
	Hash        *string
	UDF1        *string
	UDF2        *string
	UDF3        *string
	UDF4        *string
	UDF5        *string
}

func (c *Callback) fields() map[string]**string {
	return map[string]**string{
		FieldTxnID:       &c.TxnID,
		FieldAmount:      &c.Amount,
		FieldProductInfo: &c.ProductInfo,
		FieldFirstName:   &c.FirstName,
		FieldEmail:       &c.Email,
		FieldPhone:       &c.Phone,
		FieldStatus:      &c.Status,
		FieldEasepayID:   &c.EasepayID,
		FieldHash:        &c.Hash,
		FieldUDF1:        &c.UDF1,
		FieldUDF2:        &c.UDF2,
		FieldUDF3:        &c.UDF3,
		FieldUDF4:        &c.UDF4,
		FieldUDF5:        &c.UDF5,
	}
}

// CallbackFromValues reads a form-encoded callback. Unknown keys are ignored.
func CallbackFromValues(values url.Values) Callback {
	var c Callback
	for name, field := range c.fields() {
		if values.Has(name) {
			*field = ptr.To(values.Get(name))
		}
	}
	return c
}

// CallbackFromJSON reads a JSON object callback. Scalars are converted to their
// string form and nulls are treated as absent.
func CallbackFromJSON(body []byte) (Callback, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Callback{}, fmt.Errorf("failed to decode callback JSON: %w", err)
	}

	var c Callback
	for name, field := range c.fields() {
		v, ok := raw[name]
		if !ok {
			continue
		}

		s, ok := scalarString(v)
		if !ok {
			continue
		}
		*field = ptr.To(s)
	}
	return c, nil
}

func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}
