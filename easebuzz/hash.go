package easebuzz

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/codebreakz/hackathon-registration/ptr"
)

// The response signature is positional; these slots stand in for udf10..udf6
// and are always empty for this integration.
const emptyHashSlots = 10

// ReverseHashInput builds the pipe-delimited string the gateway signs on a
// callback: salt, status, the empty slots, udf5..udf1, email, firstname,
// productinfo, amount, txnid.
func ReverseHashInput(salt string, c Callback) string {
	parts := make([]string, 0, 2+emptyHashSlots+10)
	parts = append(parts, salt, ptr.Deref(c.Status))
	for range emptyHashSlots {
		parts = append(parts, "")
	}
	parts = append(parts,
		ptr.Deref(c.UDF5),
		ptr.Deref(c.UDF4),
		ptr.Deref(c.UDF3),
		ptr.Deref(c.UDF2),
		ptr.Deref(c.UDF1),
		ptr.Deref(c.Email),
		ptr.Deref(c.FirstName),
		ptr.Deref(c.ProductInfo),
		ptr.Deref(c.Amount),
		ptr.Deref(c.TxnID),
	)

	return strings.Join(parts, "|")
}

// ReverseHash is the lower-case hex SHA-512 of ReverseHashInput.
func ReverseHash(salt string, c Callback) string {
	sum := sha512.Sum512([]byte(ReverseHashInput(salt, c)))
	return hex.EncodeToString(sum[:])
}

// VerifyHash reports whether the callback's hash matches the one computed with salt.
func VerifyHash(salt string, c Callback) bool {
	expected := ReverseHash(salt, c)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(ptr.Deref(c.Hash))) == 1
}
