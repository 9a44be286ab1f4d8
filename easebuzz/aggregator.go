package easebuzz

import (
	"strings"

	"github.com/codebreakz/hackathon-registration/ptr"
)

// AggregatorRule identifies callbacks relayed through the gateway's collection
// aggregator. Those are signed with a scheme this service does not implement, so
// they are accepted without hash verification.
type AggregatorRule struct {
	ProductInfo string
	UDF2Marker  string
	// EventMarker is matched case-insensitively as a substring of udf1. Empty disables it.
	EventMarker string
}

var DefaultAggregatorRule = AggregatorRule{
	ProductInfo: "EasyCollect Payment",
	UDF2Marker:  "Smart Pay",
	EventMarker: "CodeBreakz",
}

func (r AggregatorRule) Matches(c Callback) bool {
	if c.ProductInfo == nil || *c.ProductInfo != r.ProductInfo {
		return false
	}

	if c.UDF2 != nil && *c.UDF2 == r.UDF2Marker {
		return true
	}

	if r.EventMarker == "" {
		return false
	}
	return strings.Contains(strings.ToLower(ptr.Deref(c.UDF1)), strings.ToLower(r.EventMarker))
}
