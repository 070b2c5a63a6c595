package provider

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-bookbinder/pkg/interfaces"
)

// Fingerprint hashes a canonical encoding of the named fields from a raw
// payload. Fields absent from the payload contribute an explicit null, so
// adding a field to the subset changes the fingerprint even when the payload
// never carries it. Canonicalization relies on JSON object keys being
// emitted in sorted order.
func Fingerprint(data interfaces.RawData, fields []string) string {
	subset := make(map[string]any, len(fields))
	for _, field := range fields {
		subset[field] = data[field]
	}
	canonical, err := json.Marshal(subset)
	if err != nil {
		// Raw payloads come from JSON decoding, so this only fires on
		// programmer error. Fall back to a representation that still
		// changes when the payload changes.
		canonical = []byte(fmt.Sprintf("%v", subset))
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// ContentHashChecker compares a content hash over a fixed field subset,
// ignoring volatile payload fields such as view counters.
type ContentHashChecker struct {
	Fields []string
}

// IsUpdateRequired reports whether the fresh payload's fingerprint differs
// from the previously persisted one. An empty previous fingerprint always
// requires an update.
func (c ContentHashChecker) IsUpdateRequired(previous string, fresh interfaces.RawData) (bool, string) {
	fingerprint := Fingerprint(fresh, c.Fields)
	if previous == "" {
		return true, fingerprint
	}
	return previous != fingerprint, fingerprint
}

// TimestampChecker compares a single last-modified field verbatim.
type TimestampChecker struct {
	Key string
}

// IsUpdateRequired reports whether the payload's timestamp differs from the
// persisted one. A missing or empty timestamp on either side requires an
// update, since staleness cannot be ruled out.
func (c TimestampChecker) IsUpdateRequired(previous string, fresh interfaces.RawData) (bool, string) {
	fingerprint := ""
	if v, ok := fresh[c.Key]; ok && v != nil {
		fingerprint = fmt.Sprint(v)
	}
	if previous == "" || fingerprint == "" {
		return true, fingerprint
	}
	return previous != fingerprint, fingerprint
}
