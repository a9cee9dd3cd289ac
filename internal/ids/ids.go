// Package ids generates external-facing business references of the form
// <PREFIX>-<base36 timestamp>-<random suffix>, e.g. REQ-M1X2Y3Z4-A1B2C3D.
// They are globally unique by construction and distinct from internal
// primary keys.
package ids

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Prefixes used by the engine.
const (
	PrefixRequest     = "REQ"
	PrefixTransaction = "TXN"
	PrefixQuote       = "QUOTE"
	PrefixPayout      = "PAYOUT"
	PrefixInvoice     = "INV"
	PrefixBill        = "BILL"
	PrefixBin         = "BIN"
)

const suffixLen = 7

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// New returns a fresh business reference for the given prefix.
func New(prefix string) string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	return prefix + "-" + ts + "-" + randomSuffix(suffixLen)
}

// Code returns a short random code of the form <PREFIX>-<n random chars>.
// Unlike New, it carries no timestamp and is not unique by construction;
// callers must check for collisions against their registry.
func Code(prefix string, n int) string {
	return prefix + "-" + randomSuffix(n)
}

// randomSuffix returns n cryptographically random base36 characters.
func randomSuffix(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand never fails on supported platforms; fall back to a
			// time-derived character rather than panicking in an ID path.
			sb.WriteByte(alphabet[time.Now().UnixNano()%int64(len(alphabet))])
			continue
		}
		sb.WriteByte(alphabet[idx.Int64()])
	}
	return sb.String()
}
