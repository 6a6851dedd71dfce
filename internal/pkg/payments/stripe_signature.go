package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// DefaultSignatureTolerance bounds how old a webhook timestamp may be
// before the delivery is rejected as a possible replay.
const DefaultSignatureTolerance = 5 * time.Minute

// VerifyStripeSignature checks a Stripe-Signature header against the
// raw request body. The header carries a unix timestamp and one or
// more v1 HMAC-SHA256 signatures over "<timestamp>.<payload>"; any
// matching v1 entry within the tolerance window passes.
func VerifyStripeSignature(payload []byte, signatureHeader, webhookSecret string, tolerance time.Duration, now time.Time) bool {
	header := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if header == "" || secret == "" {
		return false
	}

	var timestamp int64
	var candidates [][]byte
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return false
			}
			timestamp = ts
		case "v1":
			decoded, err := hex.DecodeString(strings.ToLower(value))
			if err != nil {
				continue
			}
			candidates = append(candidates, decoded)
		}
	}
	if timestamp == 0 || len(candidates) == 0 {
		return false
	}

	if tolerance > 0 {
		age := now.Sub(time.Unix(timestamp, 0))
		if age > tolerance || age < -tolerance {
			return false
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		if hmac.Equal(expected, candidate) {
			return true
		}
	}
	return false
}
