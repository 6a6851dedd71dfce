package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"testing"
	"time"
)

func signStripe(payload []byte, secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyStripeSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	secret := "whsec_test"
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Unix()

	if !VerifyStripeSignature(payload, signStripe(payload, secret, ts), secret, DefaultSignatureTolerance, now) {
		t.Fatal("valid signature rejected")
	}
	if VerifyStripeSignature(payload, signStripe(payload, "wrong_secret", ts), secret, DefaultSignatureTolerance, now) {
		t.Fatal("signature from wrong secret accepted")
	}
	if VerifyStripeSignature([]byte("tampered"), signStripe(payload, secret, ts), secret, DefaultSignatureTolerance, now) {
		t.Fatal("signature over different payload accepted")
	}
	if VerifyStripeSignature(payload, "", secret, DefaultSignatureTolerance, now) {
		t.Fatal("empty header accepted")
	}
	if VerifyStripeSignature(payload, signStripe(payload, secret, ts), "", DefaultSignatureTolerance, now) {
		t.Fatal("empty secret accepted")
	}
}

func TestVerifyStripeSignatureToleranceWindow(t *testing.T) {
	payload := []byte(`{}`)
	secret := "whsec_test"
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	stale := now.Add(-10 * time.Minute).Unix()
	if VerifyStripeSignature(payload, signStripe(payload, secret, stale), secret, 5*time.Minute, now) {
		t.Fatal("stale timestamp accepted")
	}
	recent := now.Add(-1 * time.Minute).Unix()
	if !VerifyStripeSignature(payload, signStripe(payload, secret, recent), secret, 5*time.Minute, now) {
		t.Fatal("recent timestamp rejected")
	}
}

func TestVerifyStripeSignatureMultipleV1Entries(t *testing.T) {
	payload := []byte(`{}`)
	secret := "whsec_test"
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Unix()

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	good := hex.EncodeToString(mac.Sum(nil))
	header := fmt.Sprintf("t=%d,v1=%s,v1=%s", ts, "00"+good[2:], good)

	if !VerifyStripeSignature(payload, header, secret, DefaultSignatureTolerance, now) {
		t.Fatal("header with one valid v1 entry rejected")
	}
}
