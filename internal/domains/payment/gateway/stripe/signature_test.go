package stripe

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

var signatureNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func signedHeader(payload []byte, ts time.Time, secret string) string {
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), computeSignature(payload, ts.Unix(), secret))
}

func TestVerifyWebhookSignature_Valid(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	header := signedHeader(payload, signatureNow, testWebhookSecret)

	err := VerifyWebhookSignature(payload, header, testWebhookSecret, signatureNow)

	assert.NoError(t, err)
}

func TestVerifyWebhookSignature_ToleratesSlightDelay(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := signedHeader(payload, signatureNow, testWebhookSecret)

	err := VerifyWebhookSignature(payload, header, testWebhookSecret, signatureNow.Add(4*time.Minute))

	assert.NoError(t, err)
}

func TestVerifyWebhookSignature_TamperedBody(t *testing.T) {
	payload := []byte(`{"id":"evt_1","amount":100}`)
	header := signedHeader(payload, signatureNow, testWebhookSecret)

	tampered := []byte(`{"id":"evt_1","amount":999}`)
	err := VerifyWebhookSignature(tampered, header, testWebhookSecret, signatureNow)

	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifyWebhookSignature_WrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := signedHeader(payload, signatureNow, "whsec_other")

	err := VerifyWebhookSignature(payload, header, testWebhookSecret, signatureNow)

	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifyWebhookSignature_StaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	old := signatureNow.Add(-6 * time.Minute)
	header := signedHeader(payload, old, testWebhookSecret)

	err := VerifyWebhookSignature(payload, header, testWebhookSecret, signatureNow)

	assert.ErrorIs(t, err, ErrSignatureExpired)
}

func TestVerifyWebhookSignature_MalformedHeader(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)

	tests := []struct {
		name   string
		header string
	}{
		{"empty", ""},
		{"missing timestamp", "v1=deadbeef"},
		{"missing signature", fmt.Sprintf("t=%d", signatureNow.Unix())},
		{"garbage timestamp", "t=notanumber,v1=deadbeef"},
		{"no key value pairs", "stripe-signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyWebhookSignature(payload, tt.header, testWebhookSecret, signatureNow)
			assert.ErrorIs(t, err, ErrInvalidSignatureHeader)
		})
	}
}

func TestVerifyWebhookSignature_MultipleSignatures(t *testing.T) {
	// Stripe sends multiple v1 entries during secret rollover; any match
	// must be accepted.
	payload := []byte(`{"id":"evt_1"}`)
	good := computeSignature(payload, signatureNow.Unix(), testWebhookSecret)
	header := fmt.Sprintf("t=%d,v1=%s,v1=%s", signatureNow.Unix(), "0000bad", good)

	err := VerifyWebhookSignature(payload, header, testWebhookSecret, signatureNow)

	require.NoError(t, err)
}
