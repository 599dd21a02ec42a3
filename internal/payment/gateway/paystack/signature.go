package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"strings"

	paymentdomain "github.com/smallbiznis/payrelay/internal/payment/domain"
)

// SignatureHeader carries hex(HMAC-SHA512(secret key, raw body)).
const SignatureHeader = "X-Paystack-Signature"

func (c *Client) VerifyWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	_ = ctx
	signature := strings.ToLower(strings.TrimSpace(headers.Get(SignatureHeader)))
	if signature == "" {
		return paymentdomain.ErrInvalidSignature
	}

	expected := Sign(c.secretKey, payload)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return paymentdomain.ErrInvalidSignature
	}
	return nil
}

// Sign computes the signature Paystack attaches to a webhook body.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
