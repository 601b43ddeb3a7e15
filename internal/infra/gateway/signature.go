package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignPayment is the checkout signature: hex HMAC-SHA256 of "orderID|paymentID".
func SignPayment(secret, orderID, paymentID string) string {
	return SignBody(secret, []byte(orderID+"|"+paymentID))
}

func VerifyPayment(secret, orderID, paymentID, signature string) bool {
	if secret == "" || orderID == "" || paymentID == "" {
		return false
	}
	return equalHex(SignPayment(secret, orderID, paymentID), signature)
}

// SignBody is the webhook signature: hex HMAC-SHA256 of the raw body.
func SignBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifyBody(secret string, body []byte, signature string) bool {
	if secret == "" {
		return false
	}
	return equalHex(SignBody(secret, body), signature)
}

func equalHex(expected, got string) bool {
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(got))))
}
