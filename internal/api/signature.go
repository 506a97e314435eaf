package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signatureHeader = "X-Alchemy-Signature"

// Sign returns the hex HMAC-SHA256 of body under key.
func Sign(key string, body []byte) string {
	h := hmac.New(sha256.New, []byte(key))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// verifySignature accepts a bare hex digest or one prefixed with "sha256=".
func verifySignature(key string, body []byte, header string) bool {
	got := strings.TrimPrefix(strings.TrimSpace(header), "sha256=")
	if got == "" {
		return false
	}
	decoded, err := hex.DecodeString(strings.ToLower(got))
	if err != nil {
		return false
	}
	h := hmac.New(sha256.New, []byte(key))
	h.Write(body)
	return hmac.Equal(decoded, h.Sum(nil))
}
