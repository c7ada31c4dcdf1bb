package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureVerifier authenticates gateway notifications with a shared-secret
// HMAC. The secret is injected at construction time so the verifier carries no
// hidden process-wide state.
type SignatureVerifier struct {
	secret string
}

func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: secret}
}

// Configured reports whether a shared secret is present. An unconfigured
// verifier rejects everything.
func (v *SignatureVerifier) Configured() bool {
	return v.secret != ""
}

// Verify checks signature against the hex HMAC-SHA256 of the exact raw
// request bytes. Re-serialized payloads must never be signed or verified;
// byte layout changes would invalidate the digest.
func (v *SignatureVerifier) Verify(rawBody []byte, signature string) bool {
	if v.secret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	received, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, received)
}

// Sign computes the hex HMAC-SHA256 digest of payload. Used by tests and by
// tooling that replays captured deliveries.
func (v *SignatureVerifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
