package services

import (
	"testing"
)

func TestSignatureVerifier_Verify(t *testing.T) {
	secret := "test_webhook_secret"
	body := []byte(`{"event":"payment.completed","data":{"payment_id":"p1","reservation_id":"r1"}}`)

	verifier := NewSignatureVerifier(secret)
	signature := verifier.Sign(body)

	if !verifier.Verify(body, signature) {
		t.Error("Verify() = false, want true for a correctly signed body")
	}
}

func TestSignatureVerifier_Verify_TamperedBody(t *testing.T) {
	secret := "test_webhook_secret"
	body := []byte(`{"event":"payment.completed","data":{"payment_id":"p1","reservation_id":"r1"}}`)

	verifier := NewSignatureVerifier(secret)
	signature := verifier.Sign(body)

	tampered := make([]byte, len(body))
	copy(tampered, body)
	tampered[0] ^= 0x01

	if verifier.Verify(tampered, signature) {
		t.Error("Verify() = true, want false for a body with a flipped bit")
	}
}

func TestSignatureVerifier_Verify_WrongSecret(t *testing.T) {
	body := []byte(`{"event":"payment.completed"}`)

	signature := NewSignatureVerifier("secret_a").Sign(body)

	if NewSignatureVerifier("secret_b").Verify(body, signature) {
		t.Error("Verify() = true, want false when signed with a different secret")
	}
}

func TestSignatureVerifier_Verify_MissingSignature(t *testing.T) {
	verifier := NewSignatureVerifier("secret")

	if verifier.Verify([]byte(`{}`), "") {
		t.Error("Verify() = true, want false for an empty signature")
	}
}

func TestSignatureVerifier_Verify_NonHexSignature(t *testing.T) {
	verifier := NewSignatureVerifier("secret")

	if verifier.Verify([]byte(`{}`), "not-a-hex-digest") {
		t.Error("Verify() = true, want false for a non-hex signature")
	}
}

func TestSignatureVerifier_Verify_EmptySecret(t *testing.T) {
	verifier := NewSignatureVerifier("")
	body := []byte(`{}`)

	if verifier.Verify(body, NewSignatureVerifier("x").Sign(body)) {
		t.Error("Verify() = true, want false when no secret is configured")
	}
	if verifier.Configured() {
		t.Error("Configured() = true, want false")
	}
}
