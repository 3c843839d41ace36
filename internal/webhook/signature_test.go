package webhook

import (
	"strings"
	"testing"
)

func TestComputeHMAC(t *testing.T) {
	payload := []byte(`{"event":"flag.created"}`)
	secret := "whsec_test"

	sig := ComputeHMAC(payload, secret)
	if !strings.HasPrefix(sig, "sha256=") {
		t.Errorf("Expected sha256= prefix, got %q", sig)
	}
	if sig != ComputeHMAC(payload, secret) {
		t.Error("Same payload and secret must produce the same signature")
	}
	if sig == ComputeHMAC(payload, "other") {
		t.Error("Different secrets must produce different signatures")
	}
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"event":"flag.toggled"}`)
	secret := "whsec_test"
	sig := ComputeHMAC(payload, secret)

	if !VerifySignature(payload, sig, secret) {
		t.Error("Expected valid signature to verify")
	}
	if VerifySignature(payload, sig, "wrong") {
		t.Error("Expected wrong secret to fail verification")
	}
	if VerifySignature([]byte("tampered"), sig, secret) {
		t.Error("Expected tampered payload to fail verification")
	}
	if VerifySignature(payload, "sha256=deadbeef", secret) {
		t.Error("Expected bogus signature to fail verification")
	}
}

func TestGenerateSecret(t *testing.T) {
	s1, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}
	if !strings.HasPrefix(s1, "whsec_") {
		t.Errorf("Expected whsec_ prefix, got %q", s1)
	}
	s2, _ := GenerateSecret()
	if s1 == s2 {
		t.Error("Expected distinct secrets")
	}
}
