package auth

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("test-signing-secret")

func TestVerify_RoundTrip(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)
	verifier := NewVerifier(testSecret)

	token, err := issuer.Issue("user-1", "tenant-1", "", "DOCTOR")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user-1, got %q", claims.UserID)
	}
	if claims.TenantID != "tenant-1" {
		t.Errorf("expected tenant-1, got %q", claims.TenantID)
	}
	if claims.RoleName != "DOCTOR" {
		t.Errorf("expected DOCTOR, got %q", claims.RoleName)
	}
}

func TestVerify_Idempotent(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)
	verifier := NewVerifier(testSecret)

	token, _ := issuer.Issue("user-1", "tenant-1", "", "NURSE")

	first, err1 := verifier.Verify(token)
	second, err2 := verifier.Verify(token)
	if err1 != nil || err2 != nil {
		t.Fatalf("verify errors: %v, %v", err1, err2)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated verification of the same token produced different claims")
	}
}

func TestVerify_WrongKey(t *testing.T) {
	issuer := NewIssuer([]byte("other-secret"), time.Hour)
	verifier := NewVerifier(testSecret)

	token, _ := issuer.Issue("user-1", "tenant-1", "", "DOCTOR")

	claims, err := verifier.Verify(token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if claims != nil {
		t.Error("expected nil claims for a bad signature")
	}
}

func TestVerify_Tampered(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)
	verifier := NewVerifier(testSecret)

	token, _ := issuer.Issue("user-1", "tenant-1", "", "DOCTOR")

	parts := strings.Split(token, ".")
	parts[1] = "eyJ0YW1wZXJlZCI6dHJ1ZX0"
	tampered := strings.Join(parts, ".")

	if _, err := verifier.Verify(tampered); err == nil {
		t.Fatal("expected error for tampered token")
	}
}

func TestVerify_Malformed(t *testing.T) {
	verifier := NewVerifier(testSecret)

	claims, err := verifier.Verify("not-a-jwt")
	if !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
	if claims != nil {
		t.Error("expected nil claims for a malformed token")
	}
}

func TestVerify_Expired(t *testing.T) {
	issuer := NewIssuer(testSecret, -time.Minute)
	verifier := NewVerifier(testSecret)

	token, _ := issuer.Issue("user-1", "tenant-1", "", "DOCTOR")

	claims, err := verifier.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	// The signature was valid, so the actor stays attributable.
	if claims == nil {
		t.Fatal("expected non-nil claims for an expired token")
	}
	if claims.UserID != "user-1" || claims.TenantID != "tenant-1" {
		t.Errorf("expected claims to carry the original identity, got %+v", claims)
	}
}
