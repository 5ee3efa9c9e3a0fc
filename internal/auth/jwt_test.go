package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateUserToken(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, err := svc.GenerateUserToken("user-123")
	if err != nil {
		t.Fatalf("Expected token generation to succeed, got %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Expected validation to succeed, got %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("Expected user-123, got %s", claims.UserID)
	}
	if claims.Role != "user" {
		t.Errorf("Expected user role, got %s", claims.Role)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	other := NewService("other-secret", time.Hour)

	token, err := svc.GenerateUserToken("user-123")
	if err != nil {
		t.Fatalf("Expected token generation to succeed, got %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("Expected validation to fail with a different secret")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewService("test-secret", -time.Hour)

	token, err := svc.GenerateUserToken("user-123")
	if err != nil {
		t.Fatalf("Expected token generation to succeed, got %v", err)
	}

	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("Expected validation to fail for an expired token")
	}
}
