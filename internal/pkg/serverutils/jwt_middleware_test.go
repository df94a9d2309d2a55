package serverutils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestParseToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	t.Run("valid token yields user id", func(t *testing.T) {
		tokenStr := signToken(t, "test-secret", jwt.MapClaims{
			"user_id": "5a2f0c4e-0000-4000-8000-000000000001",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})

		userID, err := ParseToken(tokenStr)
		if err != nil {
			t.Fatalf("ParseToken: %v", err)
		}
		if userID != "5a2f0c4e-0000-4000-8000-000000000001" {
			t.Errorf("userID = %q", userID)
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		tokenStr := signToken(t, "other-secret", jwt.MapClaims{"user_id": "u"})
		if _, err := ParseToken(tokenStr); err == nil {
			t.Error("expected error for wrong signature")
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		tokenStr := signToken(t, "test-secret", jwt.MapClaims{
			"user_id": "u",
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})
		if _, err := ParseToken(tokenStr); err == nil {
			t.Error("expected error for expired token")
		}
	})

	t.Run("missing user_id claim rejected", func(t *testing.T) {
		tokenStr := signToken(t, "test-secret", jwt.MapClaims{"sub": "someone"})
		if _, err := ParseToken(tokenStr); err == nil {
			t.Error("expected error for missing user_id")
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		if _, err := ParseToken("not.a.token"); err == nil {
			t.Error("expected error for malformed token")
		}
	})
}
