package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	raw, err := m.GenerateAccessToken("deploy-bot")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.VerifyAccessToken(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "deploy-bot" || claims.JTI == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejects(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	good, _ := m.GenerateAccessToken("x")

	expired := NewManager("test-secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _ := expired.GenerateAccessToken("x")

	otherKey, _ := NewManager("other-secret", time.Hour).GenerateAccessToken("x")

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Subject:   "x",
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	wrongType, _ := refresh.SignedString([]byte("test-secret"))

	tests := map[string]string{
		"garbage":       "not-a-token",
		"truncated":     good[:len(good)-4],
		"expired":       old,
		"wrong key":     otherKey,
		"non-access":    wrongType,
		"unsigned none": "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJ4IiwidHlwIjoiYWNjZXNzIn0.",
	}

	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := m.VerifyAccessToken(tok); err == nil {
				t.Fatalf("token accepted")
			}
		})
	}
}
