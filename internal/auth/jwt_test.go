package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testSecret   = "test-secret"
	testIssuer   = "test-issuer"
	testAudience = "test-audience"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := NewAccessToken(testSecret, testIssuer, testAudience, time.Minute, 42, "ana@stud.ase.ro", RoleStudent)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if len(strings.Split(token, ".")) != 3 {
		t.Fatalf("expected three token segments")
	}

	claims, err := ParseToken(testSecret, testIssuer, testAudience, token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if claims.UserID() != 42 || claims.Email != "ana@stud.ase.ro" || claims.Role != RoleStudent {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := NewAccessToken(testSecret, testIssuer, testAudience, -time.Minute, 1, "a@b.ro", RoleProfessor)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken(testSecret, testIssuer, testAudience, token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestParseTokenRejectsWrongKey(t *testing.T) {
	token, err := NewAccessToken("other-secret", testIssuer, testAudience, time.Minute, 1, "a@b.ro", RoleProfessor)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken(testSecret, testIssuer, testAudience, token); err == nil {
		t.Fatalf("expected wrong-key token to be rejected")
	}
}

func TestParseTokenRejectsWrongAlgorithm(t *testing.T) {
	claims := Claims{
		Email: "a@b.ro",
		Role:  RoleProfessor,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, err := ParseToken(testSecret, testIssuer, testAudience, signed); err == nil {
		t.Fatalf("expected HS512 token to be rejected")
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, err := ParseToken(testSecret, testIssuer, testAudience, unsigned); err == nil {
		t.Fatalf(`expected alg "none" token to be rejected`)
	}
}

func TestParseTokenRejectsIssuerAudienceMismatch(t *testing.T) {
	token, err := NewAccessToken(testSecret, "someone-else", testAudience, time.Minute, 1, "a@b.ro", RoleAdmin)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken(testSecret, testIssuer, testAudience, token); err == nil {
		t.Fatalf("expected issuer mismatch to be rejected")
	}

	token, err = NewAccessToken(testSecret, testIssuer, "other-audience", time.Minute, 1, "a@b.ro", RoleAdmin)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken(testSecret, testIssuer, testAudience, token); err == nil {
		t.Fatalf("expected audience mismatch to be rejected")
	}
}

func TestParseTokenRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		if _, err := ParseToken(testSecret, testIssuer, testAudience, raw); err == nil {
			t.Fatalf("expected malformed token %q to be rejected", raw)
		}
	}
}

func TestParseTokenRejectsUnknownRole(t *testing.T) {
	token, err := NewAccessToken(testSecret, testIssuer, testAudience, time.Minute, 1, "a@b.ro", Role("Superuser"))
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken(testSecret, testIssuer, testAudience, token); err == nil {
		t.Fatalf("expected unknown role claim to be rejected")
	}
}
