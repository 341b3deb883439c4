package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/justsurfingit/job-application-tracker/internal/models"
)

func testUser() *models.User {
	u := &models.User{Username: "ada", Email: "ada@example.com", Name: "Ada", Provider: models.ProviderLocal}
	u.ID = 42
	return u
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123", time.Hour)

	tok, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := issuer.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "42" || claims.Email != "ada@example.com" || claims.Provider != models.ProviderLocal {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123", time.Hour)
	tok, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	t.Run("other secret", func(t *testing.T) {
		if _, err := NewTokenIssuer("another-secret-entirely", time.Hour).Parse(tok); err == nil {
			t.Error("token signed with another secret was accepted")
		}
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenIssuer("0123456789abcdef0123", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		if _, err := later.Parse(tok); err == nil {
			t.Error("expired token was accepted")
		}
	})

	t.Run("none alg", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "42",
			"iss": tokenIssuer,
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := issuer.Parse(unsigned); err == nil {
			t.Error("unsigned token was accepted")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := issuer.Parse("not.a.token"); err == nil {
			t.Error("garbage was accepted")
		}
	})
}
