package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"signal-net/internal/domain"
)

func TestJWTService_GenerateParseAccess(t *testing.T) {
	svc := NewJWTService("secret", 15*time.Minute, nil)
	user := domain.User{ID: "u1", Handle: "alice"}

	token, err := svc.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if token.AccessToken == "" || token.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Fatalf("unexpected token: %+v", token)
	}

	claims, err := svc.ParseAccessToken(token.AccessToken)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID != "u1" || claims.Handle != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTService_Expired(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	svc := NewJWTService("secret", time.Minute, clock)

	token, err := svc.GenerateAccessToken(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	clock.Advance(2 * time.Minute)

	if _, err := svc.ParseAccessToken(token.AccessToken); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
}

func TestJWTService_RejectsOtherSecret(t *testing.T) {
	issuer := NewJWTService("secret", time.Minute, nil)
	verifier := NewJWTService("other", time.Minute, nil)

	token, err := issuer.GenerateAccessToken(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := verifier.ParseAccessToken(token.AccessToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid, got %v", err)
	}
}

func TestJWTService_RejectsWrongType(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, nil)
	now := time.Now().UTC()
	claims := Claims{
		UserID:    "u1",
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.ParseAccessToken(signed); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid, got %v", err)
	}
}

func TestJWTService_EmptySecret(t *testing.T) {
	svc := NewJWTService("", time.Minute, nil)
	if _, err := svc.GenerateAccessToken(domain.User{ID: "u1"}); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid, got %v", err)
	}
}
