package identity

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestIssueVerify(t *testing.T) {
	v, err := NewVerifier("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	who := domain.Identity{UserID: uuid.New(), FullName: "Ada Lovelace"}
	tok, err := v.Issue(who, 0)
	if err != nil {
		t.Fatal(err)
	}
	got, err := v.Verify(tok)
	if err != nil || got != who {
		t.Fatalf("got %+v, %v", got, err)
	}
}

func TestVerifyRejects(t *testing.T) {
	v, _ := NewVerifier("s3cret")
	other, _ := NewVerifier("other")
	who := domain.Identity{UserID: uuid.New(), FullName: "Ada"}
	tok, _ := v.Issue(who, 0)
	foreign, _ := other.Issue(who, 0)
	header, _, _ := strings.Cut(tok, ".")

	// same signature, claims of somebody else
	impostor, _ := v.Issue(domain.Identity{UserID: uuid.New(), FullName: "Mallory"}, 0)
	parts := strings.Split(tok, ".")
	swapped := parts[0] + "." + strings.Split(impostor, ".")[1] + "." + parts[2]

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: who.UserID.String()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	for name, bad := range map[string]string{
		"empty":           "",
		"header only":     header,
		"wrong secret":    foreign,
		"tampered header": "x" + tok,
		"swapped claims":  swapped,
		"alg none":        unsigned,
		"garbage":         "a.b",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := v.Verify(bad); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("got %v", err)
			}
		})
	}
}

func TestVerifyExpiry(t *testing.T) {
	v, _ := NewVerifier("s3cret")
	now := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return now }
	tok, _ := v.Issue(domain.Identity{UserID: uuid.New(), FullName: "Ada"}, time.Hour)

	now = now.Add(59 * time.Minute)
	if _, err := v.Verify(tok); err != nil {
		t.Fatalf("still valid: %v", err)
	}
	now = now.Add(time.Minute)
	if _, err := v.Verify(tok); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("got %v", err)
	}
}

func TestEmptySecret(t *testing.T) {
	if _, err := NewVerifier(""); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("got %v", err)
	}
}
