package auth

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/api/idtoken"
)

func TestGoogleVerifierExtractsIdentity(t *testing.T) {
	v := &GoogleVerifier{
		clientID: "client-1",
		validate: func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
			if audience != "client-1" {
				t.Fatalf("audience = %q, want client-1", audience)
			}
			return &idtoken.Payload{
				Subject: "google-sub-1",
				Claims: map[string]any{
					"email":   "ada@x.com",
					"name":    "Ada Lovelace",
					"picture": "https://example.com/ada.png",
				},
			}, nil
		},
	}

	identity, err := v.Verify(context.Background(), "raw-token")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if identity.Sub != "google-sub-1" || identity.Email != "ada@x.com" || identity.Name != "Ada Lovelace" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestGoogleVerifierDefaultsNameToEmail(t *testing.T) {
	v := &GoogleVerifier{
		clientID: "client-1",
		validate: func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
			return &idtoken.Payload{
				Subject: "google-sub-1",
				Claims:  map[string]any{"email": "ada@x.com"},
			}, nil
		},
	}
	identity, err := v.Verify(context.Background(), "raw-token")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if identity.Name != "ada@x.com" {
		t.Fatalf("name = %q, want email fallback", identity.Name)
	}
}

func TestGoogleVerifierRejectsInvalidToken(t *testing.T) {
	v := &GoogleVerifier{
		clientID: "client-1",
		validate: func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
			return nil, errors.New("signature mismatch")
		},
	}
	if _, err := v.Verify(context.Background(), "bad"); !errors.Is(err, ErrGoogleTokenInvalid) {
		t.Fatalf("err = %v, want ErrGoogleTokenInvalid", err)
	}
}

func TestGoogleVerifierRejectsMissingEmail(t *testing.T) {
	v := &GoogleVerifier{
		clientID: "client-1",
		validate: func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
			return &idtoken.Payload{Subject: "google-sub-1", Claims: map[string]any{}}, nil
		},
	}
	if _, err := v.Verify(context.Background(), "raw"); !errors.Is(err, ErrGoogleTokenInvalid) {
		t.Fatalf("err = %v, want ErrGoogleTokenInvalid", err)
	}
}

func TestGoogleVerifierRequiresClientID(t *testing.T) {
	v := NewGoogleVerifier("")
	if _, err := v.Verify(context.Background(), "raw"); err == nil {
		t.Fatal("expected error when client id is not configured")
	}
}
