package auth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

// GoogleIdentity is the subset of a verified Google ID token this app
// cares about.
type GoogleIdentity struct {
	Sub     string
	Email   string
	Name    string
	Picture string
}

var ErrGoogleTokenInvalid = errors.New("google token invalid")

// GoogleVerifier validates Google-issued ID tokens against the app's
// OAuth client id.
type GoogleVerifier struct {
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, validate: idtoken.Validate}
}

// Verify checks signature, audience, and expiry of the raw ID token and
// extracts the identity claims.
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (GoogleIdentity, error) {
	if v.clientID == "" {
		return GoogleIdentity{}, fmt.Errorf("google client id not configured")
	}
	payload, err := v.validate(ctx, rawToken, v.clientID)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("%w: %v", ErrGoogleTokenInvalid, err)
	}

	identity := GoogleIdentity{
		Sub:     payload.Subject,
		Email:   claimString(payload, "email"),
		Name:    claimString(payload, "name"),
		Picture: claimString(payload, "picture"),
	}
	if identity.Sub == "" || identity.Email == "" {
		return GoogleIdentity{}, ErrGoogleTokenInvalid
	}
	if identity.Name == "" {
		identity.Name = identity.Email
	}
	return identity, nil
}

func claimString(payload *idtoken.Payload, key string) string {
	value, _ := payload.Claims[key].(string)
	return value
}
