package auth

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
)

const googleIssuer = "https://accounts.google.com"

// GoogleProfile is the verified identity behind a Google ID token.
type GoogleProfile struct {
	Email string
	Name  string
}

// GoogleVerifier validates Google-issued ID tokens against the
// configured OAuth client ID.
type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, err
	}
	return &GoogleVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (GoogleProfile, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return GoogleProfile{}, err
	}
	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return GoogleProfile{}, err
	}
	return GoogleProfile{Email: claims.Email, Name: claims.Name}, nil
}
