package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Bearer sends an OAuth access token. When the token is a JWT its exp claim
// is checked locally so an expired token never reaches the server; opaque
// tokens are sent unchanged.
type Bearer struct {
	Token     string
	ClockSkew time.Duration

	now func() time.Time
}

func (b *Bearer) Apply(req *http.Request) error {
	exp, err := b.ExpiresAt()
	if err != nil {
		return err
	}
	if !exp.IsZero() && b.clock().After(exp.Add(b.ClockSkew)) {
		return fmt.Errorf("%w at %s", ErrTokenExpired, exp.UTC().Format(time.RFC3339))
	}
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// ExpiresAt returns the exp claim of a JWT token, or the zero time for
// opaque tokens and JWTs without exp.
func (b *Bearer) ExpiresAt() (time.Time, error) {
	if b.Token == "" {
		return time.Time{}, ErrNoCredentials
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(b.Token, claims); err != nil {
		return time.Time{}, nil
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

func (b *Bearer) clock() time.Time {
	if b.now != nil {
		return b.now()
	}
	return time.Now()
}
