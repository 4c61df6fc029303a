// Package auth applies ADT credentials to outgoing requests.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/Goden-Gun/adt-lib/pkg/config"
)

var (
	// ErrNoCredentials is returned by FromConfig when neither a token nor a
	// user is configured.
	ErrNoCredentials = errors.New("auth: no credentials configured")
	// ErrTokenExpired is returned by Bearer.Apply for a JWT past its exp claim.
	ErrTokenExpired = errors.New("auth: bearer token expired")
)

// Authenticator decorates an outgoing request with credentials.
type Authenticator interface {
	Apply(req *http.Request) error
}

// Basic is HTTP basic authentication with an SAP user.
type Basic struct {
	User     string
	Password string
}

func (b Basic) Apply(req *http.Request) error {
	req.SetBasicAuth(b.User, b.Password)
	return nil
}

// None sends requests without credentials, for systems behind SSO proxies.
type None struct{}

func (None) Apply(*http.Request) error { return nil }

// FromConfig picks Bearer when a token is configured and Basic otherwise.
func FromConfig(cfg config.ADTConfig) (Authenticator, error) {
	switch {
	case cfg.Token != "":
		return &Bearer{Token: cfg.Token, ClockSkew: 30 * time.Second}, nil
	case cfg.User != "":
		return Basic{User: cfg.User, Password: cfg.Password}, nil
	default:
		return nil, ErrNoCredentials
	}
}
