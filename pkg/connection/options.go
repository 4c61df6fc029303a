package connection

import (
	"net/http"
	"time"

	"github.com/Goden-Gun/adt-lib/pkg/auth"
	log "github.com/Goden-Gun/adt-lib/pkg/logger"
	"github.com/Goden-Gun/adt-lib/pkg/session"
)

// Option customizes a Connection.
type Option func(*Connection)

// WithHTTPClient replaces the client built from the configuration.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Connection) {
		if client != nil {
			c.http = client
		}
	}
}

// WithAuthenticator overrides the credentials derived from the configuration.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(c *Connection) {
		if a != nil {
			c.auth = a
		}
	}
}

// WithSessionStore shares CSRF token and cookies through store.
func WithSessionStore(store session.Store, ttl time.Duration) Option {
	return func(c *Connection) {
		if store != nil {
			c.sessions = store
			c.sessionTTL = ttl
		}
	}
}

// WithObserver adds a hook called after every round trip.
func WithObserver(o Observer) Option {
	return func(c *Connection) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithLogger sets the base entry for debug logs.
func WithLogger(e *log.Entry) Option {
	return func(c *Connection) {
		if e != nil {
			c.log = e
		}
	}
}
