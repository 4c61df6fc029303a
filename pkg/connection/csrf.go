package connection

import (
	"context"
	"errors"
	"net/http"

	"github.com/Goden-Gun/adt-lib/pkg/session"
)

// ErrNoCSRFToken is returned when the discovery response carries no token.
var ErrNoCSRFToken = errors.New("connection: server returned no CSRF token")

func (c *Connection) csrfState(ctx context.Context) (*session.State, error) {
	st, err := c.sessions.Load(ctx, c.sessionKey)
	switch {
	case err == nil && st.CSRFToken != "":
		return st, nil
	case err != nil && !errors.Is(err, session.ErrNotFound):
		c.log.WithError(err).Warn("session store unavailable, fetching a new csrf token")
	}
	return c.fetchCSRF(ctx)
}

func (c *Connection) fetchCSRF(ctx context.Context) (*session.State, error) {
	req := Request{
		Method: http.MethodGet,
		Path:   DiscoveryPath,
		Header: http.Header{http.CanonicalHeaderKey(csrfHeader): []string{csrfFetch}},
		Accept: "application/atomsvc+xml",
	}
	resp, _, err := c.roundTrip(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	token := resp.Header.Get(csrfHeader)
	if token == "" || token == csrfRequired {
		return nil, ErrNoCSRFToken
	}

	st := &session.State{CSRFToken: token, Cookies: resp.Cookies()}
	if err := c.sessions.Save(ctx, c.sessionKey, *st, c.sessionTTL); err != nil {
		c.log.WithError(err).Warn("failed to cache csrf token")
	}
	return st, nil
}

// remember merges cookies set by resp into the cached session.
func (c *Connection) remember(ctx context.Context, st *session.State, resp *http.Response) {
	set := resp.Cookies()
	if st == nil || len(set) == 0 {
		return
	}
	merged := *st
	merged.Cookies = mergeCookies(st.Cookies, set)
	if err := c.sessions.Save(ctx, c.sessionKey, merged, c.sessionTTL); err != nil {
		c.log.WithError(err).Warn("failed to update session cookies")
	}
}

func mergeCookies(have, set []*http.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(have)+len(set))
	seen := make(map[string]int, len(have))
	for _, ck := range have {
		seen[ck.Name] = len(out)
		out = append(out, ck)
	}
	for _, ck := range set {
		if i, ok := seen[ck.Name]; ok {
			out[i] = ck
			continue
		}
		seen[ck.Name] = len(out)
		out = append(out, ck)
	}
	return out
}
