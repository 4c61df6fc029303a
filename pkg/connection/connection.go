// Package connection executes ADT requests against an SAP system and turns
// error responses into classified adt errors.
package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/Goden-Gun/adt-lib/pkg/adt"
	"github.com/Goden-Gun/adt-lib/pkg/auth"
	"github.com/Goden-Gun/adt-lib/pkg/config"
	log "github.com/Goden-Gun/adt-lib/pkg/logger"
	"github.com/Goden-Gun/adt-lib/pkg/session"
	"github.com/Goden-Gun/adt-lib/pkg/tracing"
)

const (
	// BasePath is the ICF node serving ADT resources.
	BasePath = "/sap/bc/adt"
	// DiscoveryPath is fetched to obtain a CSRF token.
	DiscoveryPath = "discovery"

	csrfHeader   = "x-csrf-token"
	csrfFetch    = "Fetch"
	csrfRequired = "Required"
)

// ErrNoHost is returned by New for a configuration without host.
var ErrNoHost = errors.New("connection: host is required")

// Request is one ADT call. Path is relative to BasePath.
type Request struct {
	Method      string
	Path        string
	Params      url.Values
	Header      http.Header
	Accept      string
	ContentType string
	Body        []byte

	// stream, when set, produces a fresh body for every attempt.
	stream func() io.Reader
}

// Response is a successful ADT response with its body read.
type Response struct {
	StatusCode  int
	Header      http.Header
	ContentType string
	Body        []byte
}

// Connection talks to one SAP system as one user. It is safe for
// concurrent use; session state lives in the session store.
type Connection struct {
	baseURL  *url.URL
	client   string
	language string

	http       *http.Client
	auth       auth.Authenticator
	sessions   session.Store
	sessionKey string
	sessionTTL time.Duration
	observers  []Observer
	log        *log.Entry
}

// New builds a Connection from cfg.
func New(cfg config.ADTConfig, opts ...Option) (*Connection, error) {
	cfg.ApplyDefaults()
	if cfg.Host == "" {
		return nil, ErrNoHost
	}

	scheme := "http"
	if cfg.SSL {
		scheme = "https"
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.SSL && !cfg.Verify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // verify: false is an explicit opt-out
	}

	authenticator, err := auth.FromConfig(cfg)
	if errors.Is(err, auth.ErrNoCredentials) {
		authenticator = auth.None{}
	} else if err != nil {
		return nil, err
	}

	c := &Connection{
		baseURL:    &url.URL{Scheme: scheme, Host: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Path: BasePath},
		client:     cfg.Client,
		language:   cfg.Language,
		http:       &http.Client{Transport: transport, Timeout: cfg.Timeout.Duration()},
		auth:       authenticator,
		sessions:   session.NewMemoryStore(),
		sessionKey: strings.ToLower(fmt.Sprintf("%s:%d/%s/%s", cfg.Host, cfg.Port, cfg.Client, cfg.User)),
		log:        log.WithField("component", "adt-connection"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL returns the absolute URL of an ADT path including the client and
// language parameters.
func (c *Connection) URL(path string, params url.Values) string {
	u := *c.baseURL
	u.Path = BasePath + "/" + strings.TrimPrefix(path, "/")
	q := url.Values{}
	for k, vs := range params {
		q[k] = append([]string(nil), vs...)
	}
	if c.client != "" {
		q.Set("sap-client", c.client)
	}
	if c.language != "" {
		q.Set("sap-language", c.language)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Execute sends req and returns the response of a successful exchange.
//
// Error responses carrying an ADT exception document are returned as the
// classified adt error, an undecodable envelope as
// *adt.MalformedErrorDocumentError and anything else as
// *adt.HTTPRequestError. A response whose media type differs from
// req.Accept yields *adt.UnexpectedResponseContentError.
func (c *Connection) Execute(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	state, err := c.csrfState(ctx)
	if err != nil {
		return nil, err
	}

	resp, body, err := c.roundTrip(ctx, req, state)
	if resp != nil && isCSRFRejection(resp) {
		c.log.Debug("csrf token rejected, fetching a new one")
		if err := c.sessions.Invalidate(ctx, c.sessionKey); err != nil {
			return nil, err
		}
		if state, err = c.fetchCSRF(ctx); err != nil {
			return nil, err
		}
		resp, body, err = c.roundTrip(ctx, req, state)
	}
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.responseError(req, resp, body)
	}

	out := &Response{
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
	if req.Accept != "" && !acceptable(req.Accept, out.ContentType) {
		return nil, &adt.UnexpectedResponseContentError{
			Expected: req.Accept,
			Received: out.ContentType,
			Content:  string(body),
		}
	}
	c.remember(ctx, state, resp)
	return out, nil
}

func (c *Connection) roundTrip(ctx context.Context, req Request, state *session.State) (*http.Response, []byte, error) {
	requestID := uuid.NewString()
	ctx, span := tracing.StartRequest(ctx, req.Method, req.Path, requestID)
	defer span.End()

	var body io.Reader
	switch {
	case req.stream != nil:
		body = req.stream()
	case req.Body != nil:
		body = bytes.NewReader(req.Body)
	}

	target := c.URL(req.Path, req.Params)
	hreq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		closeBody(body)
		return nil, nil, err
	}
	for k, vs := range req.Header {
		hreq.Header[k] = append([]string(nil), vs...)
	}
	if req.Accept != "" {
		hreq.Header.Set("Accept", req.Accept)
	}
	if req.ContentType != "" {
		hreq.Header.Set("Content-Type", req.ContentType)
	}
	hreq.Header.Set(tracing.RequestIDHeader, requestID)
	if state != nil {
		if state.CSRFToken != "" && hreq.Header.Get(csrfHeader) == "" {
			hreq.Header.Set(csrfHeader, state.CSRFToken)
		}
		for _, ck := range state.Cookies {
			hreq.AddCookie(ck)
		}
	}
	tracing.InjectHeaders(ctx, hreq.Header)

	entry := log.WithRequest(log.EntryWithTrace(c.log, ctx), req.Method, req.Path, requestID)
	info := RequestInfo{Method: req.Method, Path: req.Path, RequestID: requestID}
	start := time.Now()
	defer func() {
		info.Duration = time.Since(start)
		if info.Err != nil {
			span.RecordError(info.Err)
			span.SetStatus(codes.Error, info.Err.Error())
		}
		for _, o := range c.observers {
			o.ObserveRequest(ctx, info)
		}
	}()

	if err := c.auth.Apply(hreq); err != nil {
		closeBody(body)
		info.Err = err
		return nil, nil, err
	}

	entry.Debug("adt request")
	resp, err := c.http.Do(hreq)
	if err != nil {
		info.Err = err
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	info.StatusCode = resp.StatusCode
	if err != nil {
		info.Err = err
		return nil, nil, err
	}
	entry = entry.WithField("status", resp.StatusCode)
	if resp.StatusCode >= http.StatusBadRequest && !isCSRFRejection(resp) {
		info.Err = c.responseError(req, resp, data)
		log.WithServerError(entry, info.Err).Debug("adt request failed")
		return resp, data, info.Err
	}
	entry.Debug("adt response")
	return resp, data, nil
}

func (c *Connection) responseError(req Request, resp *http.Response, body []byte) error {
	se, err := adt.ClassifyBytes(body)
	if err != nil {
		return err
	}
	if se != nil {
		return se
	}
	return &adt.HTTPRequestError{
		Method:     req.Method,
		URL:        c.URL(req.Path, req.Params),
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}

// closeBody releases a streamed body that never reached the transport.
func closeBody(body io.Reader) {
	if rc, ok := body.(io.Closer); ok {
		_ = rc.Close()
	}
}

func isCSRFRejection(resp *http.Response) bool {
	return resp.StatusCode == http.StatusForbidden && strings.EqualFold(resp.Header.Get(csrfHeader), csrfRequired)
}

// acceptable reports whether contentType matches one of the media ranges in
// accept. Parameters such as charset are ignored.
func acceptable(accept, contentType string) bool {
	got, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(accept, ",") {
		want, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch {
		case want == "*/*", want == got:
			return true
		case strings.HasSuffix(want, "/*") && strings.HasPrefix(got, strings.TrimSuffix(want, "*")):
			return true
		}
	}
	return false
}
