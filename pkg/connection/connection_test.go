package connection

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Goden-Gun/adt-lib/pkg/abapgit"
	"github.com/Goden-Gun/adt-lib/pkg/adt"
	"github.com/Goden-Gun/adt-lib/pkg/auth"
	"github.com/Goden-Gun/adt-lib/pkg/config"
	"github.com/Goden-Gun/adt-lib/pkg/session"
)

const notFoundBody = adt.ExceptionXMLFragment +
	`<namespace id="com.sap.adt"/>` +
	`<type id="ExceptionResourceNotFound"/>` +
	`<message lang="EN">Object ZCL_MISSING does not exist</message>` +
	`</exc:exception>`

// fakeSAP is a minimal ADT endpoint issuing CSRF tokens.
type fakeSAP struct {
	mu        sync.Mutex
	token     string
	fetches   int
	requests  []*http.Request
	bodies    []string
	handler   http.HandlerFunc
	rejectOne atomic.Bool
}

func (f *fakeSAP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.bodies = append(f.bodies, string(body))
	if r.URL.Path == BasePath+"/"+DiscoveryPath && r.Header.Get(csrfHeader) == csrfFetch {
		f.fetches++
		f.token = "token-" + strconv.Itoa(f.fetches)
		token := f.token
		f.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "SAP_SESSIONID_DEV_100", Value: token})
		w.Header().Set(csrfHeader, token)
		w.Header().Set("Content-Type", "application/atomsvc+xml")
		_, _ = io.WriteString(w, "<app:service/>")
		return
	}
	token := f.token
	f.mu.Unlock()

	if r.Header.Get(csrfHeader) != token || f.rejectOne.CompareAndSwap(true, false) {
		w.Header().Set(csrfHeader, csrfRequired)
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "CSRF token validation failed")
		return
	}
	f.handler(w, r)
}

func (f *fakeSAP) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeSAP) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeSAP) last() (*http.Request, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1], f.bodies[len(f.bodies)-1]
}

type recordingObserver struct {
	mu    sync.Mutex
	infos []RequestInfo
}

func (o *recordingObserver) ObserveRequest(_ context.Context, info RequestInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.infos = append(o.infos, info)
}

func newTestConnection(t *testing.T, fake *fakeSAP, opts ...Option) *Connection {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	c, err := New(config.ADTConfig{
		Host:     u.Hostname(),
		Port:     port,
		Client:   "100",
		Language: "EN",
		User:     "DEVELOPER",
		Password: "pw",
	}, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresHost(t *testing.T) {
	_, err := New(config.ADTConfig{})
	assert.ErrorIs(t, err, ErrNoHost)
}

func TestURL(t *testing.T) {
	c, err := New(config.ADTConfig{Host: "sap.example.com", Client: "100", SSL: true})
	require.NoError(t, err)
	assert.Equal(t,
		"https://sap.example.com:443/sap/bc/adt/oo/classes/zcl_a?sap-client=100&sap-language=EN&version=active",
		c.URL("/oo/classes/zcl_a", url.Values{"version": {"active"}}))
}

func TestExecute_Success(t *testing.T) {
	fake := &fakeSAP{handler: func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "CLASS zcl_a DEFINITION.")
	}}
	obs := &recordingObserver{}
	c := newTestConnection(t, fake, WithObserver(obs))

	resp, err := c.Execute(context.Background(), Request{Path: "oo/classes/zcl_a/source/main", Accept: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CLASS zcl_a DEFINITION.", string(resp.Body))

	req, _ := fake.last()
	assert.Equal(t, "100", req.URL.Query().Get("sap-client"))
	assert.Equal(t, "EN", req.URL.Query().Get("sap-language"))
	assert.Equal(t, "token-1", req.Header.Get(csrfHeader))
	assert.NotEmpty(t, req.Header.Get("sap-adt-request-id"))
	user, _, ok := req.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "DEVELOPER", user)
	ck, err := req.Cookie("SAP_SESSIONID_DEV_100")
	require.NoError(t, err)
	assert.Equal(t, "token-1", ck.Value)

	// The token is cached: a second call does not fetch again.
	_, err = c.Execute(context.Background(), Request{Path: "oo/classes/zcl_a/source/main"})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.fetchCount())

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.Len(t, obs.infos, 3)
	assert.Equal(t, DiscoveryPath, obs.infos[0].Path)
	assert.Equal(t, http.StatusOK, obs.infos[1].StatusCode)
}

func TestExecute_ClassifiedError(t *testing.T) {
	fake := &fakeSAP{handler: func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, notFoundBody)
	}}
	obs := &recordingObserver{}
	c := newTestConnection(t, fake, WithObserver(obs))

	_, err := c.Execute(context.Background(), Request{Path: "oo/classes/zcl_missing"})
	require.Error(t, err)

	var nf *adt.ResourceNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ExceptionResourceNotFound: Object ZCL_MISSING does not exist", err.Error())
	assert.True(t, adt.IsKind(obs.infos[len(obs.infos)-1].Err, adt.KindResourceNotFound))
}

func TestExecute_MalformedAndPlainErrors(t *testing.T) {
	var body atomic.Value
	fake := &fakeSAP{handler: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, body.Load().(string))
	}}
	c := newTestConnection(t, fake)

	body.Store(strings.Replace(notFoundBody, `<type id="ExceptionResourceNotFound"/>`, "", 1))
	_, err := c.Execute(context.Background(), Request{Path: "x"})
	assert.ErrorIs(t, err, adt.ErrMalformedErrorDocument)

	body.Store("Internal Server Error")
	_, err = c.Execute(context.Background(), Request{Path: "x"})
	var he *adt.HTTPRequestError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusInternalServerError, he.StatusCode)
	assert.Equal(t, "500\nInternal Server Error", he.Error())
}

func TestExecute_CSRFRetry(t *testing.T) {
	fake := &fakeSAP{handler: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}}
	c := newTestConnection(t, fake)

	_, err := c.Execute(context.Background(), Request{Method: http.MethodPost, Path: "x", Body: []byte("payload")})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.fetchCount())

	fake.rejectOne.Store(true)
	resp, err := c.Execute(context.Background(), Request{Method: http.MethodPost, Path: "x", Body: []byte("payload")})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 2, fake.fetchCount())

	req, body := fake.last()
	assert.Equal(t, "token-2", req.Header.Get(csrfHeader))
	assert.Equal(t, "payload", body)
}

func TestExecute_SharedSessionStore(t *testing.T) {
	fake := &fakeSAP{handler: func(w http.ResponseWriter, r *http.Request) {}}
	store := session.NewMemoryStore()
	a := newTestConnection(t, fake, WithSessionStore(store, time.Minute))

	_, err := a.Execute(context.Background(), Request{Path: "x"})
	require.NoError(t, err)

	st, err := store.Load(context.Background(), a.sessionKey)
	require.NoError(t, err)
	assert.Equal(t, "token-1", st.CSRFToken)
	require.Len(t, st.Cookies, 1)
}

func TestExecute_UnexpectedContentType(t *testing.T) {
	fake := &fakeSAP{handler: func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html>logon</html>")
	}}
	c := newTestConnection(t, fake)

	_, err := c.Execute(context.Background(), Request{Path: "x", Accept: "application/vnd.sap.adt.oo.classes.v4+xml, application/xml"})
	var uc *adt.UnexpectedResponseContentError
	require.ErrorAs(t, err, &uc)
	assert.Equal(t, "text/html", uc.Received)
	assert.Equal(t, "Unexpected Content-Type: text/html with: <html>logon</html>", err.Error())
}

func TestExecute_AuthFailureIsNotSent(t *testing.T) {
	fake := &fakeSAP{handler: func(w http.ResponseWriter, r *http.Request) {}}
	c := newTestConnection(t, fake, WithAuthenticator(failingAuth{}))

	_, err := c.Execute(context.Background(), Request{Path: "x"})
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
	assert.Zero(t, fake.requestCount())
}

type failingAuth struct{}

func (failingAuth) Apply(*http.Request) error { return auth.ErrTokenExpired }

type object struct {
	_    struct{} `abap:"VSEOCLASS"`
	Name string   `abap:"CLSNAME"`
	Desc string   `abap:"DESCRIPT"`
}

func TestPostDocument(t *testing.T) {
	fake := &fakeSAP{handler: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}}
	c := newTestConnection(t, fake)

	resp, err := c.PostDocument(context.Background(), "abapgit/objects", "application/xml", "LCL_OBJECT_CLAS",
		func(w *abapgit.Writer) error {
			return w.AddStruct(object{Name: "ZCL_A", Desc: "A & B"})
		})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, body := fake.last()
	assert.Equal(t, "application/xml", req.Header.Get("Content-Type"))
	doc, err := abapgit.Decode(strings.NewReader(body), abapgit.MustSchema("VSEOCLASS",
		abapgit.Field{Name: "CLSNAME"}, abapgit.Field{Name: "DESCRIPT"}))
	require.NoError(t, err)
	assert.Equal(t, "LCL_OBJECT_CLAS", doc.Serializer)
	require.Len(t, doc.Records, 1)
	v, _ := doc.Records[0].Get("DESCRIPT")
	assert.Equal(t, "A & B", v)
}

func TestPostDocument_WriterError(t *testing.T) {
	fake := &fakeSAP{handler: func(w http.ResponseWriter, r *http.Request) {}}
	c := newTestConnection(t, fake)

	boom := errors.New("record source failed")
	_, err := c.PostDocument(context.Background(), "abapgit/objects", "application/xml", "LCL_X",
		func(w *abapgit.Writer) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestAcceptable(t *testing.T) {
	assert.True(t, acceptable("application/xml", "application/xml; charset=utf-8"))
	assert.True(t, acceptable("text/*", "text/plain"))
	assert.True(t, acceptable("*/*", "image/png"))
	assert.False(t, acceptable("application/xml", "text/html"))
	assert.False(t, acceptable("application/xml", ""))
}

func TestMergeCookies(t *testing.T) {
	merged := mergeCookies(
		[]*http.Cookie{{Name: "a", Value: "1"}, {Name: "b", Value: "1"}},
		[]*http.Cookie{{Name: "b", Value: "2"}, {Name: "c", Value: "2"}},
	)
	require.Len(t, merged, 3)
	assert.Equal(t, "2", merged[1].Value)
	assert.Equal(t, "c", merged[2].Name)
}
