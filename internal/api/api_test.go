package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"casino-maintenance-backend/internal/auth"
	"casino-maintenance-backend/internal/logger"
	"casino-maintenance-backend/internal/metrics"
	"casino-maintenance-backend/internal/mw"
	"casino-maintenance-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testClock is a settable clock shared by the token issuer and handlers.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testServer struct {
	t       *testing.T
	router  *gin.Engine
	store   store.Store
	auth    *auth.Service
	clock   *testClock
	limiter *mw.IPRateLimiter
}

type serverOption func(*Deps)

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	clock := &testClock{t: time.Now().UTC().Truncate(time.Second)}
	s := store.NewMemoryStore()

	issuer, err := auth.NewTokenIssuer([]byte("api-test-key"), "casino-test", clock.Now)
	require.NoError(t, err)
	svc, err := auth.NewService(s, auth.NewBcryptHasher(bcrypt.MinCost), issuer, 0, clock.Now, logger.Discard())
	require.NoError(t, err)

	deps := Deps{
		Store:             s,
		Auth:              svc,
		Logger:            logger.Discard(),
		Now:               clock.Now,
		CredentialLimiter: mw.NewIPRateLimiter(rate.Inf, 1, 0),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	router, err := NewRouter(deps)
	require.NoError(t, err)

	return &testServer{t: t, router: router, store: deps.Store, auth: svc, clock: clock, limiter: deps.CredentialLimiter}
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) login(username, password string) *httptest.ResponseRecorder {
	ts.t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account through the API and returns its token.
func (ts *testServer) register(username string) string {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/users/", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "GoodPass1",
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	var body registrationResponse
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.AccessToken
}

func (ts *testServer) admin() string {
	ts.t.Helper()
	_, err := ts.auth.EnsureAdmin(context.Background(), "root", "root@example.com", "RootPass1")
	require.NoError(ts.t, err)
	rec := ts.login("root", "RootPass1")
	require.Equal(ts.t, http.StatusOK, rec.Code)
	var tok tokenResponse
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &tok))
	return tok.AccessToken
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRoot(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Welcome to Casino Database API"}`, rec.Body.String())
}

func TestResourceEndpointsRequireToken(t *testing.T) {
	ts := newTestServer(t)

	endpoints := []struct{ method, path string }{
		{http.MethodGet, "/users/me/"},
		{http.MethodGet, "/users/"},
		{http.MethodPatch, "/users/1"},
		{http.MethodGet, "/machines/"},
		{http.MethodPost, "/machines/"},
		{http.MethodGet, "/machines/M-100"},
		{http.MethodPatch, "/machines/M-100"},
		{http.MethodGet, "/machines/M-100/maintenance"},
		{http.MethodGet, "/technicians/"},
		{http.MethodPost, "/technicians/"},
		{http.MethodGet, "/technicians/1"},
		{http.MethodPatch, "/technicians/1"},
		{http.MethodGet, "/maintenance-records/"},
		{http.MethodPost, "/maintenance-records/"},
		{http.MethodGet, "/maintenance-records/1"},
		{http.MethodPatch, "/maintenance-records/1"},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			rec := ts.do(ep.method, ep.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			assert.Equal(t, "unauthenticated", decode[mw.ErrorBody](t, rec).Code)

			rec = ts.do(ep.method, ep.path, "garbage.token.value", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, auth.MsgInvalidToken, decode[mw.ErrorBody](t, rec).Detail)
		})
	}
}

func TestRegistration(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/users/", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "GoodPass1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, true, body["is_active"])
	assert.Equal(t, false, body["is_admin"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.NotEmpty(t, body["access_token"])
	assert.NotContains(t, body, "hashed_password")

	// The bundled token is immediately usable.
	me := ts.do(http.MethodGet, "/users/me/", body["access_token"].(string), nil)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "alice", decode[userResponse](t, me).Username)

	testCases := []struct {
		name    string
		payload map[string]string
		detail  string
	}{
		{"duplicate username", map[string]string{"username": "alice", "email": "other@example.com", "password": "GoodPass1"}, auth.MsgUsernameTaken},
		{"duplicate email", map[string]string{"username": "bob", "email": "alice@example.com", "password": "GoodPass1"}, auth.MsgEmailTaken},
		{"too short", map[string]string{"username": "bob", "email": "bob@example.com", "password": "short1"}, auth.MsgPasswordTooShort},
		{"no uppercase", map[string]string{"username": "bob", "email": "bob@example.com", "password": "nouppercase1"}, auth.MsgPasswordNoUpper},
		{"no lowercase", map[string]string{"username": "bob", "email": "bob@example.com", "password": "NOLOWERCASE1"}, auth.MsgPasswordNoLower},
		{"no digit", map[string]string{"username": "bob", "email": "bob@example.com", "password": "NoDigitsHere"}, auth.MsgPasswordNoDigit},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/users/", "", tc.payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.detail, decode[mw.ErrorBody](t, rec).Detail)
		})
	}

	rec = ts.do(http.MethodPost, "/users/", "", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/users/", "", map[string]string{
		"username": "bob",
		"email":    "alice@example.com",
		"password": strings.Repeat("Aa1", 27),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, auth.MsgEmailTaken, decode[mw.ErrorBody](t, rec).Detail)
}

func TestRegistrationKeepsEmailAsSubmitted(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/users/", "", map[string]string{
		"username": "Alice",
		"email":    "Alice@Example.com",
		"password": "GoodPass1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[registrationResponse](t, rec)
	assert.Equal(t, "Alice", body.Username)
	assert.Equal(t, "Alice@Example.com", body.Email)

	me := decode[userResponse](t, ts.do(http.MethodGet, "/users/me/", body.AccessToken, nil))
	assert.Equal(t, "Alice@Example.com", me.Email)

	// Uniqueness ignores case.
	dup := ts.do(http.MethodPost, "/users/", "", map[string]string{
		"username": "other",
		"email":    "alice@example.COM",
		"password": "GoodPass1",
	})
	assert.Equal(t, http.StatusBadRequest, dup.Code)
	assert.Equal(t, auth.MsgEmailTaken, decode[mw.ErrorBody](t, dup).Detail)
}

func TestPatchBlankSerialDoesNotConflict(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register("alice")

	for _, n := range []string{"M-1", "M-2"} {
		rec := ts.do(http.MethodPost, "/machines/", token, map[string]any{"machine_number": n, "vendor": "IGT", "serial_number": ""})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Nil(t, decode[machineResponse](t, rec).SerialNumber)
	}

	for _, n := range []string{"M-1", "M-2"} {
		rec := ts.do(http.MethodPatch, "/machines/"+n, token, `{"serial_number":""}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Nil(t, decode[machineResponse](t, rec).SerialNumber)
	}
}

func TestPatchLengthLimits(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register("alice")

	rec := ts.do(http.MethodPost, "/technicians/", token, map[string]any{"employee_id": "E-1", "name": "Dana"})
	require.Equal(t, http.StatusCreated, rec.Code)
	tech := decode[technicianResponse](t, rec)

	long := ts.do(http.MethodPatch, "/technicians/"+itoa(tech.ID), token, `{"name":"`+strings.Repeat("n", 129)+`"}`)
	assert.Equal(t, http.StatusBadRequest, long.Code)
	assert.Equal(t, "validation_failed", decode[mw.ErrorBody](t, long).Code)

	unchanged := decode[technicianResponse](t, ts.do(http.MethodGet, "/technicians/"+itoa(tech.ID), token, nil))
	assert.Equal(t, "Dana", unchanged.Name)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.register("alice")

	rec := ts.login("alice", "GoodPass1")
	require.Equal(t, http.StatusOK, rec.Code)
	tok := decode[tokenResponse](t, rec)
	assert.Equal(t, "bearer", tok.TokenType)
	assert.Equal(t, int64(30*60), tok.ExpiresIn)

	me := ts.do(http.MethodGet, "/users/me/", tok.AccessToken, nil)
	assert.Equal(t, http.StatusOK, me.Code)

	wrong := ts.login("alice", "WrongPass1")
	unknown := ts.login("mallory", "GoodPass1")
	for _, rec := range []*httptest.ResponseRecorder{wrong, unknown} {
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		assert.Equal(t, auth.MsgBadCredentials, decode[mw.ErrorBody](t, rec).Detail)
	}
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())

	missing := ts.login("", "")
	assert.Equal(t, http.StatusBadRequest, missing.Code)
}

func TestTokenExpiry(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register("alice")

	ts.clock.Advance(29 * time.Minute)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/users/me/", token, nil).Code)

	ts.clock.Advance(2 * time.Minute)
	rec := ts.do(http.MethodGet, "/users/me/", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestMachineLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register("alice")
	created := ts.clock.Now()

	rec := ts.do(http.MethodPost, "/machines/", token, map[string]any{
		"machine_number": "M-100",
		"serial_number":  "SN-100",
		"vendor":         "IGT",
		"location":       "Pit 4",
		"machine_type":   "slot",
		"notes":          "bill validator jammed",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	m := decode[machineResponse](t, rec)
	assert.NotZero(t, m.ID)
	assert.Equal(t, "down", string(m.Status))
	assert.True(t, m.DateDown.Equal(created))
	assert.False(t, m.IsOutOfService)

	dup := ts.do(http.MethodPost, "/machines/", token, map[string]any{"machine_number": "M-100", "vendor": "Konami"})
	assert.Equal(t, http.StatusBadRequest, dup.Code)
	assert.Equal(t, "conflict", decode[mw.ErrorBody](t, dup).Code)

	got := ts.do(http.MethodGet, "/machines/M-100", token, nil)
	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, m, decode[machineResponse](t, got))

	missing := ts.do(http.MethodGet, "/machines/M-999", token, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, "Machine not found", decode[mw.ErrorBody](t, missing).Detail)

	ts.clock.Advance(10 * time.Minute)
	patched := ts.do(http.MethodPatch, "/machines/M-100", token, `{"status":"fixed"}`)
	require.Equal(t, http.StatusOK, patched.Code, patched.Body.String())
	after := decode[machineResponse](t, patched)

	expected := m
	expected.Status = "fixed"
	expected.UpdatedAt = created.Add(10 * time.Minute)
	assert.Equal(t, expected, after)

	// Explicit null clears optional fields.
	cleared := ts.do(http.MethodPatch, "/machines/M-100", token, `{"notes":null}`)
	require.Equal(t, http.StatusOK, cleared.Code)
	assert.Nil(t, decode[machineResponse](t, cleared).Notes)
	assert.Equal(t, "IGT", decode[machineResponse](t, cleared).Vendor)

	for name, body := range map[string]string{
		"null vendor":    `{"vendor":null}`,
		"unknown field":  `{"colour":"red"}`,
		"bad status":     `{"status":"broken"}`,
		"wrong type":     `{"is_out_of_service":"yes"}`,
		"empty body":     ``,
		"malformed json": `{"status":`,
		"long vendor":    `{"vendor":"` + strings.Repeat("v", 200) + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := ts.do(http.MethodPatch, "/machines/M-100", token, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "validation_failed", decode[mw.ErrorBody](t, rec).Code)
		})
	}

	notFound := ts.do(http.MethodPatch, "/machines/M-999", token, `{"status":"fixed"}`)
	assert.Equal(t, http.StatusNotFound, notFound.Code)
}

func TestCreateMachineValidation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register("alice")

	for name, body := range map[string]any{
		"missing number":     map[string]any{"vendor": "IGT"},
		"missing vendor":     map[string]any{"machine_number": "M-1"},
		"bad status":         map[string]any{"machine_number": "M-1", "vendor": "IGT", "status": "exploded"},
		"unknown technician": map[string]any{"machine_number": "M-1", "vendor": "IGT", "technician_id": 77},
		"wrong type":         `{"machine_number": 5, "vendor": "IGT"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/machines/", token, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestListPagination(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register("alice")

	for _, n := range []string{"M-1", "M-2", "M-3"} {
		rec := ts.do(http.MethodPost, "/machines/", token, map[string]any{"machine_number": n, "vendor": "IGT"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	all := decode[[]machineResponse](t, ts.do(http.MethodGet, "/machines/", token, nil))
	require.Len(t, all, 3)
	assert.Equal(t, "M-1", all[0].MachineNumber)

	page := decode[[]machineResponse](t, ts.do(http.MethodGet, "/machines/?skip=1&limit=1", token, nil))
	require.Len(t, page, 1)
	assert.Equal(t, "M-2", page[0].MachineNumber)

	empty := ts.do(http.MethodGet, "/machines/?skip=10", token, nil)
	require.Equal(t, http.StatusOK, empty.Code)
	assert.JSONEq(t, `[]`, empty.Body.String())

	for _, q := range []string{"skip=-1", "limit=abc", "limit=1001", "limit=0", "skip=1.5"} {
		rec := ts.do(http.MethodGet, "/machines/?"+q, token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestTechnicianAndMaintenanceFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register("alice")

	rec := ts.do(http.MethodPost, "/technicians/", token, map[string]any{"employee_id": "E-1", "name": "Dana", "contact_number": "555-0100"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tech := decode[technicianResponse](t, rec)

	dup := ts.do(http.MethodPost, "/technicians/", token, map[string]any{"employee_id": "E-1", "name": "Other"})
	assert.Equal(t, http.StatusBadRequest, dup.Code)

	rec = ts.do(http.MethodPost, "/machines/", token, map[string]any{"machine_number": "M-7", "vendor": "Aristocrat", "technician_id": tech.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	machine := decode[machineResponse](t, rec)
	require.NotNil(t, machine.TechnicianID)
	assert.Equal(t, tech.ID, *machine.TechnicianID)

	orphan := ts.do(http.MethodPost, "/maintenance-records/", token, map[string]any{"machine_id": 999, "technician_id": tech.ID, "issue_description": "x"})
	assert.Equal(t, http.StatusBadRequest, orphan.Code)

	reported := ts.clock.Now()
	rec = ts.do(http.MethodPost, "/maintenance-records/", token, map[string]any{
		"machine_id":        machine.ID,
		"technician_id":     tech.ID,
		"issue_description": "reel motor stalls",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	record := decode[maintenanceResponse](t, rec)
	assert.False(t, record.IsResolved)
	assert.Nil(t, record.ResolvedTime)
	assert.True(t, record.ReportedTime.Equal(reported))

	ts.clock.Advance(20 * time.Minute)
	resolvedAt := ts.clock.Now()
	rec = ts.do(http.MethodPatch, "/maintenance-records/"+itoa(record.ID), token, `{"is_resolved":true,"repair_description":"replaced motor"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resolved := decode[maintenanceResponse](t, rec)
	assert.True(t, resolved.IsResolved)
	require.NotNil(t, resolved.ResolvedTime)
	assert.True(t, resolved.ResolvedTime.Equal(resolvedAt))
	assert.Equal(t, "reel motor stalls", resolved.IssueDescription)

	// resolved_time is derived, never client-set.
	rec = ts.do(http.MethodPatch, "/maintenance-records/"+itoa(record.ID), token, `{"resolved_time":"2020-01-01T00:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPatch, "/maintenance-records/"+itoa(record.ID), token, `{"is_resolved":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	reopened := decode[maintenanceResponse](t, rec)
	assert.False(t, reopened.IsResolved)
	assert.Nil(t, reopened.ResolvedTime)

	history := ts.do(http.MethodGet, "/machines/M-7/maintenance", token, nil)
	require.Equal(t, http.StatusOK, history.Code)
	assert.Len(t, decode[[]maintenanceResponse](t, history), 1)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/machines/M-8/maintenance", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/maintenance-records/999", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/maintenance-records/abc", token, nil).Code)

	renamed := ts.do(http.MethodPatch, "/technicians/"+itoa(tech.ID), token, `{"contact_number":null}`)
	require.Equal(t, http.StatusOK, renamed.Code)
	assert.Nil(t, decode[technicianResponse](t, renamed).ContactNumber)
	assert.Equal(t, "Dana", decode[technicianResponse](t, renamed).Name)

	techs := decode[[]technicianResponse](t, ts.do(http.MethodGet, "/technicians/", token, nil))
	assert.Len(t, techs, 1)
	one := ts.do(http.MethodGet, "/technicians/"+itoa(tech.ID), token, nil)
	assert.Equal(t, http.StatusOK, one.Code)
	records := decode[[]maintenanceResponse](t, ts.do(http.MethodGet, "/maintenance-records/", token, nil))
	assert.Len(t, records, 1)
}

func TestAdminUserManagement(t *testing.T) {
	ts := newTestServer(t)
	aliceToken := ts.register("alice")
	rootToken := ts.admin()

	forbidden := ts.do(http.MethodGet, "/users/", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, forbidden.Code)
	assert.Equal(t, auth.MsgNotEnoughPrivilege, decode[mw.ErrorBody](t, forbidden).Detail)
	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodPatch, "/users/1", aliceToken, `{"is_admin":true}`).Code)

	users := decode[[]userResponse](t, ts.do(http.MethodGet, "/users/", rootToken, nil))
	require.Len(t, users, 2)
	alice := users[0]
	assert.Equal(t, "alice", alice.Username)

	self := ts.do(http.MethodPatch, "/users/"+itoa(users[1].ID), rootToken, `{"is_admin":false}`)
	assert.Equal(t, http.StatusBadRequest, self.Code)

	rec := ts.do(http.MethodPatch, "/users/"+itoa(alice.ID), rootToken, `{"is_active":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decode[userResponse](t, rec).IsActive)

	inactive := ts.do(http.MethodGet, "/machines/", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, inactive.Code)
	assert.Equal(t, auth.MsgInactiveUser, decode[mw.ErrorBody](t, inactive).Detail)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPatch, "/users/999", rootToken, `{"is_active":true}`).Code)
}

func TestCredentialRateLimit(t *testing.T) {
	ts := newTestServer(t, func(d *Deps) {
		d.CredentialLimiter = mw.NewIPRateLimiter(rate.Every(time.Hour), 2, 0)
	})

	assert.Equal(t, http.StatusUnauthorized, ts.login("nobody", "x").Code)
	assert.Equal(t, http.StatusUnauthorized, ts.login("nobody", "x").Code)

	limited := ts.login("nobody", "x")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "too_many_requests", decode[mw.ErrorBody](t, limited).Code)
}

type unreachableStore struct {
	store.Store
}

func (unreachableStore) Ping(context.Context) error {
	return errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","database":"connected"}`, rec.Body.String())

	down := newTestServer(t, func(d *Deps) {
		d.Store = unreachableStore{Store: d.Store}
	})
	rec = down.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Contains(t, body["database"], "connection refused")
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	ts := newTestServer(t, func(d *Deps) {
		d.Metrics = collector
		d.Gatherer = reg
	})

	ts.do(http.MethodGet, "/machines/", "", nil)
	ts.login("nobody", "x")

	rec := ts.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `casino_http_requests_total{method="GET",route="/machines/",status="401"} 1`)
	assert.Contains(t, body, `casino_auth_failures_total{reason="missing_token"} 1`)
	assert.Contains(t, body, `casino_auth_failures_total{reason="bad_credentials"} 1`)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
