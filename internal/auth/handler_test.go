package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/southern-apparels/sa-erp/internal/access"
	"github.com/southern-apparels/sa-erp/internal/auth"
	"github.com/southern-apparels/sa-erp/internal/backend"
	_ "github.com/southern-apparels/sa-erp/testing"
)

type stubBackend struct {
	token    string
	loginErr error
	user     access.User
	meCalls  int
	logouts  []string
	reset    [2]string
}

func (s *stubBackend) Login(ctx context.Context, username, password string) (backend.TokenResponse, error) {
	if s.loginErr != nil {
		return backend.TokenResponse{}, s.loginErr
	}
	return backend.TokenResponse{AccessToken: s.token, TokenType: "bearer"}, nil
}

func (s *stubBackend) Logout(ctx context.Context, token string) error {
	s.logouts = append(s.logouts, token)
	return nil
}

func (s *stubBackend) Me(ctx context.Context, token string, dest any) error {
	s.meCalls++
	if token != s.token {
		return &backend.APIError{Status: http.StatusUnauthorized, Detail: "Could not validate credentials"}
	}
	*(dest.(*access.User)) = s.user
	return nil
}

func (s *stubBackend) Register(ctx context.Context, req backend.RegisterRequest) (json.RawMessage, error) {
	return json.RawMessage(`{"id":9,"username":"` + req.Username + `"}`), nil
}

func (s *stubBackend) ForgotPassword(ctx context.Context, email string) (json.RawMessage, error) {
	return json.RawMessage(`{"message":"sent"}`), nil
}

func (s *stubBackend) ResetPassword(ctx context.Context, resetToken, newPassword string) (json.RawMessage, error) {
	s.reset = [2]string{resetToken, newPassword}
	return json.RawMessage(`{"message":"ok"}`), nil
}

func newAuthRouter(t *testing.T, b *stubBackend) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := auth.NewService(b, auth.NewRedisStore(client, time.Hour))
	r := chi.NewRouter()
	auth.NewHandler(nil, svc, auth.CookieOptions{TTL: 7 * 24 * time.Hour}).MountRoutes(r)
	return r, mr
}

func post(h http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func findCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}

func TestLoginSetsCookieAndCachesProfile(t *testing.T) {
	b := &stubBackend{token: "tok-1", user: access.User{ID: 1, Username: "alice", DepartmentAccess: []string{"orders"}}}
	h, mr := newAuthRouter(t, b)

	rr := post(h, "/login", `{"username":"alice","password":"secret"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body struct {
		User     access.User `json:"user"`
		Redirect string      `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "/dashboard/erp", body.Redirect)
	assert.Equal(t, "alice", body.User.Username)

	cookie := findCookie(rr)
	require.NotNil(t, cookie)
	assert.Equal(t, "tok-1", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 7*24*3600, cookie.MaxAge)

	assert.True(t, mr.Exists(auth.SessionKey("tok-1")))
	assert.False(t, mr.Exists("session:tok-1"))

	// The cached profile answers /me without another backend call.
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	h.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, 1, b.meCalls)
}

func TestLoginValidation(t *testing.T) {
	h, _ := newAuthRouter(t, &stubBackend{})
	rr := post(h, "/login", `{"username":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"password":"required"`)

	rr = post(h, "/login", ``)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginBackendErrorKeepsStatus(t *testing.T) {
	h, _ := newAuthRouter(t, &stubBackend{loginErr: &backend.APIError{Status: http.StatusUnauthorized, Detail: "Incorrect username or password"}})
	rr := post(h, "/login", `{"username":"alice","password":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"detail":"Incorrect username or password"}`, rr.Body.String())

	h, _ = newAuthRouter(t, &stubBackend{loginErr: &backend.APIError{Status: http.StatusForbidden, Detail: "API Error: 403"}})
	rr = post(h, "/login", `{"username":"alice","password":"bad"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"detail":"Login failed"}`, rr.Body.String())
}

func TestLogoutClearsSession(t *testing.T) {
	b := &stubBackend{token: "tok-2", user: access.User{Username: "bob"}}
	h, mr := newAuthRouter(t, b)
	login := post(h, "/login", `{"username":"bob","password":"pw"}`)
	require.Equal(t, http.StatusOK, login.Code)

	rr := post(h, "/logout", ``, findCookie(login))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"redirect":"/dashboard/login"}`, rr.Body.String())
	cookie := findCookie(rr)
	require.NotNil(t, cookie)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.False(t, mr.Exists(auth.SessionKey("tok-2")))
	assert.Equal(t, []string{"tok-2"}, b.logouts)
}

func TestMeWithoutToken(t *testing.T) {
	h, _ := newAuthRouter(t, &stubBackend{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRegisterAndResetAreForwarded(t *testing.T) {
	b := &stubBackend{}
	h, _ := newAuthRouter(t, b)

	rr := post(h, "/register", `{"username":"carol","email":"carol@example.com","password":"pw","full_name":"Carol"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":9,"username":"carol"}`, rr.Body.String())

	rr = post(h, "/register", `{"username":"carol","email":"nope","password":"pw","full_name":"Carol"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = post(h, "/reset-password", `{"token":"r1","new_password":"longenough"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, [2]string{"r1", "longenough"}, b.reset)

	rr = post(h, "/forgot-password", `{"email":"carol@example.com"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLoadUserMiddleware(t *testing.T) {
	b := &stubBackend{token: "tok-3", user: access.User{Username: "dave"}}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	svc := auth.NewService(b, auth.NewRedisStore(client, time.Hour))

	var seen *access.User
	var token string
	h := svc.LoadUser(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = access.UserFromContext(r.Context())
		token = auth.TokenFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard/api/nav", nil)
	req.Header.Set("Authorization", "Bearer tok-3")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)
	assert.Equal(t, "dave", seen.Username)
	assert.Equal(t, "tok-3", token)

	seen = nil
	req = httptest.NewRequest(http.MethodGet, "/dashboard/api/nav", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "stale"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Nil(t, seen)
	assert.Equal(t, "stale", token)
}
