package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dsbaciga/captains-log/internal/middleware"
	"github.com/dsbaciga/captains-log/internal/models"
	"github.com/dsbaciga/captains-log/internal/repo"
	"github.com/dsbaciga/captains-log/internal/service"
	"github.com/dsbaciga/captains-log/internal/tokens"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Companion{}))

	codec := tokens.NewCodec(
		tokens.Config{Secret: []byte("test-access-secret"), Lifetime: 15 * time.Minute},
		tokens.Config{Secret: []byte("test-refresh-secret"), Lifetime: 7 * 24 * time.Hour},
	)

	svc := &service.AuthService{
		Repo:  &repo.GormRepo{DB: db},
		Codec: codec,
	}

	e := echo.New()
	Register(e, &Deps{
		AuthHandler: &AuthHTTP{
			Svc:        svc,
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Auth: middleware.NewRequireAuth(codec),
	})
	return e
}

func doJSON(e *echo.Echo, method, path string, body any, mod func(*http.Request)) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if mod != nil {
		mod(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func registerAlice(t *testing.T, e *echo.Echo) *httptest.ResponseRecorder {
	t.Helper()

	rec := doJSON(e, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "Passw0rd",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return rec
}

func TestRegisterHandler_Success(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	rec := registerAlice(t, e)

	var res struct {
		User         map[string]any `json:"user"`
		AccessToken  string         `json:"accessToken"`
		RefreshToken string         `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "alice", res.User["username"])
	assert.NotContains(t, res.User, "passwordHash")
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)

	cookies := rec.Result().Cookies()
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
		assert.True(t, c.HttpOnly)
	}
	assert.ElementsMatch(t, []string{"accessToken", "refreshToken"}, names)
}

func TestRegisterHandler_Validation(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "missing username", body: map[string]string{"email": "a@x.com", "password": "Passw0rd"}},
		{name: "short username", body: map[string]string{"username": "al", "email": "a@x.com", "password": "Passw0rd"}},
		{name: "username with spaces", body: map[string]string{"username": "a lice", "email": "a@x.com", "password": "Passw0rd"}},
		{name: "missing email", body: map[string]string{"username": "alice", "password": "Passw0rd"}},
		{name: "bad email", body: map[string]string{"username": "alice", "email": "not-an-email", "password": "Passw0rd"}},
		{name: "short password", body: map[string]string{"username": "alice", "email": "a@x.com", "password": "Pw1"}},
		{name: "digitless password", body: map[string]string{"username": "alice", "email": "a@x.com", "password": "Password"}},
		{name: "letterless password", body: map[string]string{"username": "alice", "email": "a@x.com", "password": "12345678"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/api/auth/register", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRegisterHandler_Conflict(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	registerAlice(t, e)

	rec := doJSON(e, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "bob",
		"email":    "alice@example.com",
		"password": "Passw0rd",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginHandler(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	registerAlice(t, e)

	rec := doJSON(e, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "Passw0rd",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	badPassword := doJSON(e, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "WrongPw1",
	}, nil)
	unknownEmail := doJSON(e, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "Passw0rd",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, badPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, badPassword.Body.String(), unknownEmail.Body.String())
}

func TestRefreshHandler(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	rec := registerAlice(t, e)

	var registered struct {
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))

	refreshed := doJSON(e, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refreshToken": registered.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusOK, refreshed.Code)

	var res struct {
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(refreshed.Body.Bytes(), &res))
	assert.NotEqual(t, registered.RefreshToken, res.RefreshToken)

	invalid := doJSON(e, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refreshToken": "not-a-valid-jwt",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, invalid.Code)
}

func TestMeHandler(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	rec := registerAlice(t, e)

	var registered struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))

	me := doJSON(e, http.MethodGet, "/api/auth/me", nil, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+registered.AccessToken)
	})
	require.Equal(t, http.StatusOK, me.Code)

	var user map[string]any
	require.NoError(t, json.Unmarshal(me.Body.Bytes(), &user))
	assert.Equal(t, "alice", user["username"])
	assert.Contains(t, user, "createdAt")
	assert.NotContains(t, user, "passwordHash")

	unauthorized := doJSON(e, http.MethodGet, "/api/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, unauthorized.Code)
}

func TestLogoutHandler_ClearsCookies(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	rec := registerAlice(t, e)

	var registered struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))

	out := doJSON(e, http.MethodPost, "/api/auth/logout", nil, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+registered.AccessToken)
	})
	require.Equal(t, http.StatusOK, out.Code)

	for _, c := range out.Result().Cookies() {
		assert.Empty(t, c.Value)
		assert.Equal(t, -1, c.MaxAge)
	}
}
