package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"religious_services_backend/internal/common"
	"religious_services_backend/internal/config"
	"religious_services_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// stubTokens accepts "good-<uuid>" tokens, always claiming the user role.
type stubTokens struct{ shared.TokenService }

func (stubTokens) ValidateToken(token string) (*shared.Claims, error) {
	if len(token) < 5 || token[:5] != "good-" {
		return nil, errors.New("bad signature")
	}
	id, err := uuid.Parse(token[5:])
	if err != nil {
		return nil, err
	}
	claims := &shared.Claims{UserID: id, Role: common.RoleUser, TokenType: shared.AccessToken}
	claims.ID = "jti-" + id.String()
	return claims, nil
}

type stubBlocklist map[string]bool

func (b stubBlocklist) AddToBlocklist(_ context.Context, jti string, _ time.Time) error {
	b[jti] = true
	return nil
}

func (b stubBlocklist) IsBlocklisted(_ context.Context, jti string) (bool, error) {
	return b[jti], nil
}

type stubUsers map[uuid.UUID]*shared.User

func (s stubUsers) GetUserByID(_ context.Context, id uuid.UUID) (*shared.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

type authFixture struct {
	router    *gin.Engine
	users     stubUsers
	blocklist stubBlocklist
}

func newAuthFixture() *authFixture {
	gin.SetMode(gin.TestMode)
	f := &authFixture{users: stubUsers{}, blocklist: stubBlocklist{}}
	auth := AuthMiddleware(stubTokens{}, f.blocklist, f.users, zap.NewNop())
	optional := OptionalAuthMiddleware(stubTokens{}, f.blocklist, f.users, zap.NewNop())

	f.router = gin.New()
	f.router.GET("/me", auth, func(c *gin.Context) {
		c.String(http.StatusOK, common.GetUserRoleFromContext(c))
	})
	f.router.GET("/admin", auth, AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	f.router.GET("/public", optional, func(c *gin.Context) {
		c.String(http.StatusOK, common.GetUserIDFromContext(c).String())
	})
	return f
}

func (f *authFixture) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(common.AuthorizationHeader, "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_RoleComesFromStorage(t *testing.T) {
	f := newAuthFixture()
	id := uuid.New()
	f.users[id] = &shared.User{ID: id, Email: "rav@example.com", Role: common.RoleAdmin}

	w := f.get("/me", "good-"+id.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, common.RoleAdmin, w.Body.String(), "token claims user, stored role wins")
	assert.Equal(t, http.StatusNoContent, f.get("/admin", "good-"+id.String()).Code)

	f.users[id].Role = common.RoleUser
	assert.Equal(t, http.StatusForbidden, f.get("/admin", "good-"+id.String()).Code)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	f := newAuthFixture()
	id := uuid.New()
	f.users[id] = &shared.User{ID: id, Role: common.RoleUser}

	assert.Equal(t, http.StatusUnauthorized, f.get("/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.get("/me", "forged").Code)
	assert.Equal(t, http.StatusUnauthorized, f.get("/me", "good-"+uuid.NewString()).Code, "unknown user")

	f.blocklist["jti-"+id.String()] = true
	assert.Equal(t, http.StatusUnauthorized, f.get("/me", "good-"+id.String()).Code, "revoked token")
}

func TestOptionalAuthMiddleware(t *testing.T) {
	f := newAuthFixture()
	id := uuid.New()
	f.users[id] = &shared.User{ID: id, Role: common.RoleUser}

	w := f.get("/public", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uuid.Nil.String(), w.Body.String())

	w = f.get("/public", "good-"+id.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, f.get("/public", "forged").Code)
}

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(ErrorHandler(zap.NewNop()))
	router.GET("/conflict", func(c *gin.Context) { _ = c.Error(common.ErrConflict) })
	router.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("disk on fire")) })

	send := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	w := send(http.MethodGet, "/conflict")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"CONFLICT"`)

	w = send(http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")

	w = send(http.MethodGet, "/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")

	assert.Equal(t, http.StatusMethodNotAllowed, send(http.MethodPost, "/conflict").Code)
}

func TestZapLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	router := gin.New()
	router.Use(ZapLogger(zap.New(core), &config.Config{GinMode: gin.ReleaseMode}))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	req := httptest.NewRequest(http.MethodGet, "/ok?x=1", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bad", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "x=1", entries[0].ContextMap()["query"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}
