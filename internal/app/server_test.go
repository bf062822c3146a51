package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"religious_services_backend/internal/auth"
	"religious_services_backend/internal/badge"
	"religious_services_backend/internal/config"
	"religious_services_backend/internal/content"
	"religious_services_backend/internal/filestorage"
	"religious_services_backend/internal/notification"
	"religious_services_backend/internal/platform/cache"
	"religious_services_backend/internal/platform/events"
	"religious_services_backend/internal/question"
	"religious_services_backend/internal/shared"
	"religious_services_backend/internal/synagogue"
	"religious_services_backend/internal/testutil"
	"religious_services_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const adminPassword = "admin-password-1"

// ServerSuite drives the assembled router end to end over SQLite.
type ServerSuite struct {
	suite.Suite
	router *gin.Engine
	users  *user.ServiceImplementation
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	t := s.T()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	cfg := &config.Config{
		GinMode:                     gin.TestMode,
		JWTSecretKey:                "test-secret",
		JWTIssuer:                   "test",
		JWTAccessTokenExpiryMinutes: time.Hour,
		JWTRefreshTokenExpiryDays:   24 * time.Hour,
		UploadsPath:                 t.TempDir(),
		UploadsURLPrefix:            "/uploads",
		QuestionAnsweredTopic:       "question.answered",
	}

	db := testutil.NewTestDB(t)
	require.NoError(t, Migrate(db, logger))

	jwtService := auth.NewJWTService(cfg, logger)
	blocklist := auth.NewInMemoryBlocklistService(auth.DefaultBlocklistConfig())
	s.users = user.NewService(user.NewGORMRepository(db), jwtService, logger)

	questionRepo := question.NewGORMRepository(db)
	notificationRepo := notification.NewGORMRepository(db)
	badges := badge.NewService(questionRepo, notificationRepo, cache.NewHelper(nil), time.Second, logger)
	bus := events.NewInProcessBus(logger)
	t.Cleanup(bus.Close)
	questions := question.NewService(questionRepo, s.users, badges, question.NewESIndexer(nil, "questions", logger), bus, cfg.QuestionAnsweredTopic, logger)

	storage, err := filestorage.NewFileStorageService(cfg, logger)
	require.NoError(t, err)

	handlers := Handlers{
		Auth:         auth.NewHandler(s.users, jwtService, blocklist, logger),
		User:         user.NewHandler(s.users, logger),
		Question:     question.NewHandler(questions, logger),
		Notification: notification.NewHandler(notification.NewService(notificationRepo, badges, logger), logger),
		Badge:        badge.NewHandler(badges, logger),
		Synagogue:    synagogue.NewHandler(synagogue.NewService(synagogue.NewGORMRepository(db), logger), logger),
		Content:      content.NewHandler(content.NewService(content.NewGORMRepository(db), storage, logger), logger),
	}
	s.router = NewServer(cfg, logger, handlers, jwtService, blocklist, s.users, storage, nil, nil, nil).Router()
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (s *ServerSuite) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (s *ServerSuite) login(email, password string) string {
	w, env := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Token shared.TokenResponse `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	return data.Token.AccessToken
}

func (s *ServerSuite) register(email string) string {
	w, env := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":      email,
		"password":   "officer-password",
		"first_name": "Dana",
		"last_name":  "Levi",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		Token shared.TokenResponse `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	return data.Token.AccessToken
}

func (s *ServerSuite) TestHealth() {
	w, _ := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/api/does-not-exist", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ServerSuite) TestQuestionLifecycleAcrossModules() {
	_, _, err := s.users.EnsureAdmin(context.Background(), shared.CreateUserRequest{
		Email: "rabbi@example.com", Password: adminPassword, FirstName: "Chief", LastName: "Rabbi",
	})
	s.Require().NoError(err)
	adminToken := s.login("rabbi@example.com", adminPassword)
	officerToken := s.register("officer@example.com")

	w, env := s.do(http.MethodPost, "/api/questions", officerToken, map[string]interface{}{
		"title": "Shabbat patrol", "content": "May I drive on Shabbat during a patrol?", "category": "shabbat",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created question.QuestionResponse
	s.Require().NoError(json.Unmarshal(env.Data, &created))
	s.Equal(question.StatusPending, created.Status)

	w, _ = s.do(http.MethodPost, "/api/admin/answers", officerToken, map[string]interface{}{"questionId": created.ID, "content": "no"})
	s.Equal(http.StatusForbidden, w.Code, "officers are not admins")
	w, _ = s.do(http.MethodGet, "/api/badge-counts", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/api/admin/answers", adminToken, map[string]interface{}{
		"questionId": created.ID, "content": "Yes, pikuach nefesh overrides Shabbat.",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w, env = s.do(http.MethodGet, "/api/badge-counts", officerToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var counts map[string]int64
	s.Require().NoError(json.Unmarshal(env.Data, &counts))
	s.Equal(int64(1), counts["newAnswers"])
	s.Equal(int64(1), counts["unreadNotifications"])
	_, hasAdmin := counts["pendingQuestions"]
	s.False(hasAdmin)

	var list []question.QuestionResponse
	_, env = s.do(http.MethodGet, "/api/questions", "", nil)
	s.Require().NoError(json.Unmarshal(env.Data, &list))
	s.Empty(list, "answered but not yet visible")

	w, _ = s.do(http.MethodPost, "/api/questions/"+created.ID.String()+"/set-visible", adminToken, map[string]bool{"isVisible": true})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	_, env = s.do(http.MethodGet, "/api/questions", "", nil)
	s.Require().NoError(json.Unmarshal(env.Data, &list))
	s.Require().Len(list, 1)
	s.Equal(created.ID, list[0].ID)

	w, _ = s.do(http.MethodPost, "/api/questions/"+created.ID.String()+"/mark-answer-viewed", officerToken, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	_, env = s.do(http.MethodGet, "/api/badge-counts", officerToken, nil)
	s.Require().NoError(json.Unmarshal(env.Data, &counts))
	s.Equal(int64(0), counts["newAnswers"])
}

func (s *ServerSuite) TestAdminRoleIsReadFromDatabase() {
	token := s.register("promoted@example.com")
	w, _ := s.do(http.MethodGet, "/api/admin/questions", token, nil)
	s.Equal(http.StatusForbidden, w.Code)

	_, _, err := s.users.EnsureAdmin(context.Background(), shared.CreateUserRequest{Email: "promoted@example.com"})
	s.Require().NoError(err)

	w, _ = s.do(http.MethodGet, "/api/admin/questions", token, nil)
	s.Equal(http.StatusOK, w.Code, "the same token gains access once the stored role changes")
}

func (s *ServerSuite) TestLogoutRevokesAccessToken() {
	token := s.register("leaving@example.com")
	w, _ := s.do(http.MethodGet, "/api/auth/me", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, "/api/auth/logout", token, map[string]string{})
	s.Require().Less(w.Code, 300, w.Body.String())

	w, _ = s.do(http.MethodGet, "/api/auth/me", token, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}
