package badge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"religious_services_backend/internal/common"
	"religious_services_backend/internal/notification"
	"religious_services_backend/internal/platform/cache"
	"religious_services_backend/internal/question"
	"religious_services_backend/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	mr        *miniredis.Miniredis
	badges    *Service
	questions *question.ServiceImplementation
}

func newFixture(t *testing.T, withRedis bool) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t, &question.Question{}, &question.Answer{}, &notification.Notification{})

	var helper *cache.Helper
	var mr *miniredis.Miniredis
	if withRedis {
		mr = miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		helper = cache.NewHelper(client)
	}

	questionRepo := question.NewGORMRepository(db)
	badges := NewService(questionRepo, notification.NewGORMRepository(db), helper, time.Minute, zap.NewNop())
	questions := question.NewService(questionRepo, nil, badges, nil, nil, "", zap.NewNop())
	return &fixture{db: db, mr: mr, badges: badges, questions: questions}
}

func TestService_UserCountsFollowLifecycle(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	owner := uuid.New()

	counts, err := f.badges.Get(ctx, owner, false)
	require.NoError(t, err)
	assert.Equal(t, UserCounts{}, counts.UserCounts)
	assert.Nil(t, counts.AdminCounts)

	q, err := f.questions.CreateQuestion(ctx, owner, question.CreateQuestionRequest{Title: "Eruv", Content: "Is there an eruv around the base?"})
	require.NoError(t, err)
	_, err = f.questions.Answer(ctx, q.ID, "Yes.", "Rabbi")
	require.NoError(t, err)

	counts, err = f.badges.Get(ctx, owner, false)
	require.NoError(t, err)
	assert.Equal(t, UserCounts{UnreadNotifications: 1, NewAnswers: 1}, counts.UserCounts, "answer invalidates the cached counts")

	require.NoError(t, f.questions.MarkAnswerViewed(ctx, q.ID, question.Viewer{UserID: owner}))
	counts, err = f.badges.Get(ctx, owner, false)
	require.NoError(t, err)
	assert.Equal(t, UserCounts{UnreadNotifications: 1, NewAnswers: 0}, counts.UserCounts)
}

func TestService_AdminCounts(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	admin := uuid.New()

	_, err := f.questions.CreateQuestion(ctx, uuid.New(), question.CreateQuestionRequest{Title: "Urgent", Content: "body", IsUrgent: true})
	require.NoError(t, err)
	seen, err := f.questions.CreateQuestion(ctx, uuid.New(), question.CreateQuestionRequest{Title: "Routine", Content: "body"})
	require.NoError(t, err)
	require.NoError(t, f.questions.MarkSeenByAdmin(ctx, seen.ID))

	counts, err := f.badges.Get(ctx, admin, true)
	require.NoError(t, err)
	require.NotNil(t, counts.AdminCounts)
	assert.Equal(t, AdminCounts{UnseenQuestions: 1, PendingQuestions: 2, UrgentPendingQuestions: 1}, *counts.AdminCounts)
}

func TestService_ServesFromCacheUntilInvalidated(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	owner := uuid.New()

	_, err := f.badges.Get(ctx, owner, false)
	require.NoError(t, err)
	assert.True(t, f.mr.Exists("badges:"+cache.UserBadgeKey(owner)))

	// A write that bypasses the services is not seen while the entry lives.
	require.NoError(t, notification.NewGORMRepository(f.db).Create(ctx, &notification.Notification{
		UserID: owner, Type: "system", Title: "t", Message: "m",
	}))
	counts, err := f.badges.Get(ctx, owner, false)
	require.NoError(t, err)
	assert.Zero(t, counts.UnreadNotifications)

	f.badges.InvalidateUser(ctx, owner)
	counts, err = f.badges.Get(ctx, owner, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.UnreadNotifications)
}

func TestService_CacheEntriesExpire(t *testing.T) {
	f := newFixture(t, true)
	owner := uuid.New()

	_, err := f.badges.Get(context.Background(), owner, true)
	require.NoError(t, err)
	require.True(t, f.mr.Exists("badges:"+cache.AdminBadgeKey))

	f.mr.FastForward(2 * time.Minute)
	assert.False(t, f.mr.Exists("badges:"+cache.UserBadgeKey(owner)))
	assert.False(t, f.mr.Exists("badges:"+cache.AdminBadgeKey))
}

func TestService_WorksWithoutRedis(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	owner := uuid.New()

	q, err := f.questions.CreateQuestion(ctx, owner, question.CreateQuestionRequest{Title: "No cache", Content: "body"})
	require.NoError(t, err)
	_, err = f.questions.Answer(ctx, q.ID, "answer", "Rabbi")
	require.NoError(t, err)

	counts, err := f.badges.Get(ctx, owner, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.NewAnswers)
	assert.Equal(t, int64(0), counts.PendingQuestions)
}

func TestService_RedisOutageFallsBackToDatabase(t *testing.T) {
	db := testutil.NewTestDB(t, &question.Question{}, &question.Answer{}, &notification.Notification{})
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	badges := NewService(question.NewGORMRepository(db), notification.NewGORMRepository(db), cache.NewHelper(client), time.Minute, zap.NewNop())

	counts, err := badges.Get(context.Background(), uuid.New(), true)

	require.NoError(t, err)
	assert.NotNil(t, counts.AdminCounts)
}

func TestHandler_GetCounts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t, true)
	user := uuid.New()
	asUser := func(role string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set(common.UserIDKey, user)
			c.Set(common.UserRoleKey, role)
			c.Next()
		}
	}

	for _, tc := range []struct {
		role      string
		wantAdmin bool
	}{
		{common.RoleUser, false},
		{common.RoleAdmin, true},
	} {
		t.Run(tc.role, func(t *testing.T) {
			router := gin.New()
			NewHandler(f.badges, zap.NewNop()).RegisterRoutes(router.Group("/api"), asUser(tc.role))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/badge-counts", nil))
			require.Equal(t, http.StatusOK, w.Code)

			var body struct {
				Data map[string]int64 `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body.Data, "unreadNotifications")
			assert.Contains(t, body.Data, "newAnswers")
			_, hasAdmin := body.Data["pendingQuestions"]
			assert.Equal(t, tc.wantAdmin, hasAdmin)
		})
	}
}
