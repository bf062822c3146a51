package notification

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"religious_services_backend/internal/common"
	"religious_services_backend/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockBadgeInvalidator struct {
	mock.Mock
}

func (m *MockBadgeInvalidator) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	m.Called(ctx, userID)
}

// brokenRepository fails every call, standing in for a lost database.
type brokenRepository struct{ Repository }

var errDatabaseDown = errors.New("database down")

func (brokenRepository) ListForUser(context.Context, uuid.UUID, ListQuery) ([]Notification, *common.Pagination, error) {
	return nil, nil, errDatabaseDown
}

func (brokenRepository) MarkRead(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, errDatabaseDown
}

func (brokenRepository) MarkAllRead(context.Context, uuid.UUID) (int64, error) {
	return 0, errDatabaseDown
}

func (brokenRepository) CountUnread(context.Context, uuid.UUID) (int64, error) {
	return 0, errDatabaseDown
}

func newServiceFixture(t *testing.T) (Service, Repository, *MockBadgeInvalidator) {
	t.Helper()
	repo := NewGORMRepository(testutil.NewTestDB(t, &Notification{}))
	badges := new(MockBadgeInvalidator)
	return NewService(repo, badges, zap.NewNop()), repo, badges
}

func TestService_MarkReadInvalidatesOnlyOnChange(t *testing.T) {
	svc, repo, badges := newServiceFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	n := seed(t, repo, userID, "answered", false, time.Now())

	badges.On("InvalidateUser", ctx, userID).Return().Once()
	require.NoError(t, svc.MarkRead(ctx, n.ID, userID))
	require.NoError(t, svc.MarkRead(ctx, n.ID, userID))
	badges.AssertExpectations(t)

	err := svc.MarkRead(ctx, uuid.New(), userID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestService_MarkAllRead(t *testing.T) {
	svc, repo, badges := newServiceFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	seed(t, repo, userID, "a", false, time.Now())
	seed(t, repo, userID, "b", false, time.Now())

	badges.On("InvalidateUser", ctx, userID).Return().Once()
	count, err := svc.MarkAllRead(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = svc.MarkAllRead(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)
	badges.AssertExpectations(t)

	unread, err := svc.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestService_PurgeRead(t *testing.T) {
	svc, repo, _ := newServiceFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	seed(t, repo, userID, "old", true, time.Now().Add(-40*24*time.Hour))
	seed(t, repo, userID, "recent", true, time.Now().Add(-10*24*time.Hour))

	deleted, err := svc.PurgeRead(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestService_StorageErrorsBecomeInternal(t *testing.T) {
	badges := new(MockBadgeInvalidator)
	svc := NewService(brokenRepository{}, badges, zap.NewNop())
	ctx := context.Background()
	userID := uuid.New()

	_, _, err := svc.List(ctx, userID, ListQuery{})
	assert.ErrorIs(t, err, common.ErrInternalServer)
	assert.ErrorIs(t, svc.MarkRead(ctx, uuid.New(), userID), common.ErrInternalServer)
	_, err = svc.MarkAllRead(ctx, userID)
	assert.ErrorIs(t, err, common.ErrInternalServer)
	_, err = svc.UnreadCount(ctx, userID)
	assert.ErrorIs(t, err, common.ErrInternalServer)
	badges.AssertNotCalled(t, "InvalidateUser", mock.Anything, mock.Anything)
}

func TestHandler_Routes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, repo, badges := newServiceFixture(t)
	badges.On("InvalidateUser", mock.Anything, mock.Anything).Return().Maybe()
	userID := uuid.New()
	n := seed(t, repo, userID, "answered", false, time.Now())

	router := gin.New()
	auth := func(c *gin.Context) {
		c.Set(common.UserIDKey, userID)
		c.Next()
	}
	NewHandler(svc, zap.NewNop()).RegisterRoutes(router.Group("/api"), auth)

	send := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	w := send(http.MethodGet, "/api/notifications?unread=true")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), n.ID.String())

	assert.Equal(t, http.StatusBadRequest, send(http.MethodPost, "/api/notifications/not-a-uuid/mark-read").Code)
	assert.Equal(t, http.StatusNotFound, send(http.MethodPost, "/api/notifications/"+uuid.NewString()+"/mark-read").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/api/notifications/"+n.ID.String()+"/mark-read").Code)

	w = send(http.MethodGet, "/api/notifications/unread-count")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unreadCount":0`)

	w = send(http.MethodPost, "/api/notifications/mark-all-read")
	assert.Equal(t, http.StatusOK, w.Code)
}
