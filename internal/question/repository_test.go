package question

import (
	"context"
	"errors"
	"testing"
	"time"

	"religious_services_backend/internal/common"
	"religious_services_backend/internal/notification"
	"religious_services_backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	return testutil.NewTestDB(t, &Question{}, &Answer{}, &notification.Notification{})
}

func seedQuestion(t *testing.T, db *gorm.DB, mutate func(q *Question)) *Question {
	t.Helper()
	q := &Question{
		UserID:  uuid.New(),
		Title:   "Carrying a weapon on Shabbat",
		Content: "May I carry my service weapon on Shabbat while on duty?",
		Status:  StatusPending,
	}
	if mutate != nil {
		mutate(q)
	}
	require.NoError(t, db.Create(q).Error)
	return q
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestRepository_ListPublic_OnlyVisiblePublicAnswered(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMRepository(db)
	ctx := context.Background()

	var publicID uuid.UUID
	for _, visible := range []bool{true, false} {
		for _, private := range []bool{true, false} {
			for _, status := range []Status{StatusPending, StatusAnswered, StatusClosed} {
				q := seedQuestion(t, db, func(q *Question) {
					q.IsVisible = visible
					q.IsPrivate = private
					q.Status = status
				})
				if visible && !private && status == StatusAnswered {
					publicID = q.ID
				}
			}
		}
	}

	questions, pagination, err := repo.ListPublic(ctx, PublicListQuery{})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, publicID, questions[0].ID)
	assert.Equal(t, int64(1), pagination.TotalItems)
	for _, q := range questions {
		assert.True(t, q.IsPublic())
	}
}

func TestRepository_ListPublic_CategoryAndSearch(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMRepository(db)
	ctx := context.Background()
	public := func(title, category string) func(q *Question) {
		return func(q *Question) {
			q.Title, q.Category = title, category
			q.IsVisible, q.Status = true, StatusAnswered
		}
	}
	seedQuestion(t, db, public("Kashrut of field rations", "kashrut"))
	seedQuestion(t, db, public("Night shift and Shema", "prayer"))
	seedQuestion(t, db, public("Shift swap on Yom Tov", "shabbat"))

	byCategory, _, err := repo.ListPublic(ctx, PublicListQuery{Category: "prayer"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Night shift and Shema", byCategory[0].Title)

	bySearch, _, err := repo.ListPublic(ctx, PublicListQuery{Search: "SHIFT"})
	require.NoError(t, err)
	assert.Len(t, bySearch, 2)
}

func TestRepository_CreateAnswer_WritesAllThreeRows(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMRepository(db)
	ctx := context.Background()
	q := seedQuestion(t, db, nil)

	res, err := repo.CreateAnswer(ctx, q.ID, "Yes, it is permitted.", "Rabbi Levi", answeredNotificationText)
	require.NoError(t, err)

	assert.Equal(t, StatusAnswered, res.Question.Status)
	assert.Equal(t, q.UserID, res.Notification.UserID)
	assert.Equal(t, notification.QuestionAnswered, res.Notification.Type)
	require.NotNil(t, res.Notification.RelatedID)
	assert.Equal(t, q.ID, *res.Notification.RelatedID)
	assert.Contains(t, res.Notification.Message, q.Title)

	stored, err := repo.FindByID(ctx, q.ID, true)
	require.NoError(t, err)
	assert.Equal(t, StatusAnswered, stored.Status)
	assert.True(t, stored.HasNewAnswer)
	assert.NotNil(t, stored.AnsweredAt)
	assert.False(t, stored.IsApproved, "answering does not approve")
	assert.False(t, stored.IsVisible, "answering does not publish")
	require.Len(t, stored.Answers, 1)
	assert.Equal(t, "Rabbi Levi", stored.Answers[0].AnsweredBy)
}

func TestRepository_CreateAnswer_IsAtomic(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMRepository(db)
	ctx := context.Background()
	q := seedQuestion(t, db, nil)

	boom := errors.New("notification insert failed")
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_notifications", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "notifications" {
			_ = tx.AddError(boom)
		}
	}))

	_, err := repo.CreateAnswer(ctx, q.ID, "Will be rolled back", "Rabbi Levi", answeredNotificationText)
	require.ErrorIs(t, err, boom)

	assert.Zero(t, countRows(t, db, &Answer{}), "answer insert must be rolled back")
	assert.Zero(t, countRows(t, db, &notification.Notification{}))

	stored, err := repo.FindByID(ctx, q.ID, false)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.False(t, stored.HasNewAnswer)
	assert.Nil(t, stored.AnsweredAt)
}

func TestRepository_CreateAnswer_MissingQuestion(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMRepository(db)

	_, err := repo.CreateAnswer(context.Background(), uuid.New(), "text", "Rabbi", answeredNotificationText)

	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Zero(t, countRows(t, db, &Answer{}))
	assert.Zero(t, countRows(t, db, &notification.Notification{}))
}

func TestRepository_UpdateFields_PartialAndNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMRepository(db)
	ctx := context.Background()
	q := seedQuestion(t, db, func(q *Question) { q.Category = "kashrut"; q.IsUrgent = true })
	before := q.UpdatedAt

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, repo.UpdateFields(ctx, q.ID, map[string]interface{}{"title": "Edited title"}))

	stored, err := repo.FindByID(ctx, q.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Edited title", stored.Title)
	assert.Equal(t, "kashrut", stored.Category, "absent fields are untouched")
	assert.True(t, stored.IsUrgent)
	assert.True(t, stored.UpdatedAt.After(before))

	err = repo.UpdateFields(ctx, uuid.New(), map[string]interface{}{"title": "x"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRepository_Delete_RemovesAnswersKeepsNotifications(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMRepository(db)
	ctx := context.Background()
	q := seedQuestion(t, db, nil)
	_, err := repo.CreateAnswer(ctx, q.ID, "answer", "Rabbi", answeredNotificationText)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, q.ID))

	_, err = repo.FindByID(ctx, q.ID, false)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Zero(t, countRows(t, db, &Answer{}))

	var n notification.Notification
	require.NoError(t, db.First(&n).Error)
	require.NotNil(t, n.RelatedID)
	assert.Equal(t, q.ID, *n.RelatedID)

	assert.ErrorIs(t, repo.Delete(ctx, q.ID), common.ErrNotFound)
}

func TestRepository_Counts(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	seedQuestion(t, db, func(q *Question) { q.UserID = owner; q.IsUrgent = true })
	seedQuestion(t, db, func(q *Question) { q.UserID = owner; q.Status = StatusAnswered; q.HasNewAnswer = true; q.IsSeenByAdmin = true })
	seedQuestion(t, db, func(q *Question) { q.IsSeenByAdmin = true })

	newAnswers, err := repo.CountNewAnswers(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), newAnswers)

	counts, err := repo.CountAdminQueues(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Unseen)
	assert.Equal(t, int64(2), counts.Pending)
	assert.Equal(t, int64(1), counts.UrgentPending)
}

func TestRepository_SetFlag_RejectsOtherColumns(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMRepository(db)
	q := seedQuestion(t, db, nil)

	assert.Error(t, repo.SetFlag(context.Background(), q.ID, "is_visible", true))
}
