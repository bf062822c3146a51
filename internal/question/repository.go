package question

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"religious_services_backend/internal/common"
	"religious_services_backend/internal/notification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnswerResult is everything written by one CreateAnswer transaction.
type AnswerResult struct {
	Answer       *Answer
	Question     *Question
	Notification *notification.Notification
}

// Repository defines the data access for questions and answers.
type Repository interface {
	Create(ctx context.Context, q *Question) error
	FindByID(ctx context.Context, id uuid.UUID, withAnswers bool) (*Question, error)
	ListPublic(ctx context.Context, query PublicListQuery) ([]Question, *common.Pagination, error)
	FindPublicByIDs(ctx context.Context, ids []uuid.UUID) ([]Question, error)
	ListAdmin(ctx context.Context, query AdminListQuery) ([]Question, *common.Pagination, error)
	ListByOwner(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]Question, *common.Pagination, error)
	FindAllForExport(ctx context.Context) ([]Question, error)
	FindAllForSync(ctx context.Context, offset, limit int) ([]Question, error)

	CreateAnswer(ctx context.Context, questionID uuid.UUID, content, answeredBy string, notify NotificationText) (*AnswerResult, error)
	UpdateAnswer(ctx context.Context, answerID uuid.UUID, content string) (*Answer, error)
	Approve(ctx context.Context, id uuid.UUID, approvedBy string, at time.Time) error
	UpdateFields(ctx context.Context, id uuid.UUID, cols map[string]interface{}) error
	SetFlag(ctx context.Context, id uuid.UUID, column string, value bool) error
	Delete(ctx context.Context, id uuid.UUID) error

	CountNewAnswers(ctx context.Context, userID uuid.UUID) (int64, error)
	CountAdminQueues(ctx context.Context) (*AdminCounts, error)
}

// NotificationText builds the notification title and message for an answered question.
type NotificationText func(q *Question) (title, message string)

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM question repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.ErrNotFound.WithDetails(what + " not found.")
	}
	return err
}

func (r *gormRepository) Create(ctx context.Context, q *Question) error {
	if err := r.db.WithContext(ctx).Create(q).Error; err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

func preloadAnswers(db *gorm.DB) *gorm.DB {
	return db.Order("answers.created_at ASC")
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID, withAnswers bool) (*Question, error) {
	var q Question
	db := r.db.WithContext(ctx)
	if withAnswers {
		db = db.Preload("Answers", preloadAnswers)
	}
	if err := db.First(&q, "questions.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(err, "Question")
		}
		return nil, fmt.Errorf("find question %s: %w", id, err)
	}
	return &q, nil
}

func applySearch(db *gorm.DB, term string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" {
		return db
	}
	like := "%" + strings.ToLower(term) + "%"
	return db.Where("LOWER(questions.title) LIKE ? OR LOWER(questions.content) LIKE ?", like, like)
}

func paginate(db *gorm.DB, pq common.PaginationQuery, order string, dest *[]Question) (*common.Pagination, error) {
	var total int64
	if err := db.Session(&gorm.Session{}).Model(&Question{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	err := db.Preload("Answers", preloadAnswers).
		Order(order).
		Limit(pq.Limit()).
		Offset(pq.Offset()).
		Find(dest).Error
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return common.NewPagination(total, pq.Page, pq.Limit()), nil
}

// ListPublic returns the public feed. The visibility predicate is always applied.
func (r *gormRepository) ListPublic(ctx context.Context, query PublicListQuery) ([]Question, *common.Pagination, error) {
	var questions []Question
	db := r.db.WithContext(ctx).Model(&Question{}).Scopes(PublicScope)
	if query.Category != "" {
		db = db.Where("questions.category = ?", query.Category)
	}
	db = applySearch(db, query.Search)

	pagination, err := paginate(db, query.PaginationQuery, "questions.answered_at DESC, questions.created_at DESC", &questions)
	if err != nil {
		return nil, nil, err
	}
	return questions, pagination, nil
}

// FindPublicByIDs loads the public questions among ids, preserving the order of ids.
func (r *gormRepository) FindPublicByIDs(ctx context.Context, ids []uuid.UUID) ([]Question, error) {
	if len(ids) == 0 {
		return []Question{}, nil
	}
	var found []Question
	err := r.db.WithContext(ctx).
		Scopes(PublicScope).
		Preload("Answers", preloadAnswers).
		Where("questions.id IN ?", ids).
		Find(&found).Error
	if err != nil {
		return nil, fmt.Errorf("find public questions by ids: %w", err)
	}

	byID := make(map[uuid.UUID]Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	ordered := make([]Question, 0, len(found))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

// ListAdmin returns every question matching the filters, urgent first.
func (r *gormRepository) ListAdmin(ctx context.Context, query AdminListQuery) ([]Question, *common.Pagination, error) {
	var questions []Question
	db := r.db.WithContext(ctx).Model(&Question{})
	if query.Status != "" {
		db = db.Where("questions.status = ?", query.Status)
	}
	if query.Category != "" {
		db = db.Where("questions.category = ?", query.Category)
	}
	if query.Unseen != nil {
		db = db.Where("questions.is_seen_by_admin = ?", !*query.Unseen)
	}
	if query.Urgent != nil {
		db = db.Where("questions.is_urgent = ?", *query.Urgent)
	}
	db = applySearch(db, query.Search)

	pagination, err := paginate(db, query.PaginationQuery, "questions.is_urgent DESC, questions.created_at DESC", &questions)
	if err != nil {
		return nil, nil, err
	}
	return questions, pagination, nil
}

func (r *gormRepository) ListByOwner(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]Question, *common.Pagination, error) {
	var questions []Question
	db := r.db.WithContext(ctx).Model(&Question{}).Where("questions.user_id = ?", userID)
	pagination, err := paginate(db, query, "questions.created_at DESC", &questions)
	if err != nil {
		return nil, nil, err
	}
	return questions, pagination, nil
}

func (r *gormRepository) FindAllForExport(ctx context.Context) ([]Question, error) {
	var questions []Question
	err := r.db.WithContext(ctx).
		Preload("Answers", preloadAnswers).
		Order("questions.created_at ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("load questions for export: %w", err)
	}
	return questions, nil
}

// FindAllForSync pages through the public questions for bulk indexing.
func (r *gormRepository) FindAllForSync(ctx context.Context, offset, limit int) ([]Question, error) {
	var questions []Question
	err := r.db.WithContext(ctx).
		Scopes(PublicScope).
		Preload("Answers", preloadAnswers).
		Order("questions.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("load questions for sync: %w", err)
	}
	return questions, nil
}

// CreateAnswer records an answer in a single transaction: the answer row, the
// question's answered state and the owner's notification are written together
// or not at all.
func (r *gormRepository) CreateAnswer(ctx context.Context, questionID uuid.UUID, content, answeredBy string, notify NotificationText) (*AnswerResult, error) {
	result := &AnswerResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q Question
		if err := tx.First(&q, "id = ?", questionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(err, "Question")
			}
			return fmt.Errorf("load question %s: %w", questionID, err)
		}

		answer := &Answer{QuestionID: q.ID, Content: content, AnsweredBy: answeredBy}
		if err := tx.Create(answer).Error; err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}

		now := time.Now()
		err := tx.Model(&Question{}).Where("id = ?", q.ID).Updates(map[string]interface{}{
			"status":         StatusAnswered,
			"has_new_answer": true,
			"answered_at":    now,
			"updated_at":     now,
		}).Error
		if err != nil {
			return fmt.Errorf("mark question answered: %w", err)
		}
		q.Status = StatusAnswered
		q.HasNewAnswer = true
		q.AnsweredAt = &now
		q.UpdatedAt = now

		title, message := notify(&q)
		n := &notification.Notification{
			UserID:    q.UserID,
			Type:      notification.QuestionAnswered,
			Title:     title,
			Message:   message,
			RelatedID: &q.ID,
		}
		if err := notification.NewGORMRepository(tx).Create(ctx, n); err != nil {
			return err
		}

		result.Answer = answer
		result.Question = &q
		result.Notification = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *gormRepository) UpdateAnswer(ctx context.Context, answerID uuid.UUID, content string) (*Answer, error) {
	res := r.db.WithContext(ctx).Model(&Answer{}).Where("id = ?", answerID).Update("content", content)
	if res.Error != nil {
		return nil, fmt.Errorf("update answer %s: %w", answerID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, common.ErrNotFound.WithDetails("Answer not found.")
	}
	var a Answer
	if err := r.db.WithContext(ctx).First(&a, "id = ?", answerID).Error; err != nil {
		return nil, notFound(err, "Answer")
	}
	return &a, nil
}

// Approve sets the approval fields. Calling it again refreshes approved_at.
func (r *gormRepository) Approve(ctx context.Context, id uuid.UUID, approvedBy string, at time.Time) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"is_approved": true,
		"approved_by": approvedBy,
		"approved_at": at,
	})
}

// UpdateFields applies a partial update and stamps updated_at.
func (r *gormRepository) UpdateFields(ctx context.Context, id uuid.UUID, cols map[string]interface{}) error {
	cols["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&Question{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("update question %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Question not found.")
	}
	return nil
}

// SetFlag changes a single read-tracking flag without touching updated_at.
func (r *gormRepository) SetFlag(ctx context.Context, id uuid.UUID, column string, value bool) error {
	switch column {
	case "has_new_answer", "is_seen_by_admin":
	default:
		return fmt.Errorf("set flag: column %q is not a read-tracking flag", column)
	}
	res := r.db.WithContext(ctx).Model(&Question{}).Where("id = ?", id).UpdateColumn(column, value)
	if res.Error != nil {
		return fmt.Errorf("set %s on question %s: %w", column, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Question not found.")
	}
	return nil
}

// Delete removes a question and its answers. Notifications keep their related id.
func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&Answer{}).Error; err != nil {
			return fmt.Errorf("delete answers of question %s: %w", id, err)
		}
		res := tx.Where("id = ?", id).Delete(&Question{})
		if res.Error != nil {
			return fmt.Errorf("delete question %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return common.ErrNotFound.WithDetails("Question not found.")
		}
		return nil
	})
}

func (r *gormRepository) CountNewAnswers(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Question{}).
		Where("user_id = ? AND has_new_answer = ?", userID, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count new answers for user %s: %w", userID, err)
	}
	return count, nil
}

func (r *gormRepository) CountAdminQueues(ctx context.Context) (*AdminCounts, error) {
	counts := &AdminCounts{}
	db := r.db.WithContext(ctx).Model(&Question{})
	if err := db.Session(&gorm.Session{}).Where("is_seen_by_admin = ?", false).Count(&counts.Unseen).Error; err != nil {
		return nil, fmt.Errorf("count unseen questions: %w", err)
	}
	if err := db.Session(&gorm.Session{}).Where("status = ?", StatusPending).Count(&counts.Pending).Error; err != nil {
		return nil, fmt.Errorf("count pending questions: %w", err)
	}
	if err := db.Session(&gorm.Session{}).Where("status = ? AND is_urgent = ?", StatusPending, true).Count(&counts.UrgentPending).Error; err != nil {
		return nil, fmt.Errorf("count urgent pending questions: %w", err)
	}
	return counts, nil
}
