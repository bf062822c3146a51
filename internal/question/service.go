package question

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"religious_services_backend/internal/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserDirectory resolves user display names.
type UserDirectory interface {
	DisplayNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// BadgeInvalidator drops cached badge counts.
type BadgeInvalidator interface {
	InvalidateUser(ctx context.Context, userID uuid.UUID)
	InvalidateAdmins(ctx context.Context)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// Service is the question lifecycle.
type Service interface {
	CreateQuestion(ctx context.Context, userID uuid.UUID, req CreateQuestionRequest) (*QuestionResponse, error)
	GetQuestion(ctx context.Context, id uuid.UUID, viewer *Viewer) (*QuestionResponse, error)
	ListPublic(ctx context.Context, query PublicListQuery) ([]QuestionResponse, *common.Pagination, error)
	ListAdmin(ctx context.Context, query AdminListQuery) ([]QuestionResponse, *common.Pagination, error)
	ListMine(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]QuestionResponse, *common.Pagination, error)

	Answer(ctx context.Context, questionID uuid.UUID, content, answeredBy string) (*AnswerResponse, error)
	UpdateAnswer(ctx context.Context, answerID uuid.UUID, content string) (*AnswerResponse, error)
	Approve(ctx context.Context, id uuid.UUID, approvedBy string) (*QuestionResponse, error)
	SetVisible(ctx context.Context, id uuid.UUID, visible bool) (*QuestionResponse, error)
	UpdateQuestion(ctx context.Context, id uuid.UUID, req UpdateQuestionRequest) (*QuestionResponse, error)
	MarkAnswerViewed(ctx context.Context, id uuid.UUID, viewer Viewer) error
	MarkSeenByAdmin(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error

	Export(ctx context.Context, w io.Writer) error
	SyncIndex(ctx context.Context, batchSize int, refresh string) (int, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	repo      Repository
	users     UserDirectory
	badges    BadgeInvalidator
	indexer   Indexer
	publisher EventPublisher
	topic     string
	logger    *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates the question service. indexer and publisher may be nil.
func NewService(
	repo Repository,
	users UserDirectory,
	badges BadgeInvalidator,
	indexer Indexer,
	publisher EventPublisher,
	answeredTopic string,
	logger *zap.Logger,
) *ServiceImplementation {
	return &ServiceImplementation{
		repo:      repo,
		users:     users,
		badges:    badges,
		indexer:   indexer,
		publisher: publisher,
		topic:     answeredTopic,
		logger:    logger.Named("QuestionService"),
	}
}

func answeredNotificationText(q *Question) (string, string) {
	return "Your question was answered", fmt.Sprintf("The rabbi answered your question \"%s\".", q.Title)
}

func (s *ServiceImplementation) CreateQuestion(ctx context.Context, userID uuid.UUID, req CreateQuestionRequest) (*QuestionResponse, error) {
	q := &Question{
		UserID:    userID,
		Title:     strings.TrimSpace(req.Title),
		Category:  strings.TrimSpace(req.Category),
		Content:   strings.TrimSpace(req.Content),
		IsUrgent:  req.IsUrgent,
		IsPrivate: req.IsPrivate,
		Status:    StatusPending,
	}
	if q.Title == "" || q.Content == "" {
		return nil, common.ErrBadRequest.WithDetails("Title and content must not be blank.")
	}
	if err := s.repo.Create(ctx, q); err != nil {
		s.logger.Error("Failed to create question", zap.Error(err), zap.String("userID", userID.String()))
		return nil, err
	}
	s.logger.Info("Question submitted",
		zap.String("questionID", q.ID.String()),
		zap.String("userID", userID.String()),
		zap.Bool("urgent", q.IsUrgent),
	)
	s.invalidateAdmins(ctx)

	resp := ToQuestionResponse(q)
	return &resp, nil
}

// GetQuestion returns a question with its answers. Anonymous users and users
// other than the owner only see questions in the public feed.
func (s *ServiceImplementation) GetQuestion(ctx context.Context, id uuid.UUID, viewer *Viewer) (*QuestionResponse, error) {
	q, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	privileged := viewer != nil && (viewer.IsAdmin || viewer.UserID == q.UserID)
	if !privileged && !q.IsPublic() {
		// Indistinguishable from a missing question.
		return nil, common.ErrNotFound.WithDetails("Question not found.")
	}

	resp := ToQuestionResponse(q)
	s.attachOwnerNames(ctx, []*QuestionResponse{&resp})
	return &resp, nil
}

func (s *ServiceImplementation) ListPublic(ctx context.Context, query PublicListQuery) ([]QuestionResponse, *common.Pagination, error) {
	if strings.TrimSpace(query.Search) != "" && s.indexer != nil && s.indexer.Enabled() {
		questions, pagination, err := s.searchIndex(ctx, query)
		if err == nil {
			return s.toResponses(ctx, questions, false), pagination, nil
		}
		s.logger.Warn("Search index query failed, falling back to SQL", zap.Error(err))
	}

	questions, pagination, err := s.repo.ListPublic(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	return s.toResponses(ctx, questions, false), pagination, nil
}

func (s *ServiceImplementation) searchIndex(ctx context.Context, query PublicListQuery) ([]Question, *common.Pagination, error) {
	ids, total, err := s.indexer.Search(ctx, query.Search, query.Category, query.Offset(), query.Limit())
	if err != nil {
		return nil, nil, err
	}
	// The index can lag behind; the feed predicate is applied again here.
	questions, err := s.repo.FindPublicByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return questions, common.NewPagination(total, query.Page, query.Limit()), nil
}

func (s *ServiceImplementation) ListAdmin(ctx context.Context, query AdminListQuery) ([]QuestionResponse, *common.Pagination, error) {
	questions, pagination, err := s.repo.ListAdmin(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	return s.toResponses(ctx, questions, true), pagination, nil
}

func (s *ServiceImplementation) ListMine(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]QuestionResponse, *common.Pagination, error) {
	questions, pagination, err := s.repo.ListByOwner(ctx, userID, query)
	if err != nil {
		return nil, nil, err
	}
	return s.toResponses(ctx, questions, false), pagination, nil
}

// Answer records an admin answer. The answer, the question state change and
// the owner's notification commit atomically; the cache, index and event
// updates that follow are best-effort.
func (s *ServiceImplementation) Answer(ctx context.Context, questionID uuid.UUID, content, answeredBy string) (*AnswerResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, common.ErrBadRequest.WithDetails("Answer content must not be blank.")
	}

	result, err := s.repo.CreateAnswer(ctx, questionID, content, answeredBy, answeredNotificationText)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error("Failed to record answer", zap.Error(err), zap.String("questionID", questionID.String()))
		}
		return nil, err
	}

	q := result.Question
	s.logger.Info("Question answered",
		zap.String("questionID", q.ID.String()),
		zap.String("answerID", result.Answer.ID.String()),
		zap.String("notificationID", result.Notification.ID.String()),
	)

	s.invalidateUser(ctx, q.UserID)
	s.invalidateAdmins(ctx)
	s.reindex(ctx, q.ID)
	if s.publisher != nil {
		event := QuestionAnsweredEvent{
			QuestionID: q.ID,
			AnswerID:   result.Answer.ID,
			UserID:     q.UserID,
			Title:      q.Title,
			AnsweredAt: *q.AnsweredAt,
		}
		if err := s.publisher.Publish(ctx, s.topic, event); err != nil {
			s.logger.Warn("Failed to publish question answered event", zap.Error(err), zap.String("questionID", q.ID.String()))
		}
	}

	resp := ToAnswerResponse(result.Answer)
	return &resp, nil
}

func (s *ServiceImplementation) UpdateAnswer(ctx context.Context, answerID uuid.UUID, content string) (*AnswerResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, common.ErrBadRequest.WithDetails("Answer content must not be blank.")
	}
	a, err := s.repo.UpdateAnswer(ctx, answerID, content)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, a.QuestionID)
	resp := ToAnswerResponse(a)
	return &resp, nil
}

// Approve marks a question approved. It is idempotent apart from refreshing approvedAt.
func (s *ServiceImplementation) Approve(ctx context.Context, id uuid.UUID, approvedBy string) (*QuestionResponse, error) {
	if err := s.repo.Approve(ctx, id, approvedBy, time.Now()); err != nil {
		return nil, err
	}
	s.logger.Info("Question approved", zap.String("questionID", id.String()), zap.String("approvedBy", approvedBy))
	return s.load(ctx, id)
}

// SetVisible sets the visible flag as given, whatever the status, approval or
// privacy of the question. The public feed still hides private and unanswered questions.
func (s *ServiceImplementation) SetVisible(ctx context.Context, id uuid.UUID, visible bool) (*QuestionResponse, error) {
	if err := s.repo.UpdateFields(ctx, id, map[string]interface{}{"is_visible": visible}); err != nil {
		return nil, err
	}
	s.reindex(ctx, id)
	return s.load(ctx, id)
}

func (s *ServiceImplementation) UpdateQuestion(ctx context.Context, id uuid.UUID, req UpdateQuestionRequest) (*QuestionResponse, error) {
	if req.Status != nil && !req.Status.IsValid() {
		return nil, common.ErrBadRequest.WithDetails("Status must be one of pending, answered, closed.")
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, common.ErrBadRequest.WithDetails("Title must not be blank.")
	}
	if err := s.repo.UpdateFields(ctx, id, req.Columns()); err != nil {
		return nil, err
	}
	resp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidateUser(ctx, resp.UserID)
	s.invalidateAdmins(ctx)
	s.reindex(ctx, id)
	return resp, nil
}

// MarkAnswerViewed clears hasNewAnswer. Only the owner or an admin may do so.
// Notifications are left untouched.
func (s *ServiceImplementation) MarkAnswerViewed(ctx context.Context, id uuid.UUID, viewer Viewer) error {
	q, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return err
	}
	if q.UserID != viewer.UserID && !viewer.IsAdmin {
		return common.ErrForbidden.WithDetails("Only the owner can mark this answer as viewed.")
	}
	if err := s.repo.SetFlag(ctx, id, "has_new_answer", false); err != nil {
		return err
	}
	s.invalidateUser(ctx, q.UserID)
	return nil
}

func (s *ServiceImplementation) MarkSeenByAdmin(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetFlag(ctx, id, "is_seen_by_admin", true); err != nil {
		return err
	}
	s.invalidateAdmins(ctx)
	return nil
}

// Delete hard-deletes a question and its answers.
func (s *ServiceImplementation) Delete(ctx context.Context, id uuid.UUID) error {
	q, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Question deleted", zap.String("questionID", id.String()))

	s.invalidateUser(ctx, q.UserID)
	s.invalidateAdmins(ctx)
	if s.indexer != nil && s.indexer.Enabled() {
		if err := s.indexer.Remove(ctx, id); err != nil {
			s.logger.Warn("Failed to remove question from search index", zap.Error(err), zap.String("questionID", id.String()))
		}
	}
	return nil
}

// SyncIndex re-indexes every public question in batches and returns how many were indexed.
func (s *ServiceImplementation) SyncIndex(ctx context.Context, batchSize int, refresh string) (int, error) {
	if s.indexer == nil || !s.indexer.Enabled() {
		return 0, ErrSearchDisabled
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	total := 0
	for offset := 0; ; offset += batchSize {
		batch, err := s.repo.FindAllForSync(ctx, offset, batchSize)
		if err != nil {
			return total, err
		}
		if len(batch) == 0 {
			break
		}
		indexed, err := s.indexer.BulkIndex(ctx, batch, refresh)
		if err != nil {
			return total, fmt.Errorf("bulk index batch at offset %d: %w", offset, err)
		}
		total += indexed
		s.logger.Info("Indexed question batch", zap.Int("offset", offset), zap.Int("indexed", indexed))
		if len(batch) < batchSize {
			break
		}
	}
	return total, nil
}

// --- helpers ---

func (s *ServiceImplementation) load(ctx context.Context, id uuid.UUID) (*QuestionResponse, error) {
	q, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	resp := ToQuestionResponse(q)
	return &resp, nil
}

func (s *ServiceImplementation) toResponses(ctx context.Context, questions []Question, withOwners bool) []QuestionResponse {
	out := make([]QuestionResponse, 0, len(questions))
	for i := range questions {
		out = append(out, ToQuestionResponse(&questions[i]))
	}
	if withOwners {
		ptrs := make([]*QuestionResponse, len(out))
		for i := range out {
			ptrs[i] = &out[i]
		}
		s.attachOwnerNames(ctx, ptrs)
	}
	return out
}

func (s *ServiceImplementation) attachOwnerNames(ctx context.Context, responses []*QuestionResponse) {
	if s.users == nil || len(responses) == 0 {
		return
	}
	seen := make(map[uuid.UUID]struct{}, len(responses))
	ids := make([]uuid.UUID, 0, len(responses))
	for _, r := range responses {
		if _, ok := seen[r.UserID]; !ok {
			seen[r.UserID] = struct{}{}
			ids = append(ids, r.UserID)
		}
	}
	names, err := s.users.DisplayNames(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to resolve owner names", zap.Error(err))
		return
	}
	for _, r := range responses {
		r.OwnerName = names[r.UserID]
	}
}

func (s *ServiceImplementation) reindex(ctx context.Context, id uuid.UUID) {
	if s.indexer == nil || !s.indexer.Enabled() {
		return
	}
	q, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		s.logger.Warn("Failed to load question for indexing", zap.Error(err), zap.String("questionID", id.String()))
		return
	}
	if err := s.indexer.Sync(ctx, q); err != nil {
		s.logger.Warn("Failed to sync question to search index", zap.Error(err), zap.String("questionID", id.String()))
	}
}

func (s *ServiceImplementation) invalidateUser(ctx context.Context, userID uuid.UUID) {
	if s.badges != nil {
		s.badges.InvalidateUser(ctx, userID)
	}
}

func (s *ServiceImplementation) invalidateAdmins(ctx context.Context) {
	if s.badges != nil {
		s.badges.InvalidateAdmins(ctx)
	}
}
