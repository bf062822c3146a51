package question

import (
	"time"

	"religious_services_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is the lifecycle state of a question.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAnswered Status = "answered"
	StatusClosed   Status = "closed"
)

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAnswered, StatusClosed:
		return true
	}
	return false
}

// Question is a question submitted by a user. Ownership never changes.
type Question struct {
	common.BaseModel
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	Title         string     `gorm:"type:varchar(255);not null"`
	Category      string     `gorm:"type:varchar(100);index"`
	Content       string     `gorm:"type:text;not null"`
	IsUrgent      bool       `gorm:"not null;default:false"`
	IsPrivate     bool       `gorm:"not null;default:false"`
	IsVisible     bool       `gorm:"not null;default:false;index"`
	Status        Status     `gorm:"type:varchar(20);not null;default:'pending';index"`
	IsApproved    bool       `gorm:"not null;default:false"`
	HasNewAnswer  bool       `gorm:"not null;default:false"`
	IsSeenByAdmin bool       `gorm:"not null;default:false"`
	ApprovedBy    *string    `gorm:"type:varchar(255)"`
	ApprovedAt    *time.Time
	AnsweredAt    *time.Time `gorm:"index"`

	Answers []Answer `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM.
func (Question) TableName() string {
	return "questions"
}

// IsPublic is the public-feed predicate. PublicScope is its SQL form and the
// two must stay in step.
func (q *Question) IsPublic() bool {
	return q.IsVisible && !q.IsPrivate && q.Status == StatusAnswered
}

// PublicScope restricts a query to rows anonymous and regular users may see.
func PublicScope(db *gorm.DB) *gorm.DB {
	return db.Where("questions.is_visible = ? AND questions.is_private = ? AND questions.status = ?", true, false, StatusAnswered)
}

// Answer is an admin reply to a question. A question may collect several.
type Answer struct {
	common.BaseModel
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index"`
	Content    string    `gorm:"type:text;not null"`
	AnsweredBy string    `gorm:"type:varchar(255);not null"`
}

// TableName specifies the table name for GORM.
func (Answer) TableName() string {
	return "answers"
}

// AdminCounts are the queue sizes shown on the admin badge.
type AdminCounts struct {
	Unseen        int64
	Pending       int64
	UrgentPending int64
}

// Viewer identifies who is reading a question.
type Viewer struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// --- Requests ---

// CreateQuestionRequest is the body of POST /questions. The owner is always
// the authenticated caller.
type CreateQuestionRequest struct {
	Title     string `json:"title" binding:"required,max=255"`
	Category  string `json:"category" binding:"omitempty,max=100"`
	Content   string `json:"content" binding:"required,max=10000"`
	IsUrgent  bool   `json:"isUrgent"`
	IsPrivate bool   `json:"isPrivate"`
}

// UpdateQuestionRequest is a partial update. Nil fields are left untouched.
type UpdateQuestionRequest struct {
	Title      *string `json:"title" binding:"omitempty,min=1,max=255"`
	Category   *string `json:"category" binding:"omitempty,max=100"`
	Content    *string `json:"content" binding:"omitempty,min=1,max=10000"`
	IsUrgent   *bool   `json:"isUrgent"`
	IsPrivate  *bool   `json:"isPrivate"`
	IsVisible  *bool   `json:"isVisible"`
	IsApproved *bool   `json:"isApproved"`
	Status     *Status `json:"status" binding:"omitempty,oneof=pending answered closed"`
}

// Columns converts the request into a column map for a partial update.
func (r *UpdateQuestionRequest) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if r.Title != nil {
		cols["title"] = *r.Title
	}
	if r.Category != nil {
		cols["category"] = *r.Category
	}
	if r.Content != nil {
		cols["content"] = *r.Content
	}
	if r.IsUrgent != nil {
		cols["is_urgent"] = *r.IsUrgent
	}
	if r.IsPrivate != nil {
		cols["is_private"] = *r.IsPrivate
	}
	if r.IsVisible != nil {
		cols["is_visible"] = *r.IsVisible
	}
	if r.IsApproved != nil {
		cols["is_approved"] = *r.IsApproved
	}
	if r.Status != nil {
		cols["status"] = *r.Status
	}
	return cols
}

// AnswerRequest is the body of POST /admin/answers.
type AnswerRequest struct {
	QuestionID uuid.UUID `json:"questionId" binding:"required"`
	Content    string    `json:"content" binding:"required,max=20000"`
}

// UpdateAnswerRequest is the body of PUT /answers/:id.
type UpdateAnswerRequest struct {
	Content string `json:"content" binding:"required,max=20000"`
}

// ApproveRequest optionally labels the approver. The label defaults to the
// admin's display name.
type ApproveRequest struct {
	ApprovedBy string `json:"approvedBy" binding:"max=255"`
}

// SetVisibleRequest is the body of POST /questions/:id/set-visible.
type SetVisibleRequest struct {
	IsVisible *bool `json:"isVisible" binding:"required"`
}

// PublicListQuery filters the public feed.
type PublicListQuery struct {
	common.PaginationQuery
	Category string `form:"category"`
	Search   string `form:"q"`
}

// AdminListQuery filters the admin queue.
type AdminListQuery struct {
	common.PaginationQuery
	Status   Status `form:"status" binding:"omitempty,oneof=pending answered closed"`
	Category string `form:"category"`
	Search   string `form:"q"`
	Unseen   *bool  `form:"unseen"`
	Urgent   *bool  `form:"urgent"`
}

// --- Responses ---

// AnswerResponse is the API form of an Answer.
type AnswerResponse struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"questionId"`
	Content    string    `json:"content"`
	AnsweredBy string    `json:"answeredBy"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// QuestionResponse is the API form of a Question.
type QuestionResponse struct {
	ID            uuid.UUID        `json:"id"`
	UserID        uuid.UUID        `json:"userId"`
	OwnerName     string           `json:"ownerName,omitempty"`
	Title         string           `json:"title"`
	Category      string           `json:"category"`
	Content       string           `json:"content"`
	IsUrgent      bool             `json:"isUrgent"`
	IsPrivate     bool             `json:"isPrivate"`
	IsVisible     bool             `json:"isVisible"`
	Status        Status           `json:"status"`
	IsApproved    bool             `json:"isApproved"`
	HasNewAnswer  bool             `json:"hasNewAnswer"`
	IsSeenByAdmin bool             `json:"isSeenByAdmin"`
	ApprovedBy    *string          `json:"approvedBy,omitempty"`
	ApprovedAt    *time.Time       `json:"approvedAt,omitempty"`
	AnsweredAt    *time.Time       `json:"answeredAt,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	AnswerCount   int              `json:"answerCount"`
	Answers       []AnswerResponse `json:"answers,omitempty"`
}

func ToAnswerResponse(a *Answer) AnswerResponse {
	return AnswerResponse{
		ID:         a.ID,
		QuestionID: a.QuestionID,
		Content:    a.Content,
		AnsweredBy: a.AnsweredBy,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// ToQuestionResponse converts a question, including any preloaded answers.
func ToQuestionResponse(q *Question) QuestionResponse {
	resp := QuestionResponse{
		ID:            q.ID,
		UserID:        q.UserID,
		Title:         q.Title,
		Category:      q.Category,
		Content:       q.Content,
		IsUrgent:      q.IsUrgent,
		IsPrivate:     q.IsPrivate,
		IsVisible:     q.IsVisible,
		Status:        q.Status,
		IsApproved:    q.IsApproved,
		HasNewAnswer:  q.HasNewAnswer,
		IsSeenByAdmin: q.IsSeenByAdmin,
		ApprovedBy:    q.ApprovedBy,
		ApprovedAt:    q.ApprovedAt,
		AnsweredAt:    q.AnsweredAt,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
		AnswerCount:   len(q.Answers),
	}
	if len(q.Answers) > 0 {
		resp.Answers = make([]AnswerResponse, 0, len(q.Answers))
		for i := range q.Answers {
			resp.Answers = append(resp.Answers, ToAnswerResponse(&q.Answers[i]))
		}
	}
	return resp
}

// QuestionAnsweredEvent is published after an answer is committed.
type QuestionAnsweredEvent struct {
	QuestionID uuid.UUID `json:"questionId"`
	AnswerID   uuid.UUID `json:"answerId"`
	UserID     uuid.UUID `json:"userId"`
	Title      string    `json:"title"`
	AnsweredAt time.Time `json:"answeredAt"`
}
