package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"religious_services_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for user data operations.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error)
	Update(ctx context.Context, user *User) error
	UpdateRole(ctx context.Context, id uuid.UUID, role string) error
	UpdateDeviceToken(ctx context.Context, id uuid.UUID, token *string) error
	List(ctx context.Context, query ListQuery) ([]User, *common.Pagination, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM user repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var errUserNotFound = common.ErrNotFound.WithDetails("User not found.")

func (r *gormRepository) Create(ctx context.Context, user *User) error {
	user.Email = normalizeEmail(user.Email)
	return r.write(r.db.WithContext(ctx).Create(user).Error, "create user")
}

// Update saves every column of user.
func (r *gormRepository) Update(ctx context.Context, user *User) error {
	user.Email = normalizeEmail(user.Email)
	return r.write(r.db.WithContext(ctx).Save(user).Error, "update user")
}

// write maps unique index hits on email or personal number to a conflict.
func (r *gormRepository) write(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case common.IsUniqueViolation(err):
		return common.ErrConflict.WithDetails("Email or personal number is already registered.")
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (r *gormRepository) first(ctx context.Context, column string, value interface{}) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by %s: %w", column, err)
	}
	return &u, nil
}

// FindByEmail matches case-insensitively.
func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.first(ctx, "email", normalizeEmail(email))
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.first(ctx, "id", id)
}

// FindByIDs skips IDs that do not exist.
func (r *gormRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error) {
	users := []User{}
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("find users by ids: %w", err)
	}
	return users, nil
}

func (r *gormRepository) setColumn(ctx context.Context, id uuid.UUID, column string, value interface{}) error {
	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("set %s of user %s: %w", column, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errUserNotFound
	}
	return nil
}

func (r *gormRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	return r.setColumn(ctx, id, "role", role)
}

// UpdateDeviceToken stores token; nil clears it.
func (r *gormRepository) UpdateDeviceToken(ctx context.Context, id uuid.UUID, token *string) error {
	return r.setColumn(ctx, id, "device_token", token)
}

// List returns users ordered by creation, newest first.
func (r *gormRepository) List(ctx context.Context, query ListQuery) ([]User, *common.Pagination, error) {
	var users []User
	var total int64

	db := r.db.WithContext(ctx).Model(&User{})
	if query.Role != "" {
		db = db.Where("role = ?", query.Role)
	}
	if s := strings.TrimSpace(query.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		db = db.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR personal_number LIKE ?",
			like, like, like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("count users: %w", err)
	}
	if err := db.Order("created_at DESC").Limit(query.Limit()).Offset(query.Offset()).Find(&users).Error; err != nil {
		return nil, nil, fmt.Errorf("list users: %w", err)
	}
	return users, common.NewPagination(total, query.Page, query.Limit()), nil
}
