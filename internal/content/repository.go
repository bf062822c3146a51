package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"religious_services_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, p *Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*Post, error)
	FindBySlug(ctx context.Context, slug string) (*Post, error)
	List(ctx context.Context, query ListQuery, now time.Time) ([]Post, *common.Pagination, error)
	LatestLive(ctx context.Context, kind Kind, now time.Time) (*Post, error)
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM content repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

var errSlugTaken = common.ErrConflict.WithDetails("A post with this slug already exists.")

func liveScope(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_published = ? AND publish_date <= ?", true, now)
	}
}

func (r *gormRepository) Create(ctx context.Context, p *Post) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if common.IsUniqueViolation(err) {
			return errSlugTaken
		}
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (r *gormRepository) find(ctx context.Context, column string, value interface{}) (*Post, error) {
	var p Post
	if err := r.db.WithContext(ctx).First(&p, column+" = ?", value).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Post not found.")
		}
		return nil, fmt.Errorf("find post by %s: %w", column, err)
	}
	return &p, nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	return r.find(ctx, "id", id)
}

func (r *gormRepository) FindBySlug(ctx context.Context, slug string) (*Post, error) {
	return r.find(ctx, "slug", strings.ToLower(strings.TrimSpace(slug)))
}

func (r *gormRepository) List(ctx context.Context, query ListQuery, now time.Time) ([]Post, *common.Pagination, error) {
	db := r.db.WithContext(ctx).Model(&Post{})
	if !query.IncludeUnpublished {
		db = db.Scopes(liveScope(now))
	}
	if query.Kind != "" {
		db = db.Where("kind = ?", query.Kind)
	}
	if term := strings.TrimSpace(query.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(summary) LIKE ?", like, like)
	}

	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("count posts: %w", err)
	}
	var posts []Post
	err := db.Order("publish_date DESC, created_at DESC").
		Limit(query.Limit()).
		Offset(query.Offset()).
		Find(&posts).Error
	if err != nil {
		return nil, nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, common.NewPagination(total, query.Page, query.Limit()), nil
}

// LatestLive returns the most recent published post of kind whose publish date has passed.
func (r *gormRepository) LatestLive(ctx context.Context, kind Kind, now time.Time) (*Post, error) {
	var p Post
	err := r.db.WithContext(ctx).
		Scopes(liveScope(now)).
		Where("kind = ?", kind).
		Order("publish_date DESC, created_at DESC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("No published " + string(kind) + " yet.")
		}
		return nil, fmt.Errorf("latest %s: %w", kind, err)
	}
	return &p, nil
}

func (r *gormRepository) Update(ctx context.Context, p *Post) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		if common.IsUniqueViolation(err) {
			return errSlugTaken
		}
		return fmt.Errorf("update post %s: %w", p.ID, err)
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&Post{BaseModel: common.BaseModel{ID: id}})
	if res.Error != nil {
		return fmt.Errorf("delete post %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Post not found or already deleted.")
	}
	return nil
}
