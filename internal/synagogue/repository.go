package synagogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"religious_services_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, s *Synagogue) error
	FindByID(ctx context.Context, id uuid.UUID) (*Synagogue, error)
	FindBySlug(ctx context.Context, slug string) (*Synagogue, error)
	List(ctx context.Context, query ListQuery) ([]Synagogue, *common.Pagination, error)
	Update(ctx context.Context, s *Synagogue) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM synagogue repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

var errSlugTaken = common.ErrConflict.WithDetails("A synagogue with this slug already exists.")

func (r *gormRepository) Create(ctx context.Context, s *Synagogue) error {
	s.Slug = strings.ToLower(strings.TrimSpace(s.Slug))
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		if common.IsUniqueViolation(err) {
			return errSlugTaken
		}
		return fmt.Errorf("create synagogue: %w", err)
	}
	return nil
}

func (r *gormRepository) find(ctx context.Context, column string, value interface{}) (*Synagogue, error) {
	var s Synagogue
	if err := r.db.WithContext(ctx).First(&s, column+" = ?", value).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Synagogue not found.")
		}
		return nil, fmt.Errorf("find synagogue by %s: %w", column, err)
	}
	return &s, nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Synagogue, error) {
	return r.find(ctx, "id", id)
}

func (r *gormRepository) FindBySlug(ctx context.Context, slug string) (*Synagogue, error) {
	return r.find(ctx, "slug", strings.ToLower(strings.TrimSpace(slug)))
}

func (r *gormRepository) List(ctx context.Context, query ListQuery) ([]Synagogue, *common.Pagination, error) {
	db := r.db.WithContext(ctx).Model(&Synagogue{})
	if !query.IncludeInactive {
		db = db.Where("is_active = ?", true)
	}
	if city := strings.TrimSpace(query.City); city != "" {
		db = db.Where("LOWER(city) = ?", strings.ToLower(city))
	}
	if term := strings.TrimSpace(query.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(address) LIKE ? OR LOWER(city) LIKE ?", like, like, like)
	}

	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("count synagogues: %w", err)
	}
	var synagogues []Synagogue
	err := db.Order("city ASC, name ASC").
		Limit(query.Limit()).
		Offset(query.Offset()).
		Find(&synagogues).Error
	if err != nil {
		return nil, nil, fmt.Errorf("list synagogues: %w", err)
	}
	return synagogues, common.NewPagination(total, query.Page, query.Limit()), nil
}

func (r *gormRepository) Update(ctx context.Context, s *Synagogue) error {
	s.Slug = strings.ToLower(strings.TrimSpace(s.Slug))
	if err := r.db.WithContext(ctx).Save(s).Error; err != nil {
		if common.IsUniqueViolation(err) {
			return errSlugTaken
		}
		return fmt.Errorf("update synagogue %s: %w", s.ID, err)
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&Synagogue{BaseModel: common.BaseModel{ID: id}})
	if res.Error != nil {
		return fmt.Errorf("delete synagogue %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Synagogue not found or already deleted.")
	}
	return nil
}
