package synagogue

import (
	"context"
	"strings"

	"religious_services_backend/internal/common"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Service interface {
	List(ctx context.Context, query ListQuery) ([]Synagogue, *common.Pagination, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Synagogue, error)
	GetBySlug(ctx context.Context, slug string) (*Synagogue, error)

	AdminCreate(ctx context.Context, req SaveSynagogueRequest) (*Synagogue, error)
	AdminUpdate(ctx context.Context, id uuid.UUID, req SaveSynagogueRequest) (*Synagogue, error)
	AdminDelete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new synagogue service.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger.Named("SynagogueService")}
}

func (s *service) List(ctx context.Context, query ListQuery) ([]Synagogue, *common.Pagination, error) {
	return s.repo.List(ctx, query)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Synagogue, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) GetBySlug(ctx context.Context, slugToFind string) (*Synagogue, error) {
	return s.repo.FindBySlug(ctx, slugToFind)
}

// makeSlug cleans a provided slug or derives one from the name and city.
func makeSlug(req SaveSynagogueRequest) string {
	if provided := strings.TrimSpace(req.Slug); provided != "" {
		return slug.Make(provided)
	}
	return slug.Make(req.Name + " " + req.City)
}

func apply(target *Synagogue, req SaveSynagogueRequest) {
	target.Name = strings.TrimSpace(req.Name)
	target.Slug = makeSlug(req)
	target.Address = strings.TrimSpace(req.Address)
	target.City = strings.TrimSpace(req.City)
	target.Latitude = req.Latitude
	target.Longitude = req.Longitude
	target.Nusach = strings.TrimSpace(req.Nusach)
	target.ContactPhone = req.ContactPhone
	target.Notes = req.Notes
	times := req.PrayerTimes
	if times == nil {
		times = PrayerTimes{}
	}
	target.PrayerTimes = datatypes.NewJSONType(times)
	if req.IsActive != nil {
		target.IsActive = *req.IsActive
	}
}

func (s *service) AdminCreate(ctx context.Context, req SaveSynagogueRequest) (*Synagogue, error) {
	syn := &Synagogue{IsActive: true}
	apply(syn, req)
	if syn.Slug == "" {
		return nil, common.ErrBadRequest.WithDetails("Name must contain letters or digits.")
	}
	if err := s.repo.Create(ctx, syn); err != nil {
		s.logger.Error("Failed to create synagogue", zap.Error(err), zap.String("name", syn.Name))
		return nil, err
	}
	s.logger.Info("Synagogue created", zap.String("id", syn.ID.String()), zap.String("slug", syn.Slug))
	return syn, nil
}

func (s *service) AdminUpdate(ctx context.Context, id uuid.UUID, req SaveSynagogueRequest) (*Synagogue, error) {
	syn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(syn, req)
	if err := s.repo.Update(ctx, syn); err != nil {
		s.logger.Error("Failed to update synagogue", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}
	s.logger.Info("Synagogue updated", zap.String("id", id.String()))
	return syn, nil
}

func (s *service) AdminDelete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Synagogue deleted", zap.String("id", id.String()))
	return nil
}
