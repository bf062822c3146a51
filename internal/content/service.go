package content

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"religious_services_backend/internal/common"
	"religious_services_backend/internal/filestorage"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

const imageSubDir = "content"

// ImageStore keeps uploaded post images.
type ImageStore interface {
	SaveImage(fileHeader *multipart.FileHeader, subDir string) (string, error)
	DeleteFile(relativePath string) error
	URL(relativePath string) string
}

type Service interface {
	List(ctx context.Context, query ListQuery) ([]PostResponse, *common.Pagination, error)
	Get(ctx context.Context, kind Kind, idOrSlug string) (*PostResponse, error)
	DailyRuling(ctx context.Context) (*PostResponse, error)

	AdminList(ctx context.Context, query ListQuery) ([]PostResponse, *common.Pagination, error)
	AdminCreate(ctx context.Context, req SavePostRequest) (*PostResponse, error)
	AdminUpdate(ctx context.Context, id uuid.UUID, req SavePostRequest) (*PostResponse, error)
	AdminDelete(ctx context.Context, id uuid.UUID) error
	AdminSetImage(ctx context.Context, id uuid.UUID, fileHeader *multipart.FileHeader) (*PostResponse, error)
}

type service struct {
	repo   Repository
	images ImageStore
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a new content service.
func NewService(repo Repository, images ImageStore, logger *zap.Logger) Service {
	return &service{repo: repo, images: images, now: time.Now, logger: logger.Named("ContentService")}
}

func (s *service) toResponse(p *Post) PostResponse {
	resp := PostResponse{
		ID:          p.ID,
		Kind:        p.Kind,
		Title:       p.Title,
		Slug:        p.Slug,
		Summary:     p.Summary,
		Body:        p.Body,
		VideoURL:    p.VideoURL,
		PublishDate: p.PublishDate,
		IsPublished: p.IsPublished,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.ImagePath != nil && s.images != nil {
		resp.ImageURL = s.images.URL(*p.ImagePath)
	}
	return resp
}

func (s *service) toResponses(posts []Post) []PostResponse {
	out := make([]PostResponse, len(posts))
	for i := range posts {
		out[i] = s.toResponse(&posts[i])
	}
	return out
}

func (s *service) List(ctx context.Context, query ListQuery) ([]PostResponse, *common.Pagination, error) {
	query.IncludeUnpublished = false
	posts, pagination, err := s.repo.List(ctx, query, s.now())
	if err != nil {
		return nil, nil, err
	}
	return s.toResponses(posts), pagination, nil
}

// Get returns a live post of the given kind. Drafts, scheduled posts and
// posts of another kind are reported as missing.
func (s *service) Get(ctx context.Context, kind Kind, idOrSlug string) (*PostResponse, error) {
	var p *Post
	var err error
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		p, err = s.repo.FindByID(ctx, id)
	} else {
		p, err = s.repo.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, err
	}
	if p.Kind != kind || !p.IsLive(s.now()) {
		return nil, common.ErrNotFound.WithDetails("Post not found.")
	}
	resp := s.toResponse(p)
	return &resp, nil
}

// DailyRuling returns the latest published ruling dated today or earlier.
func (s *service) DailyRuling(ctx context.Context) (*PostResponse, error) {
	p, err := s.repo.LatestLive(ctx, KindRuling, s.now())
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(p)
	return &resp, nil
}

func (s *service) AdminList(ctx context.Context, query ListQuery) ([]PostResponse, *common.Pagination, error) {
	query.IncludeUnpublished = true
	posts, pagination, err := s.repo.List(ctx, query, s.now())
	if err != nil {
		return nil, nil, err
	}
	return s.toResponses(posts), pagination, nil
}

// apply copies req onto p. Without an explicit slug one is derived from the
// title and publish date, so daily rulings sharing a title stay distinct.
func (s *service) apply(p *Post, req SavePostRequest) error {
	p.Kind = req.Kind
	p.Title = strings.TrimSpace(req.Title)
	p.Summary = strings.TrimSpace(req.Summary)
	p.Body = req.Body
	p.VideoURL = req.VideoURL
	p.IsPublished = req.IsPublished
	if req.PublishDate != nil {
		p.PublishDate = *req.PublishDate
	} else if p.PublishDate.IsZero() {
		p.PublishDate = s.now()
	}

	if provided := strings.TrimSpace(req.Slug); provided != "" {
		p.Slug = slug.Make(provided)
	} else {
		p.Slug = slug.Make(p.Title + " " + p.PublishDate.Format("2006-01-02"))
	}
	if p.Kind == KindVideo && (p.VideoURL == nil || *p.VideoURL == "") {
		return common.ErrBadRequest.WithDetails("Videos require a video_url.")
	}
	return nil
}

func (s *service) AdminCreate(ctx context.Context, req SavePostRequest) (*PostResponse, error) {
	p := &Post{}
	if err := s.apply(p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("Failed to create post", zap.Error(err), zap.String("kind", string(p.Kind)))
		return nil, err
	}
	s.logger.Info("Post created", zap.String("id", p.ID.String()), zap.String("kind", string(p.Kind)), zap.Bool("published", p.IsPublished))
	resp := s.toResponse(p)
	return &resp, nil
}

func (s *service) AdminUpdate(ctx context.Context, id uuid.UUID, req SavePostRequest) (*PostResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		s.logger.Error("Failed to update post", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}
	resp := s.toResponse(p)
	return &resp, nil
}

func (s *service) AdminDelete(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.removeImage(p.ImagePath)
	s.logger.Info("Post deleted", zap.String("id", id.String()))
	return nil
}

// AdminSetImage stores a new image for the post and removes the previous one.
func (s *service) AdminSetImage(ctx context.Context, id uuid.UUID, fileHeader *multipart.FileHeader) (*PostResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.images == nil {
		return nil, common.ErrInternalServer.WithDetails("Image storage is not configured.")
	}

	relativePath, err := s.images.SaveImage(fileHeader, imageSubDir)
	if err != nil {
		switch {
		case errors.Is(err, filestorage.ErrUnsupportedType):
			return nil, common.ErrBadRequest.WithDetails("Only JPEG, PNG, GIF and WebP images are accepted.")
		case errors.Is(err, filestorage.ErrFileTooLarge):
			return nil, common.ErrBadRequest.WithDetails("Image exceeds the upload size limit.")
		}
		s.logger.Error("Failed to store post image", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}

	previous := p.ImagePath
	p.ImagePath = &relativePath
	if err := s.repo.Update(ctx, p); err != nil {
		s.removeImage(&relativePath)
		return nil, err
	}
	s.removeImage(previous)

	resp := s.toResponse(p)
	return &resp, nil
}

func (s *service) removeImage(relativePath *string) {
	if relativePath == nil || *relativePath == "" || s.images == nil {
		return
	}
	if err := s.images.DeleteFile(*relativePath); err != nil {
		s.logger.Warn("Failed to delete post image", zap.String("path", *relativePath), zap.Error(err))
	}
}
