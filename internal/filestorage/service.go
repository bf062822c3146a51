// Package filestorage keeps uploaded images on the local filesystem.
package filestorage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"religious_services_backend/internal/config"
	"religious_services_backend/internal/platform/crypto"

	"go.uber.org/zap"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the upload size limit")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrInvalidPath     = errors.New("invalid storage path")
)

// allowedImageTypes maps sniffed content types to the stored file extension.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// FileStorageService stores files under a base directory and serves them
// under a URL prefix.
type FileStorageService struct {
	storagePath string
	urlPrefix   string
	maxBytes    int64
	logger      *zap.Logger

	create func(name string) (io.WriteCloser, error)
}

func createFile(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

// NewFileStorageService creates the storage root if it does not exist.
func NewFileStorageService(cfg *config.Config, logger *zap.Logger) (*FileStorageService, error) {
	if cfg.UploadsPath == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	if err := os.MkdirAll(cfg.UploadsPath, 0o755); err != nil {
		logger.Error("Failed to create storage path directory", zap.String("path", cfg.UploadsPath), zap.Error(err))
		return nil, fmt.Errorf("failed to create storage path %s: %w", cfg.UploadsPath, err)
	}
	maxMB := cfg.MaxUploadSizeMB
	if maxMB <= 0 {
		maxMB = 5
	}
	logger.Info("FileStorageService initialized", zap.String("storagePath", cfg.UploadsPath))
	return &FileStorageService{
		storagePath: cfg.UploadsPath,
		urlPrefix:   strings.TrimSuffix(cfg.UploadsURLPrefix, "/"),
		maxBytes:    maxMB << 20,
		logger:      logger.Named("FileStorage"),
		create:      createFile,
	}, nil
}

// Root is the directory served under URLPrefix.
func (s *FileStorageService) Root() string { return s.storagePath }

// URLPrefix is the public path the stored files are served from.
func (s *FileStorageService) URLPrefix() string { return s.urlPrefix }

// URL returns the public URL of a stored file, or "" for an empty path.
func (s *FileStorageService) URL(relativePath string) string {
	if relativePath == "" {
		return ""
	}
	return s.urlPrefix + "/" + strings.TrimPrefix(relativePath, "/")
}

func (s *FileStorageService) cleanSubDir(subDir string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(subDir))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || strings.Contains(clean, "..") {
		return "", ErrInvalidPath
	}
	return clean, nil
}

// SaveImage stores an uploaded image under subDir with a random name and
// returns its path relative to the storage root, e.g. "content/3f9c.png".
// The type is sniffed from the content, not taken from the client.
func (s *FileStorageService) SaveImage(fileHeader *multipart.FileHeader, subDir string) (string, error) {
	if fileHeader == nil {
		return "", fmt.Errorf("fileHeader cannot be nil")
	}
	if fileHeader.Size > s.maxBytes {
		return "", ErrFileTooLarge
	}
	dir, err := s.cleanSubDir(subDir)
	if err != nil {
		return "", err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read uploaded file: %w", err)
	}
	extension, ok := allowedImageTypes[http.DetectContentType(head[:n])]
	if !ok {
		return "", ErrUnsupportedType
	}

	name, err := crypto.RandomHex(16)
	if err != nil {
		return "", err
	}
	destinationDir := filepath.Join(s.storagePath, filepath.FromSlash(dir))
	if err := os.MkdirAll(destinationDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", destinationDir, err)
	}
	destinationPath := filepath.Join(destinationDir, name+extension)

	dst, err := s.create(destinationPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", destinationPath, err)
	}

	written, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head[:n]), io.LimitReader(src, s.maxBytes-int64(n)+1)))
	if err == nil && written > s.maxBytes {
		err = ErrFileTooLarge
	}
	if closeErr := dst.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to flush file: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(destinationPath)
		if errors.Is(err, ErrFileTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	s.logger.Info("File saved", zap.String("path", destinationPath), zap.Int64("bytes", written))
	return dir + "/" + name + extension, nil
}

// DeleteFile removes a file given its path relative to the storage root.
// A missing file is not an error.
func (s *FileStorageService) DeleteFile(relativePath string) error {
	if relativePath == "" {
		return fmt.Errorf("relative path cannot be empty")
	}
	clean := filepath.Clean(filepath.FromSlash(relativePath))
	if strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		s.logger.Warn("Attempt to delete file with path traversal", zap.String("relativePath", relativePath))
		return ErrInvalidPath
	}

	fullPath := filepath.Join(s.storagePath, clean)
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("Attempt to delete non-existent file", zap.String("path", fullPath))
			return nil
		}
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}
	s.logger.Info("File deleted", zap.String("path", fullPath))
	return nil
}
