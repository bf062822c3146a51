package filestorage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"religious_services_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func setupFileStorageService(t *testing.T, maxMB int64) (*FileStorageService, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "uploads")
	cfg := &config.Config{UploadsPath: root, UploadsURLPrefix: "/uploads/", MaxUploadSizeMB: maxMB}
	fsService, err := NewFileStorageService(cfg, zap.NewNop())
	require.NoError(t, err, "Failed to create FileStorageService")
	return fsService, root
}

// newTestFileHeader builds a FileHeader the way gin parses a multipart upload.
func newTestFileHeader(t *testing.T, filename string, content []byte, contentType string) *multipart.FileHeader {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, filename))
	if contentType != "" {
		partHeader.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(partHeader)
	require.NoError(t, err)
	_, err = io.Copy(part, bytes.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	files := form.File["image"]
	require.NotEmpty(t, files)
	return files[0]
}

func TestFileStorageService_SaveImage_Success(t *testing.T) {
	fsService, root := setupFileStorageService(t, 1)
	content := append(append([]byte{}, pngHeader...), []byte("rest of the image")...)

	// The client-declared type and extension are ignored.
	fh := newTestFileHeader(t, "photo.jpg", content, "image/jpeg")
	relativePath, err := fsService.SaveImage(fh, "content")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(relativePath, "content/"))
	assert.True(t, strings.HasSuffix(relativePath, ".png"))

	stored, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relativePath)))
	require.NoError(t, err)
	assert.Equal(t, content, stored)
	assert.Equal(t, "/uploads/"+relativePath, fsService.URL(relativePath))
}

func TestFileStorageService_SaveImage_UnsupportedType(t *testing.T) {
	fsService, _ := setupFileStorageService(t, 1)

	fh := newTestFileHeader(t, "notes.png", []byte("plain text pretending to be an image"), "image/png")
	_, err := fsService.SaveImage(fh, "content")

	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestFileStorageService_SaveImage_TooLarge(t *testing.T) {
	fsService, root := setupFileStorageService(t, 1)
	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 1<<20)...)

	fh := newTestFileHeader(t, "big.png", content, "image/png")
	_, err := fsService.SaveImage(fh, "content")

	assert.ErrorIs(t, err, ErrFileTooLarge)
	entries, _ := os.ReadDir(filepath.Join(root, "content"))
	assert.Empty(t, entries)
}

func TestFileStorageService_SaveImage_RejectsEscapingSubDir(t *testing.T) {
	fsService, root := setupFileStorageService(t, 1)

	fh := newTestFileHeader(t, "a.png", pngHeader, "image/png")
	relativePath, err := fsService.SaveImage(fh, "../../outside")

	require.NoError(t, err, "the sub-directory is confined to the storage root")
	_, statErr := os.Stat(filepath.Join(root, filepath.FromSlash(relativePath)))
	assert.NoError(t, statErr)

	_, err = fsService.SaveImage(fh, "")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestFileStorageService_SaveImage_NilHeader(t *testing.T) {
	fsService, _ := setupFileStorageService(t, 1)

	_, err := fsService.SaveImage(nil, "content")
	assert.EqualError(t, err, "fileHeader cannot be nil")
}

func TestFileStorageService_DeleteFile(t *testing.T) {
	fsService, root := setupFileStorageService(t, 1)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "content"), 0o755))
	target := filepath.Join(root, "content", "old.png")
	require.NoError(t, os.WriteFile(target, pngHeader, 0o644))

	require.NoError(t, fsService.DeleteFile("content/old.png"))
	_, err := os.Stat(target)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, fsService.DeleteFile("content/missing.png"), "missing files are ignored")
}

func TestFileStorageService_DeleteFile_PathTraversal(t *testing.T) {
	fsService, root := setupFileStorageService(t, 1)
	outside := filepath.Join(filepath.Dir(root), "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))

	err := fsService.DeleteFile("../outside.txt")

	assert.ErrorIs(t, err, ErrInvalidPath)
	_, statErr := os.Stat(outside)
	assert.NoError(t, statErr)
}

// failingCloseFile writes to a real file but reports an error when closed,
// as a full disk does on the final flush.
type failingCloseFile struct {
	*os.File
	closed bool
}

var errFlush = errors.New("no space left on device")

func (f *failingCloseFile) Close() error {
	f.closed = true
	_ = f.File.Close()
	return errFlush
}

func TestFileStorageService_SaveImage_CloseErrorRemovesFile(t *testing.T) {
	fsService, root := setupFileStorageService(t, 1)
	var opened *failingCloseFile
	fsService.create = func(name string) (io.WriteCloser, error) {
		f, err := os.Create(name)
		if err != nil {
			return nil, err
		}
		opened = &failingCloseFile{File: f}
		return opened, nil
	}

	content := append(append([]byte{}, pngHeader...), []byte("pixels")...)
	_, err := fsService.SaveImage(newTestFileHeader(t, "photo.png", content, "image/png"), "content")

	assert.ErrorIs(t, err, errFlush)
	require.NotNil(t, opened)
	assert.True(t, opened.closed)
	entries, _ := os.ReadDir(filepath.Join(root, "content"))
	assert.Empty(t, entries, "a file that failed to flush is removed")
}
