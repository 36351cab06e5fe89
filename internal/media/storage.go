// Package media stores user uploads such as post images.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"regexp"
	"strings"

	"yatube/internal/models"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// PostsDir is the directory under the media root that holds post images.
const PostsDir = "posts"

const invalidImageMessage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

var unsafeChars = regexp.MustCompile(`[^-\p{L}\p{N}_.]`)

// Upload is a file received from a form.
type Upload struct {
	Filename string
	Content  io.Reader
}

// Storage keeps files on an afero filesystem rooted at the media root.
type Storage struct {
	fs       afero.Fs
	maxBytes int64
}

// NewStorage wraps afs, rejecting files larger than maxBytes.
func NewStorage(afs afero.Fs, maxBytes int64) *Storage {
	return &Storage{fs: afs, maxBytes: maxBytes}
}

// NewOSStorage stores files on disk below root.
func NewOSStorage(root string, maxBytes int64) (*Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return NewStorage(afero.NewBasePathFs(afero.NewOsFs(), root), maxBytes), nil
}

// SaveImage validates up as an image and writes it to dir/<name>, returning
// the stored path relative to the media root. A taken name gets a short
// random suffix before the extension.
func (s *Storage) SaveImage(ctx context.Context, dir string, up Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(up.Content, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", models.NewFieldValidationError(map[string]string{
			"image": fmt.Sprintf("Ensure the file is at most %d bytes.", s.maxBytes),
		})
	}
	if err := ValidateImage(data); err != nil {
		return "", err
	}

	name := CleanFilename(up.Filename)
	if err := s.fs.MkdirAll(abs(dir), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	return s.create(dir, name, data)
}

// create writes data to a new file named after name. The name is claimed by
// an O_EXCL open; a taken name gets a short random suffix.
func (s *Storage) create(dir, name string, data []byte) (string, error) {
	candidate := path.Join(dir, name)
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; i < 10; i++ {
		f, err := s.fs.OpenFile(abs(candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			candidate = path.Join(dir, stem+"_"+uuid.NewString()[:7]+ext)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", candidate, err)
		}

		_, werr := f.Write(data)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			_ = s.fs.Remove(abs(candidate))
			return "", fmt.Errorf("write %s: %w", candidate, werr)
		}
		return candidate, nil
	}
	return "", errors.New("could not find a free file name")
}

// Delete removes a stored file; a missing file is not an error.
func (s *Storage) Delete(name string) error {
	if name == "" {
		return nil
	}
	err := s.fs.Remove(abs(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists reports whether name is stored.
func (s *Storage) Exists(name string) bool {
	ok, _ := afero.Exists(s.fs, abs(name))
	return ok
}

// FileSystem exposes the storage for read-only HTTP serving.
func (s *Storage) FileSystem() http.FileSystem {
	return afero.NewHttpFs(afero.NewReadOnlyFs(s.fs)).Dir("/")
}

// abs anchors a media-relative path at the storage root.
func abs(rel string) string {
	return "/" + strings.TrimPrefix(rel, "/")
}

// CleanFilename strips directories and replaces characters that are unsafe in URLs.
func CleanFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeChars.ReplaceAllString(name, "")
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}

// ValidateImage checks that data decodes as a supported image format.
func ValidateImage(data []byte) error {
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return models.NewFieldValidationError(map[string]string{"image": invalidImageMessage})
	}
	return nil
}
