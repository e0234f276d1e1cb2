package file

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"restorebot/internal/core/domain"
	"strconv"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// Store lays out uploads and processed artifacts below a root directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Extension returns the lower-case extension of name if it is an accepted image type.
func Extension(name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
	return ext, nil
}

// SaveUpload writes an uploaded file to <dir>/uploads/<owner>/<uuid><ext>.
func (s *Store) SaveUpload(ownerID int64, name string, data []byte) (string, error) {
	ext, err := Extension(name)
	if err != nil {
		return "", err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.dir, "uploads", strconv.FormatInt(ownerID, 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		err = fmt.Errorf("error creating upload directory %w", err)
		log.Error().Err(err).Send()
		return "", err
	}

	path := filepath.Join(dir, id.String()+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		err = fmt.Errorf("error writing upload %w", err)
		log.Error().Err(err).Send()
		return "", err
	}

	log.Debug().Int("bytes", len(data)).Str("path", path).Msg("saved upload")

	return path, nil
}

// ProcessedPath names the destination of a pipeline run, <dir>/processed/<owner>/<image>_<version>_<uuid><ext>.
// The directory is created, the file is not.
func (s *Store) ProcessedPath(ownerID, imageID int64, version int, ext string) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.dir, "processed", strconv.FormatInt(ownerID, 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating processed directory %w", err)
	}

	return filepath.Join(dir, fmt.Sprintf("%d_%d_%s%s", imageID, version, id.String(), ext)), nil
}

// Probe reads the image header to report format and dimensions.
func (s *Store) Probe(path string) (domain.ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.ImageInfo{}, &domain.DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return domain.ImageInfo{}, &domain.DecodeError{Path: path, Err: err}
	}

	return domain.ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// Remove deletes a file, logging instead of failing.
func (s *Store) Remove(path string) {
	err := os.Remove(path)
	if err != nil {
		log.Warn().Str("path", path).Err(err).Msg("could not clean up file")
		return
	}
	log.Debug().Str("path", path).Msg("cleaned up file")
}

// Read returns the content of a stored file.
func (s *Store) Read(path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("error reading file %w", err)
		log.Error().Err(err).Send()
		return nil, err
	}

	return buf, nil
}
