package filter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"restorebot/internal/core/domain"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"

	// register decoders for formats the standard library lacks
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// fallbackExt is used when the requested output container cannot be encoded.
const fallbackExt = ".png"

// Engine applies classical filters to image files.
type Engine struct {
	jpegQuality int
}

func NewEngine() *Engine {
	return &Engine{jpegQuality: 95}
}

// OutputPath returns outputPath, or the same path with a .png extension when the format has no encoder.
func OutputPath(outputPath string) string {
	if _, err := imaging.FormatFromFilename(outputPath); err == nil {
		return outputPath
	}
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + fallbackExt
}

// ApplyFile decodes inputPath, filters it and encodes the result. It returns the written path. When every
// step is the identity and the container does not change, the input bytes are copied instead so that 16-bit
// sources keep their depth.
func (e *Engine) ApplyFile(ctx context.Context, inputPath, outputPath string,
	opts domain.FilterOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	src, err := imaging.Open(inputPath, imaging.AutoOrientation(true))
	if err != nil {
		return "", &domain.DecodeError{Path: inputPath, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	out := OutputPath(outputPath)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("error creating output directory %w", err)
	}

	if opts.IsIdentity() && domain.FormatFromPath(inputPath) == domain.FormatFromPath(out) {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return "", fmt.Errorf("error reading filter input %w", err)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return "", fmt.Errorf("error writing filter output %w", err)
		}
		log.Debug().Str("output", out).Msg("identity filters, copied input")
		return out, nil
	}

	start := time.Now()
	img, err := Apply(src, opts)
	if err != nil {
		return "", err
	}

	if err := imaging.Save(img, out, imaging.JPEGQuality(e.jpegQuality)); err != nil {
		return "", fmt.Errorf("error encoding filtered image %w", err)
	}

	log.Debug().
		Str("output", out).
		Dur("took", time.Since(start)).
		Interface("options", opts).
		Msg("filters applied")

	return out, nil
}
