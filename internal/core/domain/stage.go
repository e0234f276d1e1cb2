package domain

import (
	"path/filepath"
	"strings"
)

// Capability names a pipeline stage.
type Capability string

const (
	Colorize       Capability = "colorize"
	FaceRestore    Capability = "face restore"
	FaceBackground Capability = "face background"
	Upscale        Capability = "upscale"
	Filters        Capability = "filters"
)

// Suffix is appended to the destination stem to name the stage's output file.
func (c Capability) Suffix() string {
	switch c {
	case Colorize:
		return "_colorized"
	case FaceRestore:
		return "_face"
	case FaceBackground:
		return "_background"
	case Upscale:
		return "_upscaled"
	case Filters:
		return "_filtered"
	default:
		return "_" + strings.ReplaceAll(string(c), " ", "_")
	}
}

// StageResult is the file produced by one stage of a pipeline run.
type StageResult struct {
	Path   string
	Format string
}

// NewStageResult derives the format from the file extension.
func NewStageResult(path string) StageResult {
	return StageResult{Path: path, Format: FormatFromPath(path)}
}

// FormatFromPath returns the lower-case extension without the dot, "jpg" is reported as "jpeg".
func FormatFromPath(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	default:
		return ext
	}
}

// DerivePath names a sibling of destination carrying the stage suffix and the destination's extension.
func DerivePath(destination string, c Capability) string {
	ext := filepath.Ext(destination)
	stem := strings.TrimSuffix(destination, ext)
	return stem + c.Suffix() + ext
}

// ArtifactExtension returns the extension a processed artifact of path is written with. Formats that
// cannot be re-encoded in-process fall back to .png.
func ArtifactExtension(path string) string {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".gif":
		return ext
	default:
		return ".png"
	}
}
