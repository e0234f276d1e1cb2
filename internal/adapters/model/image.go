package model

import (
	"fmt"
	"image"
	"math"
	"path/filepath"
	"restorebot/internal/core/domain"
	"strings"

	"github.com/disintegration/imaging"
)

const faceMargin = 0.25

// tensorToImage converts a planar RGB float tensor of width w and height h into an opaque image.
func tensorToImage(data []float32, w, h int, norm normalization) (*image.NRGBA, error) {
	plane := w * h
	if w <= 0 || h <= 0 || len(data) < 3*plane {
		return nil, fmt.Errorf("tensor of %d values does not hold a %dx%d RGB image", len(data), w, h)
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < plane; i++ {
		img.Pix[i*4] = toByte(norm.denormalize(data[i]))
		img.Pix[i*4+1] = toByte(norm.denormalize(data[plane+i]))
		img.Pix[i*4+2] = toByte(norm.denormalize(data[2*plane+i]))
		img.Pix[i*4+3] = 255
	}

	return img, nil
}

func toByte(v float32) uint8 {
	r := math.Round(float64(v))
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return uint8(r)
}

// expandBox grows a detection by faceMargin on every side, clipped to bounds.
func expandBox(box, bounds image.Rectangle) image.Rectangle {
	dx := int(float64(box.Dx()) * faceMargin)
	dy := int(float64(box.Dy()) * faceMargin)
	return image.Rect(box.Min.X-dx, box.Min.Y-dy, box.Max.X+dx, box.Max.Y+dy).Intersect(bounds)
}

func open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &domain.DecodeError{Path: path, Err: err}
	}
	return img, nil
}

func save(img image.Image, path string) error {
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("cannot encode %s output: %w", strings.TrimPrefix(filepath.Ext(path), "."), err)
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("error writing %s %w", path, err)
	}
	return nil
}
