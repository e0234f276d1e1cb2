package model

import (
	"context"
	"fmt"
	"image"
	"os"
	"restorebot/internal/adapters/stage"
	"restorebot/internal/core/domain"
	"restorebot/internal/core/port"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
)

const faceSize = 512

// FaceRestorer restores faces on top of an upsampled background. The background comes from another
// provider, faces are found with an optional Haar cascade.
type FaceRestorer struct {
	net        *onnxNet
	background port.Provider

	detectorMu sync.Mutex
	detector   *gocv.CascadeClassifier
}

func NewFaceRestorer(path string, detectorPath *string, background port.Provider) (*FaceRestorer, error) {
	net, err := loadNet(path, signedRange)
	if err != nil {
		return nil, err
	}

	f := &FaceRestorer{net: net, background: background}

	if detectorPath != nil {
		if _, err := os.Stat(*detectorPath); err != nil {
			return nil, fmt.Errorf("face detector %w", err)
		}
		classifier := gocv.NewCascadeClassifier()
		if !classifier.Load(*detectorPath) {
			return nil, fmt.Errorf("could not load face detector from %s", *detectorPath)
		}
		f.detector = &classifier
	}

	return f, nil
}

// FaceLoader returns a stage.FaceLoader that uses the cascade at detectorPath, if any.
func FaceLoader(detectorPath *string) stage.FaceLoader {
	return func(path string, background port.Provider) (stage.Model, error) {
		return NewFaceRestorer(path, detectorPath, background)
	}
}

func (f *FaceRestorer) Enhance(ctx context.Context, inputPath, outputPath string) error {
	src, err := open(inputPath)
	if err != nil {
		return err
	}
	bounds := src.Bounds()

	backgroundPath := domain.DerivePath(outputPath, domain.FaceBackground)
	if err := f.background.Run(ctx, inputPath, backgroundPath); err != nil {
		return err
	}

	bg, err := open(backgroundPath)
	if err != nil {
		return err
	}
	canvas := imaging.Resize(bg, bounds.Dx(), bounds.Dy(), imaging.Lanczos)

	faces, err := f.faces(src)
	if err != nil {
		return err
	}

	l := log.With().Str("input", inputPath).Logger()
	l.Debug().Int("faces", len(faces)).Msg("restoring faces")

	for _, box := range faces {
		crop := imaging.Crop(src, box)
		aligned := imaging.Resize(crop, faceSize, faceSize, imaging.Lanczos)

		restored, err := f.net.infer(ctx, aligned, image.Pt(faceSize, faceSize))
		if err != nil {
			return err
		}

		placed := imaging.Resize(restored, box.Dx(), box.Dy(), imaging.Lanczos)
		canvas = imaging.Paste(canvas, placed, box.Min.Sub(bounds.Min))
	}

	return save(canvas, outputPath)
}

// faces returns the face regions of img, or the whole frame when no detector is configured.
func (f *FaceRestorer) faces(img image.Image) ([]image.Rectangle, error) {
	bounds := img.Bounds()
	if f.detector == nil {
		return []image.Rectangle{bounds}, nil
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("error converting image %w", err)
	}
	defer mat.Close()

	f.detectorMu.Lock()
	found := f.detector.DetectMultiScale(mat)
	f.detectorMu.Unlock()

	boxes := make([]image.Rectangle, 0, len(found))
	for _, r := range found {
		box := expandBox(r.Add(bounds.Min), bounds)
		if !box.Empty() {
			boxes = append(boxes, box)
		}
	}
	return boxes, nil
}
