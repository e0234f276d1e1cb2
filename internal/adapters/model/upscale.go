package model

import (
	"context"
	"image"
	"restorebot/internal/adapters/stage"
	"time"

	"github.com/rs/zerolog/log"
)

// Upscaler runs a super-resolution network that takes RGB in [0,1] at the source resolution.
type Upscaler struct {
	net *onnxNet
}

func NewUpscaler(path string) (*Upscaler, error) {
	net, err := loadNet(path, unitRange)
	if err != nil {
		return nil, err
	}
	return &Upscaler{net: net}, nil
}

// LoadUpscaler adapts NewUpscaler to a stage.ModelLoader.
func LoadUpscaler(path string) (stage.Model, error) {
	return NewUpscaler(path)
}

func (u *Upscaler) Enhance(ctx context.Context, inputPath, outputPath string) error {
	src, err := open(inputPath)
	if err != nil {
		return err
	}

	start := time.Now()
	b := src.Bounds()
	out, err := u.net.infer(ctx, src, image.Pt(b.Dx(), b.Dy()))
	if err != nil {
		return err
	}

	log.Debug().
		Str("input", inputPath).
		Int("width", out.Bounds().Dx()).
		Int("height", out.Bounds().Dy()).
		Dur("took", time.Since(start)).
		Msg("upscaled image")

	return save(out, outputPath)
}
