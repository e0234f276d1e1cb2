package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"restorebot/internal/core/domain"
	"restorebot/internal/core/port"
	"time"

	"github.com/rs/zerolog/log"
)

// Pipeline runs the enabled stages of a request in the fixed order colorize, face restore, upscale,
// filters, each stage reading the previous stage's output.
type Pipeline struct {
	colorize    port.Stage
	faceRestore port.Stage
	upscale     port.Stage
	filters     port.FilterEngine
}

func NewPipeline(colorize, faceRestore, upscale port.Stage, filters port.FilterEngine) *Pipeline {
	return &Pipeline{colorize: colorize, faceRestore: faceRestore, upscale: upscale, filters: filters}
}

// Stages lists the stages a request enables, in execution order.
func (p *Pipeline) Stages(req domain.ProcessingRequest) []port.Stage {
	var stages []port.Stage
	if req.Colorize {
		stages = append(stages, p.colorize)
	}
	if req.FaceRestore {
		stages = append(stages, p.faceRestore)
	}
	if req.Upscale {
		stages = append(stages, p.upscale)
	}
	if req.Filters != nil {
		stages = append(stages, &filterStage{engine: p.filters, opts: *req.Filters})
	}
	return stages
}

// Process writes the result of running req on sourcePath to destinationPath. The destination is only
// created once every stage succeeded; intermediate stage files are left next to it. The first stage error
// is returned unchanged.
func (p *Pipeline) Process(ctx context.Context, sourcePath, destinationPath string,
	req domain.ProcessingRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	l := log.With().Str("source", sourcePath).Str("destination", destinationPath).Logger()

	if err := os.MkdirAll(filepath.Dir(destinationPath), 0o755); err != nil {
		return fmt.Errorf("error creating destination directory %w", err)
	}

	result := domain.NewStageResult(sourcePath)
	for _, s := range p.Stages(req) {
		next, err := runStage(ctx, s, result, destinationPath)
		if err != nil {
			l.Error().Err(err).Str("stage", string(s.Capability())).Msg("stage failed, aborting pipeline")
			return err
		}
		result = next
	}

	if result.Path != destinationPath {
		if err := copyFile(result.Path, destinationPath); err != nil {
			return err
		}
	}

	l.Info().Str("artifact", result.Path).Msg("pipeline finished")

	return nil
}

func runStage(ctx context.Context, s port.Stage, input domain.StageResult,
	destinationPath string) (domain.StageResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.StageResult{}, err
	}

	output := domain.DerivePath(destinationPath, s.Capability())
	l := log.With().
		Str("stage", string(s.Capability())).
		Str("input", input.Path).
		Str("output", output).
		Logger()

	l.Debug().Msg("running stage")
	start := time.Now()

	res, err := s.Run(ctx, input, output)
	if err != nil {
		return domain.StageResult{}, err
	}

	l.Debug().Dur("took", time.Since(start)).Str("produced", res.Path).Msg("stage finished")

	return res, nil
}

type filterStage struct {
	engine port.FilterEngine
	opts   domain.FilterOptions
}

func (f *filterStage) Capability() domain.Capability {
	return domain.Filters
}

func (f *filterStage) Run(ctx context.Context, input domain.StageResult, outputPath string) (domain.StageResult,
	error) {
	written, err := f.engine.ApplyFile(ctx, input.Path, outputPath, f.opts)
	if err != nil {
		return domain.StageResult{}, err
	}
	return domain.NewStageResult(written), nil
}

// copyFile copies src byte for byte into a temp file next to dst and renames it into place, so dst
// never holds a partial artifact.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("error opening stage output %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".artifact-*")
	if err != nil {
		return fmt.Errorf("error creating temp artifact %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error copying artifact %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error writing artifact %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("error setting artifact permissions %w", err)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("error moving artifact into place %w", err)
	}

	return nil
}
