package service

import (
	"context"
	"restorebot/internal/core/domain"
	"restorebot/internal/core/port"

	"github.com/rs/zerolog/log"
)

// Processor runs a processing request from one file to another.
type Processor interface {
	Process(ctx context.Context, sourcePath, destinationPath string, req domain.ProcessingRequest) error
}

// Restorer ties uploads and pipeline runs to the version ledger.
type Restorer struct {
	ledger    port.Ledger
	storage   port.Storage
	processor Processor
	pool      *WorkerPool
}

// RestoreResult describes the version a successful run recorded.
type RestoreResult struct {
	ImageID int64
	Version int
	Path    string
	Info    domain.ImageInfo
}

func NewRestorer(ledger port.Ledger, storage port.Storage, processor Processor, pool *WorkerPool) *Restorer {
	return &Restorer{ledger: ledger, storage: storage, processor: processor, pool: pool}
}

// Upload stores data as a new image of ownerID. Files that are not decodable images are rejected.
func (r *Restorer) Upload(ctx context.Context, ownerID int64, name string, data []byte) (*domain.Image, error) {
	path, err := r.storage.SaveUpload(ownerID, name, data)
	if err != nil {
		return nil, err
	}

	info, err := r.storage.Probe(path)
	if err != nil {
		r.storage.Remove(path)
		return nil, err
	}

	img, err := r.ledger.CreateImage(ctx, ownerID, name, path)
	if err != nil {
		r.storage.Remove(path)
		return nil, err
	}

	log.Info().
		Int64("imageId", img.ID).
		Int64("ownerId", ownerID).
		Str("format", info.Format).
		Int("width", info.Width).
		Int("height", info.Height).
		Msg("stored upload")

	return img, nil
}

// Restore runs req on the current artifact of an image and records the result as its next version.
// Pipeline errors are returned unchanged and leave the image as it was.
func (r *Restorer) Restore(ctx context.Context, ownerID, imageID int64,
	req domain.ProcessingRequest) (*RestoreResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := r.ledger.GetImage(ctx, ownerID, imageID); err != nil {
		return nil, err
	}

	var result *RestoreResult
	err := r.pool.Do(ctx, func(ctx context.Context) error {
		res, err := r.run(ctx, ownerID, imageID, req)
		result = res
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *Restorer) run(ctx context.Context, ownerID, imageID int64,
	req domain.ProcessingRequest) (*RestoreResult, error) {
	reservation, err := r.ledger.AllocateNextVersion(ctx, imageID)
	if err != nil {
		return nil, err
	}
	version := reservation.Version

	recorded := false
	defer func() {
		if !recorded {
			r.ledger.ReleaseVersion(reservation)
		}
	}()

	// re-read under the allocation lock so runs on the same image chain on each other's output
	img, err := r.ledger.GetImage(ctx, ownerID, imageID)
	if err != nil {
		return nil, err
	}

	destination, err := r.storage.ProcessedPath(ownerID, imageID, version, domain.ArtifactExtension(img.CurrentPath))
	if err != nil {
		return nil, err
	}

	l := log.With().Int64("imageId", imageID).Int("version", version).Str("operations", req.Operations()).Logger()
	l.Info().Msg("starting restore")

	if err := r.processor.Process(ctx, img.CurrentPath, destination, req); err != nil {
		l.Error().Err(err).Msg("restore failed")
		return nil, err
	}

	if err := r.ledger.RecordVersion(ctx, reservation, destination, req.Operations()); err != nil {
		return nil, err
	}
	recorded = true

	info, err := r.storage.Probe(destination)
	if err != nil {
		l.Warn().Err(err).Msg("could not probe artifact")
	}

	l.Info().Str("path", destination).Msg("recorded version")

	return &RestoreResult{ImageID: imageID, Version: version, Path: destination, Info: info}, nil
}
