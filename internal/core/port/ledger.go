package port

import (
	"context"
	"restorebot/internal/core/domain"
)

// Ledger persists images and their version lineage.
type Ledger interface {
	CreateImage(ctx context.Context, ownerID int64, name, path string) (*domain.Image, error)
	GetImage(ctx context.Context, ownerID, imageID int64) (*domain.Image, error)
	ListImages(ctx context.Context, ownerID int64) ([]domain.Image, error)
	// AllocateNextVersion reserves the next version number of an image. The reservation must be
	// completed with RecordVersion or given back with ReleaseVersion.
	AllocateNextVersion(ctx context.Context, imageID int64) (domain.Reservation, error)
	RecordVersion(ctx context.Context, res domain.Reservation, path, operations string) error
	// ReleaseVersion is a no-op for reservations that were already recorded or released.
	ReleaseVersion(res domain.Reservation)
	ListVersions(ctx context.Context, imageID int64) ([]domain.VersionRecord, error)
	GetVersion(ctx context.Context, imageID int64, version int) (*domain.VersionRecord, error)
}

// Storage places uploads and processed artifacts on disk.
type Storage interface {
	SaveUpload(ownerID int64, name string, data []byte) (string, error)
	ProcessedPath(ownerID, imageID int64, version int, ext string) (string, error)
	Probe(path string) (domain.ImageInfo, error)
	Read(path string) ([]byte, error)
	Remove(path string)
}

// Downloader fetches remote files.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}
