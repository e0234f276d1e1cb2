package ledger

import (
	"restorebot/internal/core/domain"
	"time"

	"gorm.io/datatypes"
)

type imageRow struct {
	ID           int64  `gorm:"primaryKey"`
	OwnerID      int64  `gorm:"index;not null"`
	OriginalName string `gorm:"not null"`
	OriginalPath string `gorm:"not null"`
	CurrentPath  string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (imageRow) TableName() string {
	return "images"
}

func (r *imageRow) toDomain() *domain.Image {
	return &domain.Image{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		OriginalName: r.OriginalName,
		OriginalPath: r.OriginalPath,
		CurrentPath:  r.CurrentPath,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type versionRow struct {
	ID         int64          `gorm:"primaryKey"`
	ImageID    int64          `gorm:"not null;uniqueIndex:idx_image_version"`
	Version    int            `gorm:"not null;uniqueIndex:idx_image_version"`
	Path       string         `gorm:"not null"`
	Operations datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time
}

func (versionRow) TableName() string {
	return "image_versions"
}

func (r *versionRow) toDomain() domain.VersionRecord {
	return domain.VersionRecord{
		ImageID:    r.ImageID,
		Version:    r.Version,
		Path:       r.Path,
		Operations: string(r.Operations),
		CreatedAt:  r.CreatedAt,
	}
}
