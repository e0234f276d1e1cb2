package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"restorebot/internal/core/domain"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Ledger keeps images and their versions in SQLite. Version allocation takes a per-image lock that is
// held until the version is recorded or released.
type Ledger struct {
	db *gorm.DB

	mu        sync.Mutex
	locks     map[int64]chan struct{}
	reserved  map[int64]uint64
	lastToken uint64
}

// Open creates or migrates the database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&imageRow{}, &versionRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Debug().Str("path", path).Msg("opened ledger")

	return &Ledger{
		db:       db,
		locks:    make(map[int64]chan struct{}),
		reserved: make(map[int64]uint64),
	}, nil
}

func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateImage stores a new image together with its first version.
func (l *Ledger) CreateImage(ctx context.Context, ownerID int64, name, path string) (*domain.Image, error) {
	row := &imageRow{OwnerID: ownerID, OriginalName: name, OriginalPath: path, CurrentPath: path}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return tx.Create(&versionRow{
			ImageID:    row.ID,
			Version:    1,
			Path:       path,
			Operations: datatypes.JSON(domain.UploadOperations),
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image: %w", err)
	}

	return row.toDomain(), nil
}

func (l *Ledger) GetImage(ctx context.Context, ownerID, imageID int64) (*domain.Image, error) {
	var row imageRow
	err := l.db.WithContext(ctx).Where("id = ? AND owner_id = ?", imageID, ownerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find image: %w", err)
	}

	return row.toDomain(), nil
}

// ListImages returns an owner's images, most recently updated first.
func (l *Ledger) ListImages(ctx context.Context, ownerID int64) ([]domain.Image, error) {
	var rows []imageRow
	err := l.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	images := make([]domain.Image, len(rows))
	for i := range rows {
		images[i] = *rows[i].toDomain()
	}
	return images, nil
}

func (l *Ledger) AllocateNextVersion(ctx context.Context, imageID int64) (domain.Reservation, error) {
	var count int64
	if err := l.db.WithContext(ctx).Model(&imageRow{}).Where("id = ?", imageID).Count(&count).Error; err != nil {
		return domain.Reservation{}, fmt.Errorf("failed to find image: %w", err)
	}
	if count == 0 {
		return domain.Reservation{}, domain.ErrImageNotFound
	}

	lock := l.lockFor(imageID)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return domain.Reservation{}, ctx.Err()
	}

	var latest int
	err := l.db.WithContext(ctx).Model(&versionRow{}).
		Where("image_id = ?", imageID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&latest).Error
	if err != nil {
		<-lock
		return domain.Reservation{}, fmt.Errorf("failed to read latest version: %w", err)
	}

	l.mu.Lock()
	l.lastToken++
	res := domain.Reservation{ImageID: imageID, Version: latest + 1, Token: l.lastToken}
	l.reserved[imageID] = res.Token
	l.mu.Unlock()

	log.Debug().Int64("imageId", imageID).Int("version", res.Version).Msg("allocated version")

	return res, nil
}

// RecordVersion stores a version and points the image at it. The allocation lock is released either way.
func (l *Ledger) RecordVersion(ctx context.Context, res domain.Reservation, path, operations string) error {
	defer l.ReleaseVersion(res)

	if !l.holds(res) {
		return fmt.Errorf("version %d of image %d is not reserved", res.Version, res.ImageID)
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Create(&versionRow{
			ImageID:    res.ImageID,
			Version:    res.Version,
			Path:       path,
			Operations: datatypes.JSON(operations),
		}).Error
		if err != nil {
			return err
		}

		update := tx.Model(&imageRow{}).Where("id = ?", res.ImageID).Updates(map[string]any{
			"current_path": path,
			"updated_at":   time.Now(),
		})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return domain.ErrImageNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record version %d: %w", res.Version, err)
	}

	return nil
}

// ReleaseVersion gives back a reservation made by AllocateNextVersion. Reservations that were already
// recorded or released are ignored, even when the same version number was handed out again since.
func (l *Ledger) ReleaseVersion(res domain.Reservation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if res.Token == 0 || l.reserved[res.ImageID] != res.Token {
		return
	}
	delete(l.reserved, res.ImageID)
	<-l.locks[res.ImageID]
}

func (l *Ledger) holds(res domain.Reservation) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return res.Token != 0 && l.reserved[res.ImageID] == res.Token
}

func (l *Ledger) ListVersions(ctx context.Context, imageID int64) ([]domain.VersionRecord, error) {
	var rows []versionRow
	if err := l.db.WithContext(ctx).Where("image_id = ?", imageID).Order("version ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}

	versions := make([]domain.VersionRecord, len(rows))
	for i := range rows {
		versions[i] = rows[i].toDomain()
	}
	return versions, nil
}

func (l *Ledger) GetVersion(ctx context.Context, imageID int64, version int) (*domain.VersionRecord, error) {
	var row versionRow
	err := l.db.WithContext(ctx).Where("image_id = ? AND version = ?", imageID, version).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrVersionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find version: %w", err)
	}

	v := row.toDomain()
	return &v, nil
}

func (l *Ledger) lockFor(imageID int64) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[imageID]
	if !ok {
		lock = make(chan struct{}, 1)
		l.locks[imageID] = lock
	}
	return lock
}
