package command

import (
	"context"
	"restorebot/internal/core/domain"
	"restorebot/internal/core/service"
	"sync"
)

type MockTextSender struct {
	mu      sync.Mutex
	err     error
	Message string
	actions []domain.Action
}

func (m *MockTextSender) SendMessageReply(_ context.Context, _ *domain.Message, message string) (int, error) {
	m.Message = message
	return 0, m.err
}

func (m *MockTextSender) NotifyAndReturnError(_ context.Context, err error, _ *domain.Message) error {
	m.Message = err.Error()
	if m.err != nil {
		return m.err
	}
	return err
}

func (m *MockTextSender) SendChatAction(_ context.Context, _ int64, action domain.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, action)
}

type MockImageSender struct {
	called   bool
	filename string
	file     []byte
	caption  string
	err      error
}

func (m *MockImageSender) SendImageFileReply(_ context.Context, _ *domain.Message, filename string, file []byte,
	caption string) error {
	m.called = true
	m.filename = filename
	m.file = file
	m.caption = caption
	return m.err
}

type MockAuth struct {
	denied bool
}

func (m *MockAuth) IsAuthorized(_ context.Context, _ int64) bool {
	return !m.denied
}

type MockTracker struct {
	limited bool
	runs    int
	limit   int
}

func (m *MockTracker) GetRuns(_ int64) int {
	return m.runs
}

func (m *MockTracker) DailyLimit() int {
	return m.limit
}

func (m *MockTracker) AddRun(_ int64) {
	m.runs++
}

func (m *MockTracker) CheckLimit(_ context.Context, _ int64) bool {
	return !m.limited
}

type MockRestorer struct {
	uploaded   []byte
	uploadName string
	uploadErr  error
	restoreErr error
	imageID    int64
	req        domain.ProcessingRequest
	result     *service.RestoreResult
}

func (m *MockRestorer) Upload(_ context.Context, ownerID int64, name string, data []byte) (*domain.Image, error) {
	m.uploaded = data
	m.uploadName = name
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	return &domain.Image{ID: 77, OwnerID: ownerID, OriginalName: name}, nil
}

func (m *MockRestorer) Restore(_ context.Context, _, imageID int64, req domain.ProcessingRequest) (*service.RestoreResult,
	error) {
	m.imageID = imageID
	m.req = req
	if m.restoreErr != nil {
		return nil, m.restoreErr
	}
	if m.result != nil {
		return m.result, nil
	}
	return &service.RestoreResult{ImageID: imageID, Version: 2, Path: "/p/1_2_x.png",
		Info: domain.ImageInfo{Format: "png", Width: 800, Height: 600}}, nil
}

type MockDownloader struct {
	data []byte
	err  error
	url  string
}

func (m *MockDownloader) Download(_ context.Context, url string) ([]byte, error) {
	m.url = url
	return m.data, m.err
}

type MockStorage struct {
	files   map[string][]byte
	readErr error
}

func (m *MockStorage) SaveUpload(_ int64, _ string, _ []byte) (string, error) {
	return "", nil
}

func (m *MockStorage) ProcessedPath(_, _ int64, _ int, _ string) (string, error) {
	return "", nil
}

func (m *MockStorage) Probe(_ string) (domain.ImageInfo, error) {
	return domain.ImageInfo{}, nil
}

func (m *MockStorage) Read(path string) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.files[path], nil
}

func (m *MockStorage) Remove(_ string) {}

type MockLedger struct {
	images   []domain.Image
	versions map[int64][]domain.VersionRecord
	err      error
}

func (m *MockLedger) CreateImage(_ context.Context, _ int64, _, _ string) (*domain.Image, error) {
	return nil, nil
}

func (m *MockLedger) GetImage(_ context.Context, ownerID, imageID int64) (*domain.Image, error) {
	for _, img := range m.images {
		if img.ID == imageID && img.OwnerID == ownerID {
			return &img, nil
		}
	}
	return nil, domain.ErrImageNotFound
}

func (m *MockLedger) ListImages(_ context.Context, ownerID int64) ([]domain.Image, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Image
	for _, img := range m.images {
		if img.OwnerID == ownerID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (m *MockLedger) AllocateNextVersion(_ context.Context, imageID int64) (domain.Reservation, error) {
	return domain.Reservation{ImageID: imageID}, nil
}

func (m *MockLedger) RecordVersion(_ context.Context, _ domain.Reservation, _, _ string) error {
	return nil
}

func (m *MockLedger) ReleaseVersion(_ domain.Reservation) {}

func (m *MockLedger) ListVersions(_ context.Context, imageID int64) ([]domain.VersionRecord, error) {
	return m.versions[imageID], nil
}

func (m *MockLedger) GetVersion(_ context.Context, imageID int64, version int) (*domain.VersionRecord, error) {
	for _, v := range m.versions[imageID] {
		if v.Version == version {
			return &v, nil
		}
	}
	return nil, domain.ErrVersionNotFound
}
