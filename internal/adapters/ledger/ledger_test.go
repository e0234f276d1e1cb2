package ledger

import (
	"context"
	"fmt"
	"path/filepath"
	"restorebot/internal/core/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLedger(t *testing.T) *Ledger {
	t.Helper()

	l, err := Open(filepath.Join(t.TempDir(), "db", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	return l
}

func TestCreateImage(t *testing.T) {
	l := openLedger(t)
	ctx := t.Context()

	img, err := l.CreateImage(ctx, 10, "cat.jpg", "/s/uploads/10/a.jpg")
	require.NoError(t, err)
	assert.NotZero(t, img.ID)
	assert.Equal(t, "/s/uploads/10/a.jpg", img.CurrentPath)
	assert.Equal(t, img.OriginalPath, img.CurrentPath)

	got, err := l.GetImage(ctx, 10, img.ID)
	require.NoError(t, err)
	assert.Equal(t, "cat.jpg", got.OriginalName)

	versions, err := l.ListVersions(ctx, img.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].Version)
	assert.JSONEq(t, domain.UploadOperations, versions[0].Operations)
}

func TestGetImageScopedToOwner(t *testing.T) {
	l := openLedger(t)
	ctx := t.Context()

	img, err := l.CreateImage(ctx, 10, "cat.jpg", "/a.jpg")
	require.NoError(t, err)

	_, err = l.GetImage(ctx, 11, img.ID)
	assert.ErrorIs(t, err, domain.ErrImageNotFound)

	_, err = l.GetImage(ctx, 10, img.ID+100)
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
}

func TestRecordVersionMovesCurrentArtifact(t *testing.T) {
	l := openLedger(t)
	ctx := t.Context()

	img, err := l.CreateImage(ctx, 1, "cat.jpg", "/a.jpg")
	require.NoError(t, err)

	for want := 2; want <= 4; want++ {
		res, err := l.AllocateNextVersion(ctx, img.ID)
		require.NoError(t, err)
		assert.Equal(t, want, res.Version)

		path := fmt.Sprintf("/p/%d.jpg", res.Version)
		require.NoError(t, l.RecordVersion(ctx, res, path, `{"upscale":true}`))

		got, err := l.GetImage(ctx, 1, img.ID)
		require.NoError(t, err)
		assert.Equal(t, path, got.CurrentPath)
	}

	versions, err := l.ListVersions(ctx, img.ID)
	require.NoError(t, err)
	require.Len(t, versions, 4)
	for i, v := range versions {
		assert.Equal(t, i+1, v.Version)
	}

	latest, err := l.GetVersion(ctx, img.ID, 4)
	require.NoError(t, err)
	assert.JSONEq(t, `{"upscale":true}`, latest.Operations)

	_, err = l.GetVersion(ctx, img.ID, 9)
	assert.ErrorIs(t, err, domain.ErrVersionNotFound)
}

func TestReleaseVersionReusesNumber(t *testing.T) {
	l := openLedger(t)
	ctx := t.Context()

	img, err := l.CreateImage(ctx, 1, "cat.jpg", "/a.jpg")
	require.NoError(t, err)

	res, err := l.AllocateNextVersion(ctx, img.ID)
	require.NoError(t, err)
	l.ReleaseVersion(res)

	again, err := l.AllocateNextVersion(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Version, again.Version)
	l.ReleaseVersion(again)

	got, err := l.GetImage(ctx, 1, img.ID)
	require.NoError(t, err)
	assert.Equal(t, "/a.jpg", got.CurrentPath)
}

func TestStaleReleaseKeepsNewerReservation(t *testing.T) {
	l := openLedger(t)
	ctx := t.Context()

	img, err := l.CreateImage(ctx, 1, "cat.jpg", "/a.jpg")
	require.NoError(t, err)

	stale, err := l.AllocateNextVersion(ctx, img.ID)
	require.NoError(t, err)
	l.ReleaseVersion(stale)

	current, err := l.AllocateNextVersion(ctx, img.ID)
	require.NoError(t, err)
	require.Equal(t, stale.Version, current.Version)
	require.NotEqual(t, stale.Token, current.Token)

	// a late release of the old allocation must not unlock the current holder
	l.ReleaseVersion(stale)

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = l.AllocateNextVersion(waitCtx, img.ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Error(t, l.RecordVersion(ctx, stale, "/stale.jpg", `{}`))
	require.NoError(t, l.RecordVersion(ctx, current, "/b.jpg", `{}`))

	versions, err := l.ListVersions(ctx, img.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "/b.jpg", versions[1].Path)
}

func TestAllocateUnknownImage(t *testing.T) {
	l := openLedger(t)

	_, err := l.AllocateNextVersion(t.Context(), 999)
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
}

func TestAllocateSerializesWriters(t *testing.T) {
	l := openLedger(t)
	ctx := t.Context()

	img, err := l.CreateImage(ctx, 1, "cat.jpg", "/a.jpg")
	require.NoError(t, err)

	first, err := l.AllocateNextVersion(ctx, img.ID)
	require.NoError(t, err)

	second := make(chan domain.Reservation, 1)
	go func() {
		v, err := l.AllocateNextVersion(ctx, img.ID)
		assert.NoError(t, err)
		second <- v
	}()

	select {
	case <-second:
		t.Fatal("second allocation must wait for the first to finish")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, l.RecordVersion(ctx, first, "/b.jpg", `{}`))

	select {
	case v := <-second:
		assert.Equal(t, first.Version+1, v.Version)
		l.ReleaseVersion(v)
	case <-time.After(5 * time.Second):
		t.Fatal("second allocation never proceeded")
	}
}

func TestAllocateHonorsContext(t *testing.T) {
	l := openLedger(t)

	img, err := l.CreateImage(t.Context(), 1, "cat.jpg", "/a.jpg")
	require.NoError(t, err)

	res, err := l.AllocateNextVersion(t.Context(), img.ID)
	require.NoError(t, err)
	defer l.ReleaseVersion(res)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	_, err = l.AllocateNextVersion(ctx, img.ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestListImagesNewestFirst(t *testing.T) {
	l := openLedger(t)
	ctx := t.Context()

	a, err := l.CreateImage(ctx, 1, "a.jpg", "/a.jpg")
	require.NoError(t, err)
	b, err := l.CreateImage(ctx, 1, "b.jpg", "/b.jpg")
	require.NoError(t, err)
	_, err = l.CreateImage(ctx, 2, "other.jpg", "/o.jpg")
	require.NoError(t, err)

	images, err := l.ListImages(ctx, 1)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, b.ID, images[0].ID)

	time.Sleep(10 * time.Millisecond)
	res, err := l.AllocateNextVersion(ctx, a.ID)
	require.NoError(t, err)
	require.NoError(t, l.RecordVersion(ctx, res, "/a2.jpg", `{}`))

	images, err = l.ListImages(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, a.ID, images[0].ID)
}
