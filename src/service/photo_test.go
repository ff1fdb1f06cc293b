package service

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xerikson-cyber/Sirij-BOT/src/models"
)

func testPhotoService(t *testing.T) *PhotoService {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	svc := NewPhotoService(t.TempDir(), 10, log)
	svc.now = func() time.Time {
		return time.Date(2025, time.March, 15, 9, 30, 0, 0, time.UTC)
	}
	return svc
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPhotoStore_ValidImage(t *testing.T) {
	svc := testPhotoService(t)

	ref, err := svc.Store(encodePNG(t, 640, 480))
	require.NoError(t, err)

	assert.Equal(t, "2025-03", filepath.Dir(ref))
	_, err = os.Stat(filepath.Join(svc.storagePath, ref))
	assert.NoError(t, err, "the stored file must exist on disk")
}

func TestPhotoStore_EmptyPayload(t *testing.T) {
	svc := testPhotoService(t)

	_, err := svc.Store(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrPhotoRejected)
}

func TestPhotoStore_OversizedPayload(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := NewPhotoService(t.TempDir(), 1, log)

	_, err := svc.Store(make([]byte, 2*1024*1024))
	require.Error(t, err)

	var rejected *PhotoRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Reason, "tamaño máximo")
}

func TestPhotoStore_UnrecognizedFormat(t *testing.T) {
	svc := testPhotoService(t)

	_, err := svc.Store([]byte("definitely not an image"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrPhotoRejected)
}

func TestPhotoStore_TooSmall(t *testing.T) {
	svc := testPhotoService(t)

	_, err := svc.Store(encodePNG(t, 99, 99))
	require.Error(t, err)

	var rejected *PhotoRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Reason, "demasiado pequeña")
}

func TestPhotoStore_DownscalesLargeImages(t *testing.T) {
	svc := testPhotoService(t)

	ref, err := svc.Store(encodePNG(t, 3000, 600))
	require.NoError(t, err)

	stored, err := os.ReadFile(filepath.Join(svc.storagePath, ref))
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(stored))
	require.NoError(t, err, "downscaled output must be JPEG")
	assert.Equal(t, 1920, cfg.Width)
	assert.Equal(t, 384, cfg.Height, "aspect ratio must be preserved")
}

func TestPhotoStore_RejectionUnwrapsToSentinel(t *testing.T) {
	err := error(&PhotoRejectedError{Reason: "x"})
	assert.True(t, errors.Is(err, models.ErrPhotoRejected))
}

func TestPhotoDelete_MissingFileIsNoError(t *testing.T) {
	svc := testPhotoService(t)
	assert.NoError(t, svc.Delete("2025-03/nothing.jpg"))
}

func TestPhotoCleanupOld_RemovesExpiredAndPrunesDirs(t *testing.T) {
	svc := testPhotoService(t)

	ref, err := svc.Store(encodePNG(t, 200, 200))
	require.NoError(t, err)

	// Age the file beyond the retention window.
	old := time.Now().Add(-48 * time.Hour)
	full := filepath.Join(svc.storagePath, ref)
	require.NoError(t, os.Chtimes(full, old, old))

	svc.now = time.Now
	removed, err := svc.CleanupOld(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(full)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Dir(full))
	assert.True(t, os.IsNotExist(err), "the emptied month directory must be pruned")
}

func TestPhotoCleanupOld_KeepsFreshFiles(t *testing.T) {
	svc := testPhotoService(t)

	ref, err := svc.Store(encodePNG(t, 200, 200))
	require.NoError(t, err)

	svc.now = time.Now
	removed, err := svc.CleanupOld(24 * time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = os.Stat(filepath.Join(svc.storagePath, ref))
	assert.NoError(t, err)
}
