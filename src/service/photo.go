package service

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"github.com/xerikson-cyber/Sirij-BOT/src/models"

	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	minPhotoDimension = 100
	maxPhotoDimension = 1920
	jpegQuality       = 85
)

// PhotoRejectedError reports a photo that failed validation. Reason is
// user-facing Spanish text.
type PhotoRejectedError struct {
	Reason string
}

func (e *PhotoRejectedError) Error() string { return "photo rejected: " + e.Reason }

func (e *PhotoRejectedError) Unwrap() error { return models.ErrPhotoRejected }

func rejected(reason string) error { return &PhotoRejectedError{Reason: reason} }

// PhotoService validates evidence photos and writes them under the
// storage root, one subdirectory per month.
type PhotoService struct {
	storagePath string
	maxBytes    int64
	now         func() time.Time
	log         *logrus.Logger
}

// NewPhotoService builds a PhotoService rooted at storagePath.
func NewPhotoService(storagePath string, maxSizeMB int, log *logrus.Logger) *PhotoService {
	return &PhotoService{
		storagePath: storagePath,
		maxBytes:    int64(maxSizeMB) * 1024 * 1024,
		now:         time.Now,
		log:         log,
	}
}

// Store validates the image payload and persists it, returning the
// storage-relative reference. Oversized images are downscaled; any
// validation failure comes back as *PhotoRejectedError.
func (s *PhotoService) Store(payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", rejected("la imagen está vacía")
	}
	if int64(len(payload)) > s.maxBytes {
		return "", rejected(fmt.Sprintf("la imagen excede el tamaño máximo de %d MB",
			s.maxBytes/(1024*1024)))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		return "", rejected("formato de imagen no reconocido; envía JPEG, PNG o WEBP")
	}
	switch format {
	case "jpeg", "png", "webp":
	default:
		return "", rejected("formato de imagen no soportado; envía JPEG, PNG o WEBP")
	}
	if cfg.Width < minPhotoDimension || cfg.Height < minPhotoDimension {
		return "", rejected(fmt.Sprintf("la imagen es demasiado pequeña; mínimo %dx%d píxeles",
			minPhotoDimension, minPhotoDimension))
	}

	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	if cfg.Width > maxPhotoDimension || cfg.Height > maxPhotoDimension {
		payload, err = s.downscale(payload)
		if err != nil {
			return "", fmt.Errorf("resizing photo: %w", err)
		}
		ext = "jpg"
	}

	now := s.now()
	dir := now.Format("2006-01")
	sum := md5.Sum(payload)
	name := fmt.Sprintf("%s_%s.%s", hex.EncodeToString(sum[:])[:8], now.Format("20060102_150405"), ext)
	ref := filepath.Join(dir, name)

	absDir := filepath.Join(s.storagePath, dir)
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("creating photo directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(absDir, name), payload, 0o644); err != nil {
		return "", fmt.Errorf("writing photo: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"ref":   ref,
		"bytes": len(payload),
	}).Info("photo stored")
	return ref, nil
}

// downscale re-encodes the image as JPEG with the longest side capped
// at maxPhotoDimension, preserving aspect ratio.
func (s *PhotoService) downscale(payload []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("decoding photo: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w >= h {
		h = h * maxPhotoDimension / w
		w = maxPhotoDimension
	} else {
		w = w * maxPhotoDimension / h
		h = maxPhotoDimension
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding photo: %w", err)
	}
	return buf.Bytes(), nil
}

// Delete removes a stored photo by reference. Missing files are not an
// error.
func (s *PhotoService) Delete(ref string) error {
	err := os.Remove(filepath.Join(s.storagePath, ref))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting photo: %w", err)
	}
	return nil
}

// CleanupOld removes photos older than the retention window and prunes
// emptied month directories. Returns the number of files removed.
func (s *PhotoService) CleanupOld(retention time.Duration) (int, error) {
	cutoff := s.now().Add(-retention)
	removed := 0

	entries, err := os.ReadDir(s.storagePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading photo storage: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(s.storagePath, entry.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			s.log.WithError(err).WithField("dir", dir).Warn("skipping unreadable photo directory")
			continue
		}
		remaining := 0
		for _, f := range files {
			info, err := f.Info()
			if err != nil {
				remaining++
				continue
			}
			if info.ModTime().Before(cutoff) {
				if err := os.Remove(filepath.Join(dir, f.Name())); err != nil {
					s.log.WithError(err).WithField("file", f.Name()).Warn("failed to remove old photo")
					remaining++
					continue
				}
				removed++
			} else {
				remaining++
			}
		}
		if remaining == 0 {
			_ = os.Remove(dir)
		}
	}

	return removed, nil
}
