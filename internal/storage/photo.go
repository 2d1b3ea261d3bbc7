// Package storage keeps uploaded profile photos on the local filesystem.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

var (
	ErrUnsupportedType = errors.New("only .jpg, .jpeg, .png files are allowed")
	ErrTooLarge        = errors.New("file exceeds the upload size limit")
	ErrInvalidImage    = errors.New("invalid image file")
)

var allowedExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// Photo describes a stored upload.
type Photo struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// PhotoStore validates images and writes them under dir. Images wider or
// taller than maxDimension are scaled down to fit, keeping the aspect ratio.
type PhotoStore struct {
	dir          string
	maxBytes     int64
	maxDimension int
}

func NewPhotoStore(dir string, maxBytes int64, maxDimension int) *PhotoStore {
	return &PhotoStore{dir: dir, maxBytes: maxBytes, maxDimension: maxDimension}
}

// Save stores the image read from r under a random name that keeps the
// extension of originalName.
func (s *PhotoStore) Save(originalName string, r io.Reader) (*Photo, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return nil, ErrUnsupportedType
	}

	raw, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(raw)) > s.maxBytes {
		return nil, ErrTooLarge
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, ErrInvalidImage
	}

	if s.needsResize(img.Bounds()) {
		raw, err = s.resize(img, format)
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare upload dir: %w", err)
	}

	filename := uuid.NewString() + ext
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}

	return &Photo{Filename: filename, Path: path}, nil
}

// Remove deletes a stored photo by its filename. A missing file is not an
// error.
func (s *PhotoStore) Remove(filename string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(filename)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func (s *PhotoStore) needsResize(b image.Rectangle) bool {
	return s.maxDimension > 0 && (b.Dx() > s.maxDimension || b.Dy() > s.maxDimension)
}

func (s *PhotoStore) resize(img image.Image, format string) ([]byte, error) {
	src := img.Bounds()
	w, h := s.maxDimension, s.maxDimension
	if src.Dx() >= src.Dy() {
		h = max(1, src.Dy()*s.maxDimension/src.Dx())
	} else {
		w = max(1, src.Dx()*s.maxDimension/src.Dy())
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)

	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, dst)
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, fmt.Errorf("encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}
