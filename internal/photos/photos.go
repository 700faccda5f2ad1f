// Package photos stores clock-in and clock-out photos submitted as data
// URLs. Images are decoded, scaled down to a maximum long side and kept
// on disk as JPEG under a generated id.
package photos

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const (
	// DefaultMaxDimension bounds the long side of a stored photo.
	DefaultMaxDimension = 1024
	// DefaultMaxBytes bounds the decoded size of a submitted data URL.
	DefaultMaxBytes = 8 << 20

	jpegQuality = 80
	fileExt     = ".jpg"
)

var allowedMimes = []string{"image/png", "image/jpeg", "image/webp"}

var (
	// ErrInvalidPhoto is returned for data URLs that cannot be stored.
	ErrInvalidPhoto = errors.New("invalid photo")
	// ErrNotFound is returned by Open for unknown ids.
	ErrNotFound = errors.New("photo not found")
)

// Store writes photos into a directory.
type Store struct {
	dir      string
	maxDim   int
	maxBytes int
}

// NewStore creates dir when missing. A maxDim of zero uses DefaultMaxDimension.
func NewStore(dir string, maxDim int) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("photo dir is required")
	}
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	return &Store{dir: dir, maxDim: maxDim, maxBytes: DefaultMaxBytes}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string { return s.dir }

// Save decodes dataURL, resizes it and writes it as JPEG. It returns the
// photo id.
func (s *Store) Save(ctx context.Context, dataURL string) (string, error) {
	raw, mime, err := parseDataURL(dataURL, s.maxBytes)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	img, err := decode(raw, mime)
	if err != nil {
		return "", err
	}
	img = fit(img, s.maxDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode photo: %w", err)
	}

	id := uuid.NewString()
	tmp, err := os.CreateTemp(s.dir, ".photo-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	if err := os.Rename(tmpPath, s.path(id)); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return id, nil
}

// Open returns the stored JPEG for id. The caller closes it.
func (s *Store) Open(id string) (*os.File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	f, err := os.Open(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return f, err
}

// ContentType is the MIME type of every stored photo.
func (s *Store) ContentType() string { return "image/jpeg" }

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+fileExt)
}

func parseDataURL(value string, maxBytes int) ([]byte, string, error) {
	raw := strings.TrimSpace(value)
	if !strings.HasPrefix(raw, "data:") {
		return nil, "", fmt.Errorf("%w: not a data url", ErrInvalidPhoto)
	}
	comma := strings.Index(raw, ",")
	if comma <= 5 {
		return nil, "", fmt.Errorf("%w: missing payload", ErrInvalidPhoto)
	}
	meta := raw[5:comma]
	if !strings.HasSuffix(strings.ToLower(meta), ";base64") {
		return nil, "", fmt.Errorf("%w: data url must be base64", ErrInvalidPhoto)
	}
	mime := strings.ToLower(strings.TrimSpace(meta[:len(meta)-len(";base64")]))
	if !allowed(mime) {
		return nil, "", fmt.Errorf("%w: unsupported type %q", ErrInvalidPhoto, mime)
	}

	decoded, err := base64.StdEncoding.DecodeString(raw[comma+1:])
	if err != nil {
		return nil, "", fmt.Errorf("%w: bad base64: %v", ErrInvalidPhoto, err)
	}
	if len(decoded) == 0 {
		return nil, "", fmt.Errorf("%w: empty image", ErrInvalidPhoto)
	}
	if maxBytes > 0 && len(decoded) > maxBytes {
		return nil, "", fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidPhoto, maxBytes)
	}
	if detected := http.DetectContentType(decoded); detected != mime {
		return nil, "", fmt.Errorf("%w: declared %s but content is %s", ErrInvalidPhoto, mime, detected)
	}
	return decoded, mime, nil
}

func allowed(mime string) bool {
	for _, m := range allowedMimes {
		if m == mime {
			return true
		}
	}
	return false
}

func decode(raw []byte, mime string) (image.Image, error) {
	var (
		img image.Image
		err error
	)
	if mime == "image/webp" {
		img, err = webp.Decode(bytes.NewReader(raw))
	} else {
		img, _, err = image.Decode(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidPhoto, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty dimensions", ErrInvalidPhoto)
	}
	return img, nil
}

// fit scales img down so its long side is at most maxDim, keeping the
// aspect ratio. Smaller images are returned unchanged.
func fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	nw, nh := maxDim, maxDim
	if w >= h {
		nh = max(1, h*maxDim/w)
	} else {
		nw = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
