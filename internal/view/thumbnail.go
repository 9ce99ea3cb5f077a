package view

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// DefaultThumbnailSize is the longest edge of a thumbnail, in pixels.
const DefaultThumbnailSize = 128

// ImageThumbnailer previews image files by scaling them down to fit a square
// of Size pixels. Non-image files have no thumbnail.
type ImageThumbnailer struct {
	Size int
}

// Thumbnail decodes the image at path and returns a PNG preview.
func (t ImageThumbnailer) Thumbnail(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	size := t.Size
	if size <= 0 {
		size = DefaultThumbnailSize
	}

	b := src.Bounds()
	w, h := fit(b.Dx(), b.Dy(), size)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fit scales w×h to fit within size×size, keeping the aspect ratio.
// Images already small enough keep their dimensions.
func fit(w, h, size int) (int, int) {
	if w <= size && h <= size {
		return max(w, 1), max(h, 1)
	}
	if w >= h {
		return size, max(h*size/w, 1)
	}
	return max(w*size/h, 1), size
}
