package imageconv

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
)

// Thumbnail shrinks img to fit within maxWidth x maxHeight, keeping its
// aspect ratio. Images that already fit are returned unchanged.
func Thumbnail(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxWidth <= 0 || maxHeight <= 0 || (w <= maxWidth && h <= maxHeight) {
		return img
	}

	if w > maxWidth {
		h = max(h*maxWidth/w, 1)
		w = maxWidth
	}
	if h > maxHeight {
		w = max(w*maxHeight/h, 1)
		h = maxHeight
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// ParseThumb parses a "w:h" bound as accepted by Thumbnail.
func ParseThumb(s string) (width, height int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid thumbnail size %q, must be in w:h format", s)
	}
	if width, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("invalid thumbnail width %q", parts[0])
	}
	if height, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("invalid thumbnail height %q", parts[1])
	}
	if width < 1 || height < 1 {
		return 0, 0, fmt.Errorf("invalid thumbnail size %dx%d", width, height)
	}
	return width, height, nil
}
