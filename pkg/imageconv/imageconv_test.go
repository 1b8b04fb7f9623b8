package imageconv

import (
	"image"
	"image/color"
	"testing"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
	black = color.RGBA{A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

func TestToI420_SolidColors(t *testing.T) {
	tests := []struct {
		name      string
		c         color.RGBA
		y, cb, cr uint8
	}{
		{"black", black, 16, 128, 128},
		{"white", white, 235, 128, 128},
		{"red", red, 63, 102, 240},
		{"blue", blue, 32, 240, 118},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := ToI420(solid(3, 3, tt.c))
			layout := src.Validate()

			for i := 0; i < layout.LumaSize; i++ {
				if src.Data[i] != tt.y {
					t.Fatalf("luma[%d] = %d, want %d", i, src.Data[i], tt.y)
				}
			}
			for i := 0; i < layout.ChromaSize; i++ {
				if got := src.Data[layout.LumaSize+i]; got != tt.cb {
					t.Fatalf("cb[%d] = %d, want %d", i, got, tt.cb)
				}
				if got := src.Data[layout.LumaSize+layout.ChromaSize+i]; got != tt.cr {
					t.Fatalf("cr[%d] = %d, want %d", i, got, tt.cr)
				}
			}
		})
	}
}

func TestToI420_ChromaAveraging(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.Set(0, 0, red)
	img.Set(1, 0, blue)
	img.Set(2, 0, red)

	src := ToI420(img)

	want := []byte{
		63, 32, 63, // Y
		171, 102, // Cb: red+blue averaged, then the partial red block
		179, 240, // Cr
	}
	if string(src.Data) != string(want) {
		t.Errorf("got %v, want %v", src.Data, want)
	}
}

func TestToI420_OddSizeLayout(t *testing.T) {
	src := ToI420(solid(17, 15, white))

	if src.Width != 17 || src.Height != 15 {
		t.Fatalf("expected 17x15, got %dx%d", src.Width, src.Height)
	}
	if want := 17*15 + 2*9*8; len(src.Data) != want {
		t.Errorf("expected %d bytes, got %d", want, len(src.Data))
	}
}

func TestToI420_HonorsBoundsMin(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 7, 7, 8))
	img.Set(5, 7, black)
	img.Set(6, 7, white)

	src := ToI420(img)

	if src.Width != 2 || src.Height != 1 {
		t.Fatalf("expected 2x1, got %dx%d", src.Width, src.Height)
	}
	if src.Data[0] != 16 || src.Data[1] != 235 {
		t.Errorf("expected luma [16 235], got %v", src.Data[:2])
	}
}

func TestToI420_EmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for empty image")
		}
	}()
	ToI420(image.NewRGBA(image.Rect(0, 0, 0, 4)))
}

func TestToRGBA(t *testing.T) {
	img := solid(4, 4, red)
	if ToRGBA(img) != img {
		t.Error("expected origin-based RGBA to be returned as is")
	}

	gray := image.NewGray(image.Rect(1, 1, 3, 3))
	rgba := ToRGBA(gray)
	if rgba.Rect != image.Rect(0, 0, 2, 2) {
		t.Errorf("expected bounds moved to origin, got %v", rgba.Rect)
	}
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		name          string
		w, h          int
		maxW, maxH    int
		wantW, wantH  int
		wantUnchanged bool
	}{
		{"fits", 100, 50, 200, 200, 100, 50, true},
		{"exact fit", 100, 50, 100, 50, 100, 50, true},
		{"wide", 100, 50, 40, 40, 40, 20, false},
		{"tall", 50, 100, 40, 40, 20, 40, false},
		{"both bounds", 100, 80, 50, 20, 25, 20, false},
		{"thin", 10, 1000, 100, 100, 1, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := solid(tt.w, tt.h, red)
			got := Thumbnail(img, tt.maxW, tt.maxH)

			if tt.wantUnchanged && got != image.Image(img) {
				t.Error("expected image to be returned unchanged")
			}
			if b := got.Bounds(); b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, b.Dx(), b.Dy())
			}
		})
	}
}

func TestParseThumb(t *testing.T) {
	tests := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{"320:240", 320, 240, false},
		{"1:1", 1, 1, false},
		{"320", 0, 0, true},
		{"320:240:1", 0, 0, true},
		{"a:240", 0, 0, true},
		{"320:b", 0, 0, true},
		{"0:240", 0, 0, true},
		{"-5:5", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, h, err := ParseThumb(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if w != tt.w || h != tt.h {
				t.Errorf("got %d:%d, want %d:%d", w, h, tt.w, tt.h)
			}
		})
	}
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}
