package testpattern

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func TestRender_Size(t *testing.T) {
	tests := []struct {
		width, height int
	}{
		{1, 1},
		{7, 3},
		{160, 90},
		{17, 15},
	}

	for _, tt := range tests {
		img := Render(tt.width, tt.height)
		if b := img.Bounds(); b.Dx() != tt.width || b.Dy() != tt.height {
			t.Errorf("Render(%d, %d) size %dx%d", tt.width, tt.height, b.Dx(), b.Dy())
		}
	}
}

func TestRender_Deterministic(t *testing.T) {
	a := Render(64, 48).(*image.RGBA)
	b := Render(64, 48).(*image.RGBA)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("expected identical pixels for identical sizes")
	}
}

func TestRender_Bars(t *testing.T) {
	img := Render(160, 90)

	// Sample each bar near its right edge at the top, away from the diagonal.
	for i, want := range Bars {
		x := (i+1)*160/len(Bars) - 3
		if got := color.RGBAModel.Convert(img.At(x, 2)).(color.RGBA); got != want {
			t.Errorf("bar %d at (%d,2): got %v, want %v", i, x, got, want)
		}
	}
}

func TestRender_Ramp(t *testing.T) {
	img := Render(160, 90)
	y := BarHeight(90) + 10

	left := color.GrayModel.Convert(img.At(5, y)).(color.Gray)
	right := color.GrayModel.Convert(img.At(155, y)).(color.Gray)
	if left.Y >= right.Y {
		t.Errorf("expected the ramp to brighten left to right, got %d then %d", left.Y, right.Y)
	}
}

func TestRender_InvalidSizePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero width")
		}
	}()
	Render(0, 10)
}
