// Package imageconv converts Go images into the planar frames the encoder
// consumes.
package imageconv

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/user/av1still/pkg/frame"
)

// BT.709 limited range coefficients.
const (
	yR, yG, yB    = 0.183, 0.614, 0.062
	cbR, cbG, cbB = -0.101, -0.339, 0.439
	crR, crG, crB = 0.439, -0.399, -0.040
)

// ToRGBA returns img as an *image.RGBA whose bounds start at the origin.
// Images that already are such an RGBA are returned as is.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// ToI420 converts img to a 4:2:0 frame in BT.709 limited range. Alpha is
// ignored; pixels are taken as premultiplied, as image.RGBA stores them.
// Each chroma sample averages the pixels of its 2x2 block, which is
// partial on the last column or row of odd-sized images.
//
// ToI420 panics if img is empty.
func ToI420(img image.Image) *frame.Source {
	rgba := ToRGBA(img)
	width, height := rgba.Rect.Dx(), rgba.Rect.Dy()
	src := frame.NewSource(width, height)
	layout := src.Validate()

	lumaPlane := src.Data[:layout.LumaSize]
	cbPlane := src.Data[layout.LumaSize : layout.LumaSize+layout.ChromaSize]
	crPlane := src.Data[layout.LumaSize+layout.ChromaSize:]

	for cy := 0; cy < layout.ChromaHeight; cy++ {
		for cx := 0; cx < layout.ChromaStride; cx++ {
			var sumCb, sumCr float64
			n := 0
			for y := 2 * cy; y < 2*cy+2 && y < height; y++ {
				for x := 2 * cx; x < 2*cx+2 && x < width; x++ {
					i := y*rgba.Stride + x*4
					r, g, b := float64(rgba.Pix[i]), float64(rgba.Pix[i+1]), float64(rgba.Pix[i+2])
					lumaPlane[y*layout.LumaStride+x] = clamp(yR*r + yG*g + yB*b + 16)
					sumCb += cbR*r + cbG*g + cbB*b
					sumCr += crR*r + crG*g + crB*b
					n++
				}
			}
			cbPlane[cy*layout.ChromaStride+cx] = clamp(sumCb/float64(n) + 128)
			crPlane[cy*layout.ChromaStride+cx] = clamp(sumCr/float64(n) + 128)
		}
	}
	return src
}

func clamp(v float64) uint8 {
	v += 0.5
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
