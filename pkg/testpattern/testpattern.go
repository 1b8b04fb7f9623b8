// Package testpattern renders a deterministic image for smoke tests.
package testpattern

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// Bars are the colors of the top section, left to right.
var Bars = []color.RGBA{
	{255, 255, 255, 255},
	{255, 255, 0, 255},
	{0, 255, 255, 255},
	{0, 255, 0, 255},
	{255, 0, 255, 255},
	{255, 0, 0, 255},
	{0, 0, 255, 255},
	{0, 0, 0, 255},
}

// Render draws color bars over the top two thirds, a gray ramp below and a
// white diagonal from the top-left corner.
func Render(width, height int) image.Image {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("testpattern: invalid size %dx%d", width, height))
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(color.Black)
	dc.Clear()

	barHeight := BarHeight(height)
	for i, c := range Bars {
		x0 := i * width / len(Bars)
		x1 := (i + 1) * width / len(Bars)
		if x1 == x0 {
			continue
		}
		dc.SetColor(c)
		dc.DrawRectangle(float64(x0), 0, float64(x1-x0), float64(barHeight))
		dc.Fill()
	}

	if rampHeight := height - barHeight; rampHeight > 0 {
		for x := 0; x < width; x++ {
			v := uint8(0)
			if width > 1 {
				v = uint8(x * 255 / (width - 1))
			}
			dc.SetColor(color.Gray{Y: v})
			dc.DrawRectangle(float64(x), float64(barHeight), 1, float64(rampHeight))
			dc.Fill()
		}
	}

	dc.SetColor(color.White)
	dc.SetLineWidth(1)
	dc.DrawLine(0, 0, float64(width), float64(height))
	dc.Stroke()

	return dc.Image()
}

// BarHeight returns the height of the color bar section.
func BarHeight(height int) int {
	return height * 2 / 3
}
