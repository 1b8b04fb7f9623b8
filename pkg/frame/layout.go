package frame

import (
	"fmt"

	"github.com/user/av1still/pkg/ports"
)

// MaxDimension is the largest width or height a Source may have.
const MaxDimension = 1<<16 - 1

// Source is a packed planar frame: the luma plane followed directly by
// the two chroma planes, with no row padding.
type Source struct {
	Width       int
	Height      int
	Subsampling Subsampling
	Data        []byte // Borrowed from the caller for the duration of an encode
}

// Layout holds the per-plane geometry of a Source.
type Layout struct {
	LumaStride   int
	LumaSize     int
	ChromaStride int
	ChromaHeight int
	ChromaSize   int
}

// Size returns the total number of bytes the three planes occupy.
func (l Layout) Size() int {
	return l.LumaSize + 2*l.ChromaSize
}

// ComputeLayout returns the plane geometry of a width x height frame in
// format f. Chroma dimensions round up so odd sizes keep their last column
// and row.
func ComputeLayout(width, height int, f Format) Layout {
	chromaW := (width + f.DecimationH - 1) / f.DecimationH * f.BytesPerSample
	chromaH := (height + f.DecimationV - 1) / f.DecimationV
	return Layout{
		LumaStride:   width * f.BytesPerSample,
		LumaSize:     width * height * f.BytesPerSample,
		ChromaStride: chromaW,
		ChromaHeight: chromaH,
		ChromaSize:   chromaW * chromaH,
	}
}

// Validate panics if s violates the frame contract: non-positive or
// oversized dimensions, an unsupported subsampling mode, or a data buffer
// whose length differs from the computed layout.
func (s *Source) Validate() Layout {
	if s.Width <= 0 || s.Height <= 0 {
		panic(fmt.Sprintf("frame: invalid dimensions %dx%d", s.Width, s.Height))
	}
	if s.Width > MaxDimension || s.Height > MaxDimension {
		panic(fmt.Sprintf("frame: dimensions %dx%d exceed %d", s.Width, s.Height, MaxDimension))
	}
	l := ComputeLayout(s.Width, s.Height, ResolveFormat(s.Subsampling))
	if len(s.Data) != l.Size() {
		panic(fmt.Sprintf("frame: data is %d bytes, layout needs %d", len(s.Data), l.Size()))
	}
	return l
}

// BuildNativeImage describes s for the engine without copying pixels and
// without aligning strides. The engine's own image wrapper pads odd sizes,
// which would point the last chroma row past the end of a tightly packed
// buffer.
func BuildNativeImage(s *Source) *ports.NativeImage {
	f := ResolveFormat(s.Subsampling)
	l := s.Validate()
	return &ports.NativeImage{
		Format:       f.Tag,
		Width:        s.Width,
		Height:       s.Height,
		BitsPerPixel: f.BitsPerPixel,
		XChromaShift: f.DecimationH >> 1,
		YChromaShift: f.DecimationV >> 1,
		Planes: [3]ports.Plane{
			ports.PlaneY: {Offset: 0, Stride: l.LumaStride, Rows: s.Height},
			ports.PlaneU: {Offset: l.LumaSize, Stride: l.ChromaStride, Rows: l.ChromaHeight},
			ports.PlaneV: {Offset: l.LumaSize + l.ChromaSize, Stride: l.ChromaStride, Rows: l.ChromaHeight},
		},
		Data: s.Data,
	}
}

// NewSource allocates a zeroed 4:2:0 Source of the given size.
func NewSource(width, height int) *Source {
	l := ComputeLayout(width, height, ResolveFormat(Subsampling420))
	return &Source{
		Width:       width,
		Height:      height,
		Subsampling: Subsampling420,
		Data:        make([]byte, l.Size()),
	}
}
