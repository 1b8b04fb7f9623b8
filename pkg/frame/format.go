// Package frame describes raw planar frames and maps them onto the
// engine's native image layout.
package frame

import (
	"fmt"

	"github.com/user/av1still/pkg/ports"
)

// Subsampling is the chroma subsampling mode of a source frame.
type Subsampling int

const (
	// Subsampling420 halves chroma resolution in both directions.
	Subsampling420 Subsampling = iota
)

// String returns the string representation of the subsampling mode.
func (s Subsampling) String() string {
	switch s {
	case Subsampling420:
		return "4:2:0"
	default:
		return fmt.Sprintf("Subsampling(%d)", int(s))
	}
}

// Format holds the native layout parameters for a subsampling mode.
type Format struct {
	Tag            ports.ImageFormat
	DecimationH    int
	DecimationV    int
	BitsPerPixel   int
	BytesPerSample int
}

// ResolveFormat returns the layout parameters for s.
// It panics for modes other than Subsampling420.
func ResolveFormat(s Subsampling) Format {
	switch s {
	case Subsampling420:
		return Format{
			Tag:            ports.FormatI420,
			DecimationH:    2,
			DecimationV:    2,
			BitsPerPixel:   12,
			BytesPerSample: 1,
		}
	default:
		panic(fmt.Sprintf("frame: unsupported subsampling %v", s))
	}
}
