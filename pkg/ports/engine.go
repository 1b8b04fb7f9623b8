package ports

import "fmt"

// ImageFormat identifies the pixel layout of a NativeImage.
type ImageFormat int

const (
	// FormatI420 is planar 8-bit YUV with 2x2 chroma decimation.
	FormatI420 ImageFormat = iota + 1
)

// String returns the engine-style name of the format.
func (f ImageFormat) String() string {
	switch f {
	case FormatI420:
		return "i420"
	default:
		return "unknown"
	}
}

// Plane indexes into NativeImage.Planes.
const (
	PlaneY = 0
	PlaneU = 1
	PlaneV = 2
)

// Plane locates one image plane inside NativeImage.Data.
type Plane struct {
	Offset int // Byte offset of the first row
	Stride int // Bytes between the start of consecutive rows
	Rows   int // Number of rows
}

// NativeImage describes a raw frame the way the engine expects it.
// It never owns pixels: Data aliases the caller's buffer.
type NativeImage struct {
	Format       ImageFormat
	Width        int
	Height       int
	BitsPerPixel int
	XChromaShift int
	YChromaShift int
	Planes       [3]Plane
	Data         []byte
}

// Check reports whether every plane lies inside Data.
func (img *NativeImage) Check() error {
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("ports: invalid image size %dx%d", img.Width, img.Height)
	}
	for p, pl := range img.Planes {
		if pl.Offset < 0 || pl.Stride <= 0 || pl.Rows <= 0 {
			return fmt.Errorf("ports: invalid plane %d (offset %d, stride %d, rows %d)", p, pl.Offset, pl.Stride, pl.Rows)
		}
		if end := pl.Offset + pl.Stride*pl.Rows; end > len(img.Data) {
			return fmt.Errorf("ports: plane %d ends at %d, past %d bytes of data", p, end, len(img.Data))
		}
	}
	return nil
}

// PlaneBytes returns the bytes of plane p, stride-aligned rows included.
// The image must pass Check.
func (img *NativeImage) PlaneBytes(p int) []byte {
	pl := img.Planes[p]
	return img.Data[pl.Offset : pl.Offset+pl.Stride*pl.Rows]
}

// Pass selects which half of a two-pass encode an instance performs.
type Pass int

const (
	PassOne Pass = iota
	PassFirst
	PassLast
)

// String returns the string representation of the pass.
func (p Pass) String() string {
	switch p {
	case PassOne:
		return "one"
	case PassFirst:
		return "first"
	case PassLast:
		return "last"
	default:
		return "unknown"
	}
}

// RateControl is the engine's rate-control mode.
type RateControl int

const (
	RateControlVBR RateControl = iota
	RateControlCBR
	RateControlCQ
	// RateControlQ is constant quality: the quantizer comes from ControlCQLevel.
	RateControlQ
)

// Rational is a numerator/denominator pair.
type Rational struct {
	Num int
	Den int
}

// EngineConfig holds the encoder settings that callers may override on top
// of the engine defaults.
type EngineConfig struct {
	Usage       int // Engine usage profile, left at the engine default
	Width       int
	Height      int
	Limit       int // Maximum number of frames to encode (0 = unlimited)
	Timebase    Rational
	RateControl RateControl
	Threads     int
	Pass        Pass
	// StatsIn carries first-pass statistics into a PassLast instance.
	// The engine copies it during Init.
	StatsIn []byte
}

// ControlID names a post-init engine control.
type ControlID int

const (
	ControlCPUUsed ControlID = iota + 1
	ControlCQLevel
	ControlLossless
	ControlTileColumns
	ControlTileRows
	ControlRowMT
	ControlFrameParallelDecoding
)

// String returns the string representation of the control.
func (c ControlID) String() string {
	switch c {
	case ControlCPUUsed:
		return "cpu-used"
	case ControlCQLevel:
		return "cq-level"
	case ControlLossless:
		return "lossless"
	case ControlTileColumns:
		return "tile-columns"
	case ControlTileRows:
		return "tile-rows"
	case ControlRowMT:
		return "row-mt"
	case ControlFrameParallelDecoding:
		return "frame-parallel-decoding"
	default:
		return "unknown"
	}
}

// PacketKind classifies packets drained from an instance.
type PacketKind int

const (
	PacketFrame PacketKind = iota + 1
	PacketStats
	PacketOther
)

// String returns the string representation of the packet kind.
func (k PacketKind) String() string {
	switch k {
	case PacketFrame:
		return "frame"
	case PacketStats:
		return "stats"
	case PacketOther:
		return "other"
	default:
		return "unknown"
	}
}

// Packet is one unit of encoder output. Data is owned by the caller.
type Packet struct {
	Kind PacketKind
	Data []byte
}

// Engine abstracts an AV1 encoder library.
type Engine interface {
	// DefaultConfig returns the engine defaults for the given frame size.
	DefaultConfig(width, height int) (EngineConfig, error)

	// Init creates an encoder instance configured with cfg.
	Init(cfg EngineConfig) (Instance, error)
}

// Instance is a live encoder created by Engine.Init.
// An Instance is used by one goroutine at a time.
type Instance interface {
	// SetControl applies a post-init control.
	SetControl(id ControlID, value int) error

	// Encode feeds a frame. A nil img flushes buffered frames.
	Encode(img *NativeImage, pts int64, duration uint64, flags int) error

	// Packets drains the packets produced since the last call.
	Packets() []Packet

	// Destroy releases the instance. The instance must not be used afterwards.
	Destroy() error
}
