package still

import (
	"fmt"
	"image"
	"runtime"

	"github.com/user/av1still/pkg/encoder"
	"github.com/user/av1still/pkg/frame"
)

const (
	MinSpeed   = encoder.MinSpeed
	MaxSpeed   = encoder.MaxSpeed
	MinQuality = encoder.MinQuality
	MaxQuality = encoder.MaxQuality
	MinThreads = 1
	MaxThreads = 64
)

// Options controls an encode.
type Options struct {
	Threads        int // 0 uses every CPU, up to MaxThreads
	Speed          int
	Quality        int // 0 is lossless
	SubsampleRatio *image.YCbCrSubsampleRatio
}

// DefaultOptions is used when Encode is given nil options.
var DefaultOptions = Options{
	Threads:        0,
	Speed:          4,
	Quality:        25,
	SubsampleRatio: nil,
}

// OptionsError reports invalid options or an unusable image.
type OptionsError string

func (e OptionsError) Error() string {
	return fmt.Sprintf("options error: %s", string(e))
}

// resolve returns a validated copy of o with defaults filled in.
func resolve(o *Options, bounds image.Rectangle) (Options, error) {
	var opts Options
	if o == nil {
		opts = DefaultOptions
	} else {
		opts = *o
	}

	if opts.Threads == 0 {
		opts.Threads = min(runtime.NumCPU(), MaxThreads)
	}
	if opts.SubsampleRatio == nil {
		s := image.YCbCrSubsampleRatio420
		opts.SubsampleRatio = &s
	}

	if opts.Threads < MinThreads || opts.Threads > MaxThreads {
		return opts, OptionsError("bad threads number")
	}
	if opts.Speed < MinSpeed || opts.Speed > MaxSpeed {
		return opts, OptionsError("bad speed value")
	}
	if opts.Quality < MinQuality || opts.Quality > MaxQuality {
		return opts, OptionsError("bad quality value")
	}
	if *opts.SubsampleRatio != image.YCbCrSubsampleRatio420 {
		return opts, OptionsError("unsupported subsampling")
	}
	if bounds.Empty() {
		return opts, OptionsError("empty image")
	}
	if bounds.Dx() > frame.MaxDimension || bounds.Dy() > frame.MaxDimension {
		return opts, OptionsError("image too large")
	}
	return opts, nil
}
