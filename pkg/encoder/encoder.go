// Package encoder drives a two-pass, constant-quality AV1 encode of a
// single still frame.
//
// The first pass runs the frame through the engine to collect rate-control
// statistics; the second pass encodes it again with those statistics and
// emits the bitstream. Each pass gets its own engine instance, and both
// passes flush the engine until it has no packets left.
package encoder

import (
	"errors"

	"github.com/user/av1still/pkg/buffer"
	"github.com/user/av1still/pkg/frame"
	"github.com/user/av1still/pkg/ports"
)

// Options configures an Encoder.
type Options struct {
	// StatsAllocator backs the first-pass statistics buffer.
	// Defaults to the Go heap.
	StatsAllocator buffer.Allocator
}

// Encoder encodes still frames with an AV1 engine. It holds no per-call
// state and is safe for concurrent use if the engine is.
type Encoder struct {
	engine ports.Engine
	log    ports.Logger
	alloc  buffer.Allocator
}

// New creates a new Encoder.
func New(engine ports.Engine, log ports.Logger) *Encoder {
	return NewWithOptions(engine, log, Options{})
}

// NewWithOptions creates a new Encoder with explicit options.
func NewWithOptions(engine ports.Engine, log ports.Logger, opts Options) *Encoder {
	if log == nil {
		log = ports.Discard
	}
	alloc := opts.StatsAllocator
	if alloc == nil {
		alloc = buffer.HeapAllocator{}
	}
	return &Encoder{
		engine: engine,
		log:    log.WithComponent("encoder"),
		alloc:  alloc,
	}
}

// EncodeFrame encodes src and appends the AV1 bitstream to out.
//
// Invalid arguments (threads < 1, speed or quality out of range, empty or
// inconsistent frames, nil out) are programming errors and panic. Engine
// failures return an *Error; see CodeOf. After a failure out may hold a
// partial bitstream and must be discarded.
//
// When a failure is followed by a failure to destroy the engine instance,
// the first failure determines the code and the destroy error is joined
// to it.
func (e *Encoder) EncodeFrame(cfg Config, src *frame.Source, out *buffer.Buffer) error {
	cfg.check()
	if out == nil {
		panic("encoder: nil output buffer")
	}
	img := frame.BuildNativeImage(src)

	ec, err := e.baseConfig(cfg, src.Width, src.Height)
	if err != nil {
		return err
	}

	stats := buffer.New(e.alloc)
	defer stats.Free()

	e.log.Debug("Collecting statistics for %dx%d frame", src.Width, src.Height)
	ec.Pass = ports.PassFirst
	if err := e.pass(ec, cfg, img, ports.PacketStats, stats); err != nil {
		return err
	}
	e.log.Debug("First pass produced %d bytes of statistics", stats.Len())

	ec.Pass = ports.PassLast
	ec.StatsIn = stats.Bytes()
	start := out.Len()
	if err := e.pass(ec, cfg, img, ports.PacketFrame, out); err != nil {
		return err
	}
	e.log.Debug("Last pass produced %d bytes", out.Len()-start)
	return nil
}

// pass runs one pass on a fresh instance and always destroys it.
func (e *Encoder) pass(ec ports.EngineConfig, cfg Config, img *ports.NativeImage, kind ports.PacketKind, out *buffer.Buffer) (err error) {
	inst, err := e.openCodec(ec, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if derr := e.closeCodec(inst); derr != nil {
			if err == nil {
				err = derr
			} else {
				err = errors.Join(err, derr)
			}
		}
	}()
	return e.runPass(inst, img, kind, out)
}
