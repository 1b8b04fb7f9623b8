// Package still encodes Go images as single-frame AV1 bitstreams.
//
// The image is converted to BT.709 limited-range 4:2:0 and encoded with
// two-pass constant quality. The output is the raw OBU stream: a
// temporal unit holding the sequence header and one key frame.
package still

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/user/av1still/pkg/buffer"
	"github.com/user/av1still/pkg/encoder"
	"github.com/user/av1still/pkg/imageconv"
	"github.com/user/av1still/pkg/ports"
)

// Encoder encodes images with an AV1 engine. It is safe for concurrent
// use when the engine is.
type Encoder struct {
	enc *encoder.Encoder
	log ports.Logger
}

// New creates a new Encoder.
func New(engine ports.Engine, log ports.Logger) *Encoder {
	if log == nil {
		log = ports.Discard
	}
	return &Encoder{
		enc: encoder.New(engine, log),
		log: log.WithComponent("still"),
	}
}

// Encode writes img to w as an AV1 OBU stream. Nil opts selects
// DefaultOptions; opts itself is never modified.
//
// Invalid options return an OptionsError. Encoder failures return an
// *encoder.Error. The encode itself is not interruptible: ctx is only
// consulted before it starts.
func (e *Encoder) Encode(ctx context.Context, w io.Writer, img image.Image, opts *Options) error {
	data, err := e.EncodeImage(ctx, img, opts)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write bitstream: %w", err)
	}
	return nil
}

// EncodeImage is like Encode but returns the bitstream.
func (e *Encoder) EncodeImage(ctx context.Context, img image.Image, opts *Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o, err := resolve(opts, img.Bounds())
	if err != nil {
		return nil, err
	}

	src := imageconv.ToI420(img)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.log.Debug("Encoding %dx%d image (threads %d, speed %d, quality %d)",
		src.Width, src.Height, o.Threads, o.Speed, o.Quality)

	var out buffer.Buffer
	cfg := encoder.Config{Threads: o.Threads, Speed: o.Speed, Quality: o.Quality}
	if err := e.enc.EncodeFrame(cfg, src, &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
