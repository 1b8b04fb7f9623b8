package libaom

/*
#include "libaom.h"
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/user/av1still/pkg/ports"
)

// ErrDestroyed is returned when an instance is used after Destroy.
var ErrDestroyed = errors.New("libaom: instance destroyed")

// Instance is one libaom encoder context. All memory handed to libaom
// (config, statistics, context) is C-allocated and released by Destroy.
type Instance struct {
	log ports.Logger

	ctx   *C.aom_codec_ctx_t
	cfg   *C.aom_codec_enc_cfg_t
	stats unsafe.Pointer
	open  bool

	packets []ports.Packet
}

// SetControl applies a post-init control.
func (i *Instance) SetControl(id ports.ControlID, value int) error {
	if !i.open {
		return ErrDestroyed
	}
	code, ok := controlIDs[id]
	if !ok {
		return fmt.Errorf("unsupported control %s", id)
	}
	if res := C.set_control(i.ctx, code, C.int(value)); res != C.AOM_CODEC_OK {
		return i.codecError(fmt.Sprintf("failed to set %s=%d", id, value), res)
	}
	return nil
}

// Encode feeds img to the encoder, or flushes it when img is nil, and
// queues the packets libaom produced.
func (i *Instance) Encode(img *ports.NativeImage, pts int64, duration uint64, flags int) error {
	if !i.open {
		return ErrDestroyed
	}

	var res C.aom_codec_err_t
	if img == nil {
		res = C.aom_codec_encode(i.ctx, nil, C.aom_codec_pts_t(pts), C.ulong(duration), C.aom_enc_frame_flags_t(flags))
	} else {
		if img.Format != ports.FormatI420 {
			return fmt.Errorf("unsupported image format %s", img.Format)
		}
		if err := img.Check(); err != nil {
			return err
		}

		// Planes are packed into one C buffer; libaom copies the frame
		// into its lookahead during the call.
		size := 0
		for p := range img.Planes {
			size += len(img.PlaneBytes(p))
		}
		data := C.malloc(C.size_t(size))
		if data == nil {
			return fmt.Errorf("failed to allocate %d bytes for the frame", size)
		}
		defer C.free(data)

		buf := unsafe.Slice((*byte)(data), size)
		var offsets [3]int
		n := 0
		for p := range img.Planes {
			offsets[p] = n
			n += copy(buf[n:], img.PlaneBytes(p))
		}

		var raw C.aom_image_t
		y, u, v := img.Planes[ports.PlaneY], img.Planes[ports.PlaneU], img.Planes[ports.PlaneV]
		C.wrap_i420(&raw, (*C.uchar)(data),
			C.uint(img.Width), C.uint(img.Height), C.uint(img.BitsPerPixel),
			C.uint(img.XChromaShift), C.uint(img.YChromaShift),
			C.size_t(offsets[ports.PlaneY]), C.int(y.Stride),
			C.size_t(offsets[ports.PlaneU]), C.int(u.Stride),
			C.size_t(offsets[ports.PlaneV]), C.int(v.Stride))
		res = C.aom_codec_encode(i.ctx, &raw, C.aom_codec_pts_t(pts), C.ulong(duration), C.aom_enc_frame_flags_t(flags))
	}
	if res != C.AOM_CODEC_OK {
		return i.codecError("encoding failed", res)
	}

	i.drain()
	return nil
}

// drain copies every pending packet out of libaom.
func (i *Instance) drain() {
	var iter C.aom_codec_iter_t
	for {
		pkt := C.aom_codec_get_cx_data(i.ctx, &iter)
		if pkt == nil {
			break
		}

		var kind ports.PacketKind
		switch C.packet_kind(pkt) {
		case C.PKT_FRAME:
			kind = ports.PacketFrame
		case C.PKT_STATS:
			kind = ports.PacketStats
		default:
			kind = ports.PacketOther
		}

		var data []byte
		if sz := C.packet_sz(pkt); sz > 0 {
			data = C.GoBytes(C.packet_buf(pkt), C.int(sz))
		}
		i.packets = append(i.packets, ports.Packet{Kind: kind, Data: data})
	}
}

// Packets returns the packets queued since the last call.
func (i *Instance) Packets() []ports.Packet {
	pkts := i.packets
	i.packets = nil
	return pkts
}

// Destroy releases the libaom context. The C memory is freed even when
// libaom reports an error; a second call returns ErrDestroyed.
func (i *Instance) Destroy() error {
	if !i.open {
		return ErrDestroyed
	}
	i.open = false

	var err error
	if res := C.aom_codec_destroy(i.ctx); res != C.AOM_CODEC_OK {
		err = fmt.Errorf("failed to destroy encoder: %s", C.GoString(C.aom_codec_err_to_string(res)))
	}
	i.release()
	i.packets = nil
	return err
}

func (i *Instance) release() {
	if i.ctx != nil {
		C.free(unsafe.Pointer(i.ctx))
		i.ctx = nil
	}
	if i.stats != nil {
		C.free(i.stats)
		i.stats = nil
	}
	if i.cfg != nil {
		C.free(unsafe.Pointer(i.cfg))
		i.cfg = nil
	}
}

// codecError describes res together with libaom's detail message.
func (i *Instance) codecError(msg string, res C.aom_codec_err_t) error {
	reason := C.GoString(C.aom_codec_err_to_string(res))
	if i.ctx != nil {
		if detail := C.aom_codec_error_detail(i.ctx); detail != nil {
			return fmt.Errorf("%s: %s (%s)", msg, reason, C.GoString(detail))
		}
	}
	return fmt.Errorf("%s: %s", msg, reason)
}

var _ ports.Instance = (*Instance)(nil)
