// Package av1decoder decodes AV1 OBU streams with libaom. It serves as the
// reference decoder when verifying encoder output.
package av1decoder

/*
#cgo !windows pkg-config: aom
#cgo windows CFLAGS: -IC:/vcpkg/installed/x64-windows-static/include
#cgo windows LDFLAGS: -LC:/vcpkg/installed/x64-windows-static/lib -laom -static -lpthread
#include <aom/aom_decoder.h>
#include <aom/aomdx.h>
#include <stdlib.h>
#include <string.h>

static aom_codec_iface_t* get_av1_decoder_interface() {
    return aom_codec_av1_dx();
}

static aom_codec_err_t init_decoder(aom_codec_ctx_t *ctx, aom_codec_iface_t *iface) {
    return aom_codec_dec_init(ctx, iface, NULL, 0);
}

static unsigned char* get_plane(aom_image_t *img, int plane) {
    return img->planes[plane];
}

static int get_stride(aom_image_t *img, int plane) {
    return img->stride[plane];
}

static unsigned int get_width(aom_image_t *img) {
    return img->d_w;
}

static unsigned int get_height(aom_image_t *img) {
    return img->d_h;
}

static int is_i420(aom_image_t *img) {
    return img->fmt == AOM_IMG_FMT_I420;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"image"
	"unsafe"
)

var (
	// ErrNotInitialized is returned when Decode is called before Init.
	ErrNotInitialized = errors.New("av1decoder: decoder not initialized")

	// ErrNoFrame is returned when the stream holds no displayable frame.
	ErrNoFrame = errors.New("av1decoder: no frame available")
)

// Decoder decodes AV1 temporal units with libaom.
type Decoder struct {
	codec *C.aom_codec_ctx_t
}

// New creates a new AV1 decoder.
func New() *Decoder {
	return &Decoder{}
}

// Init initializes the decoder.
func (d *Decoder) Init() error {
	d.codec = (*C.aom_codec_ctx_t)(C.malloc(C.sizeof_aom_codec_ctx_t))
	if d.codec == nil {
		return fmt.Errorf("failed to allocate decoder context")
	}
	C.memset(unsafe.Pointer(d.codec), 0, C.sizeof_aom_codec_ctx_t)

	iface := C.get_av1_decoder_interface()
	if res := C.init_decoder(d.codec, iface); res != C.AOM_CODEC_OK {
		C.free(unsafe.Pointer(d.codec))
		d.codec = nil
		return fmt.Errorf("failed to initialize decoder: %s", C.GoString(C.aom_codec_err_to_string(res)))
	}

	return nil
}

// Decode decodes an OBU stream and returns its first frame as 4:2:0 YCbCr.
func (d *Decoder) Decode(data []byte) (*image.YCbCr, error) {
	if d.codec == nil {
		return nil, ErrNotInitialized
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("empty frame data")
	}

	buf := C.CBytes(data)
	defer C.free(buf)

	res := C.aom_codec_decode(d.codec, (*C.uint8_t)(buf), C.size_t(len(data)), nil)
	if res != C.AOM_CODEC_OK {
		msg := C.GoString(C.aom_codec_err_to_string(res))
		if detail := C.aom_codec_error_detail(d.codec); detail != nil {
			msg += " (" + C.GoString(detail) + ")"
		}
		return nil, fmt.Errorf("decode failed: %s", msg)
	}

	var iter C.aom_codec_iter_t
	img := C.aom_codec_get_frame(d.codec, &iter)
	if img == nil {
		return nil, ErrNoFrame
	}
	if C.is_i420(img) == 0 {
		return nil, fmt.Errorf("unsupported decoded format %d", int(img.fmt))
	}

	return toYCbCr(img), nil
}

// Close releases decoder resources. It is safe to call more than once.
func (d *Decoder) Close() {
	if d.codec != nil {
		C.aom_codec_destroy(d.codec)
		C.free(unsafe.Pointer(d.codec))
		d.codec = nil
	}
}

// DecodeOBU decodes a complete OBU stream with a fresh decoder.
func DecodeOBU(data []byte) (*image.YCbCr, error) {
	d := New()
	if err := d.Init(); err != nil {
		return nil, err
	}
	defer d.Close()
	return d.Decode(data)
}

// toYCbCr copies the planes of an 8-bit I420 image.
func toYCbCr(img *C.aom_image_t) *image.YCbCr {
	width := int(C.get_width(img))
	height := int(C.get_height(img))

	out := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio420)
	cw, ch := (width+1)/2, (height+1)/2

	copyPlane(out.Y, out.YStride, C.get_plane(img, 0), int(C.get_stride(img, 0)), width, height)
	copyPlane(out.Cb, out.CStride, C.get_plane(img, 1), int(C.get_stride(img, 1)), cw, ch)
	copyPlane(out.Cr, out.CStride, C.get_plane(img, 2), int(C.get_stride(img, 2)), cw, ch)
	return out
}

func copyPlane(dst []byte, dstStride int, src *C.uchar, srcStride, width, rows int) {
	if rows == 0 || width == 0 {
		return
	}
	plane := unsafe.Slice((*byte)(unsafe.Pointer(src)), (rows-1)*srcStride+width)
	for y := 0; y < rows; y++ {
		copy(dst[y*dstStride:y*dstStride+width], plane[y*srcStride:y*srcStride+width])
	}
}
