// Package libaom implements ports.Engine on top of the libaom AV1 encoder.
package libaom

/*
#cgo !windows pkg-config: aom
#cgo windows CFLAGS: -IC:/vcpkg/installed/x64-windows-static/include
#cgo windows LDFLAGS: -LC:/vcpkg/installed/x64-windows-static/lib -laom -static -lpthread
#include "libaom.h"
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/user/av1still/pkg/ports"
)

// Engine creates libaom encoder instances. It holds no libaom state and
// is safe for concurrent use.
type Engine struct {
	log ports.Logger
}

// New creates a new libaom engine.
func New(log ports.Logger) *Engine {
	if log == nil {
		log = ports.Discard
	}
	return &Engine{log: log.WithComponent("libaom")}
}

// Version returns the libaom version string.
func Version() string {
	return C.GoString(C.aom_codec_version_str())
}

// DefaultConfig returns libaom's good-quality defaults for a width x height
// frame.
func (e *Engine) DefaultConfig(width, height int) (ports.EngineConfig, error) {
	cfg := (*C.aom_codec_enc_cfg_t)(C.malloc(C.sizeof_aom_codec_enc_cfg_t))
	if cfg == nil {
		return ports.EngineConfig{}, fmt.Errorf("failed to allocate encoder config")
	}
	defer C.free(unsafe.Pointer(cfg))

	if err := loadDefaults(cfg, C.AOM_USAGE_GOOD_QUALITY); err != nil {
		return ports.EngineConfig{}, err
	}

	rc, err := fromRateControl(cfg.rc_end_usage)
	if err != nil {
		return ports.EngineConfig{}, err
	}
	pass, err := fromPass(cfg.g_pass)
	if err != nil {
		return ports.EngineConfig{}, err
	}
	return ports.EngineConfig{
		Usage:  int(cfg.g_usage),
		Width:  width,
		Height: height,
		Limit:  int(cfg.g_limit),
		Timebase: ports.Rational{
			Num: int(cfg.g_timebase.num),
			Den: int(cfg.g_timebase.den),
		},
		RateControl: rc,
		Threads:     int(cfg.g_threads),
		Pass:        pass,
	}, nil
}

// Init creates an encoder instance. Fields of cfg are applied on top of
// libaom's defaults for cfg.Usage; StatsIn is copied.
func (e *Engine) Init(cfg ports.EngineConfig) (ports.Instance, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", cfg.Width, cfg.Height)
	}

	inst := &Instance{log: e.log}
	inst.cfg = (*C.aom_codec_enc_cfg_t)(C.malloc(C.sizeof_aom_codec_enc_cfg_t))
	if inst.cfg == nil {
		return nil, fmt.Errorf("failed to allocate encoder config")
	}
	if err := loadDefaults(inst.cfg, C.uint(cfg.Usage)); err != nil {
		inst.release()
		return nil, err
	}
	if err := applyConfig(inst.cfg, cfg); err != nil {
		inst.release()
		return nil, err
	}

	// libaom reads the statistics during encoding, so they live as long
	// as the instance.
	if len(cfg.StatsIn) > 0 {
		inst.stats = C.CBytes(cfg.StatsIn)
		C.set_stats_in(inst.cfg, inst.stats, C.size_t(len(cfg.StatsIn)))
	}

	inst.ctx = (*C.aom_codec_ctx_t)(C.malloc(C.sizeof_aom_codec_ctx_t))
	if inst.ctx == nil {
		inst.release()
		return nil, fmt.Errorf("failed to allocate codec context")
	}
	C.memset(unsafe.Pointer(inst.ctx), 0, C.sizeof_aom_codec_ctx_t)

	if res := C.init_encoder(inst.ctx, C.get_av1_interface(), inst.cfg); res != C.AOM_CODEC_OK {
		err := inst.codecError("failed to initialize encoder", res)
		inst.release()
		return nil, err
	}
	inst.open = true

	e.log.Debug("Initialized %s pass encoder for %dx%d (%d threads, %d bytes of statistics)",
		cfg.Pass, cfg.Width, cfg.Height, cfg.Threads, len(cfg.StatsIn))
	return inst, nil
}

func loadDefaults(cfg *C.aom_codec_enc_cfg_t, usage C.uint) error {
	if res := C.aom_codec_enc_config_default(C.get_av1_interface(), cfg, usage); res != C.AOM_CODEC_OK {
		return fmt.Errorf("failed to get default config: %s", C.GoString(C.aom_codec_err_to_string(res)))
	}
	return nil
}

func applyConfig(dst *C.aom_codec_enc_cfg_t, cfg ports.EngineConfig) error {
	rc, err := toRateControl(cfg.RateControl)
	if err != nil {
		return err
	}
	pass, err := toPass(cfg.Pass)
	if err != nil {
		return err
	}
	if cfg.Threads < 0 || cfg.Limit < 0 {
		return fmt.Errorf("invalid threads %d or limit %d", cfg.Threads, cfg.Limit)
	}

	dst.g_usage = C.uint(cfg.Usage)
	dst.g_w = C.uint(cfg.Width)
	dst.g_h = C.uint(cfg.Height)
	dst.g_limit = C.uint(cfg.Limit)
	dst.g_timebase.num = C.int(cfg.Timebase.Num)
	dst.g_timebase.den = C.int(cfg.Timebase.Den)
	dst.rc_end_usage = rc
	dst.g_threads = C.uint(cfg.Threads)
	dst.g_pass = pass
	return nil
}

func toRateControl(rc ports.RateControl) (C.enum_aom_rc_mode, error) {
	switch rc {
	case ports.RateControlVBR:
		return C.AOM_VBR, nil
	case ports.RateControlCBR:
		return C.AOM_CBR, nil
	case ports.RateControlCQ:
		return C.AOM_CQ, nil
	case ports.RateControlQ:
		return C.AOM_Q, nil
	default:
		return 0, fmt.Errorf("unknown rate control mode %d", rc)
	}
}

func fromRateControl(rc C.enum_aom_rc_mode) (ports.RateControl, error) {
	switch rc {
	case C.AOM_VBR:
		return ports.RateControlVBR, nil
	case C.AOM_CBR:
		return ports.RateControlCBR, nil
	case C.AOM_CQ:
		return ports.RateControlCQ, nil
	case C.AOM_Q:
		return ports.RateControlQ, nil
	default:
		return 0, fmt.Errorf("unknown libaom rate control mode %d", rc)
	}
}

func toPass(p ports.Pass) (C.enum_aom_enc_pass, error) {
	switch p {
	case ports.PassOne:
		return C.AOM_RC_ONE_PASS, nil
	case ports.PassFirst:
		return C.AOM_RC_FIRST_PASS, nil
	case ports.PassLast:
		return C.AOM_RC_LAST_PASS, nil
	default:
		return 0, fmt.Errorf("unknown pass %d", p)
	}
}

func fromPass(p C.enum_aom_enc_pass) (ports.Pass, error) {
	switch p {
	case C.AOM_RC_ONE_PASS:
		return ports.PassOne, nil
	case C.AOM_RC_FIRST_PASS:
		return ports.PassFirst, nil
	case C.AOM_RC_LAST_PASS:
		return ports.PassLast, nil
	default:
		return 0, fmt.Errorf("unknown libaom pass %d", p)
	}
}

var controlIDs = map[ports.ControlID]C.int{
	ports.ControlCPUUsed:               C.CTL_CPU_USED,
	ports.ControlCQLevel:               C.CTL_CQ_LEVEL,
	ports.ControlLossless:              C.CTL_LOSSLESS,
	ports.ControlTileColumns:           C.CTL_TILE_COLUMNS,
	ports.ControlTileRows:              C.CTL_TILE_ROWS,
	ports.ControlRowMT:                 C.CTL_ROW_MT,
	ports.ControlFrameParallelDecoding: C.CTL_FRAME_PARALLEL_DECODING,
}

var _ ports.Engine = (*Engine)(nil)
