package encoder

import (
	"errors"
	"fmt"

	"github.com/user/av1still/pkg/ports"
)

const (
	MinSpeed   = 0
	MaxSpeed   = 8
	MinQuality = 0
	MaxQuality = 63
)

// Config holds the per-call encoder settings.
type Config struct {
	Threads int // Worker threads the engine may use (>= 1)
	Speed   int // Effort level, 0 (slowest) to 8 (fastest)
	Quality int // Quantizer target, 0 (lossless) to 63
}

// check panics if c is outside the ranges the engine accepts.
func (c Config) check() {
	if c.Threads < 1 {
		panic(fmt.Sprintf("encoder: threads must be >= 1, got %d", c.Threads))
	}
	if c.Speed < MinSpeed || c.Speed > MaxSpeed {
		panic(fmt.Sprintf("encoder: speed %d outside [%d, %d]", c.Speed, MinSpeed, MaxSpeed))
	}
	if c.Quality < MinQuality || c.Quality > MaxQuality {
		panic(fmt.Sprintf("encoder: quality %d outside [%d, %d]", c.Quality, MinQuality, MaxQuality))
	}
}

// control is one post-init setting.
type control struct {
	id    ports.ControlID
	value int
}

// controls returns the settings applied to every instance, in the order the
// engine must receive them. Tile values are the engine's raw control values.
func (c Config) controls() []control {
	list := []control{
		{ports.ControlCPUUsed, c.Speed},
		{ports.ControlCQLevel, c.Quality},
	}
	if c.Quality == 0 {
		list = append(list, control{ports.ControlLossless, 1})
	}
	return append(list,
		control{ports.ControlTileColumns, 1},
		control{ports.ControlTileRows, 1},
		control{ports.ControlRowMT, 1},
		control{ports.ControlFrameParallelDecoding, 0},
	)
}

// baseConfig asks the engine for its defaults and overrides the fields a
// single still frame needs.
func (e *Encoder) baseConfig(c Config, width, height int) (ports.EngineConfig, error) {
	ec, err := e.engine.DefaultConfig(width, height)
	if err != nil {
		return ports.EngineConfig{}, newError(CodeCodecInitFailed, "default config", err)
	}
	ec.Limit = 1
	ec.Width = width
	ec.Height = height
	ec.Timebase = ports.Rational{Num: 1, Den: 24}
	ec.RateControl = ports.RateControlQ
	ec.Threads = c.Threads
	return ec, nil
}

// openCodec creates an instance and applies the controls. If a control is
// rejected the instance is destroyed before returning.
func (e *Encoder) openCodec(ec ports.EngineConfig, c Config) (ports.Instance, error) {
	inst, err := e.engine.Init(ec)
	if err != nil {
		return nil, newError(CodeCodecInitFailed, fmt.Sprintf("init %s pass", ec.Pass), err)
	}
	for _, ctl := range c.controls() {
		if err := inst.SetControl(ctl.id, ctl.value); err != nil {
			initErr := newError(CodeCodecInitFailed, fmt.Sprintf("set %s=%d", ctl.id, ctl.value), err)
			if derr := e.closeCodec(inst); derr != nil {
				return nil, errors.Join(initErr, derr)
			}
			return nil, initErr
		}
		e.log.Debug("Set %s to %d", ctl.id, ctl.value)
	}
	return inst, nil
}

// closeCodec destroys inst.
func (e *Encoder) closeCodec(inst ports.Instance) error {
	if err := inst.Destroy(); err != nil {
		return newError(CodeCodecDestroyFailed, "destroy", err)
	}
	return nil
}
