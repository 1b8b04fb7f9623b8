package mocks

import (
	"errors"
	"fmt"
	"sync"

	"github.com/user/av1still/pkg/ports"
)

// ErrInjected is the default error returned by injected failures.
var ErrInjected = errors.New("mocks: injected failure")

// ControlCall records a call to Instance.SetControl.
type ControlCall struct {
	ID    ports.ControlID
	Value int
}

// EncodeCall records a call to Instance.Encode.
type EncodeCall struct {
	Flush    bool
	PTS      int64
	Duration uint64
	Flags    int
	Width    int
	Height   int
}

// Engine is a mock implementation of ports.Engine. Instances emit packets
// according to Script; failures are injected per pass.
type Engine struct {
	mu sync.Mutex

	DefaultConfigFunc func(width, height int) (ports.EngineConfig, error)

	// Script returns the packets produced by the n-th Encode call (0-based,
	// the frame feed is call 0) of an instance running pass. Defaults to
	// DefaultScript.
	Script func(pass ports.Pass, call int) []ports.Packet

	// Failure injection, keyed by pass.
	InitErr    map[ports.Pass]error
	EncodeErr  map[ports.Pass]error
	EncodeAt   map[ports.Pass]int // Encode call that fails (default 0)
	DestroyErr map[ports.Pass]error
	ControlErr map[ports.ControlID]error

	// Recorded calls for verification
	DefaultConfigCalls int
	Instances          []*Instance
}

// NewEngine creates a new mock Engine.
func NewEngine() *Engine {
	return &Engine{
		InitErr:    make(map[ports.Pass]error),
		EncodeErr:  make(map[ports.Pass]error),
		EncodeAt:   make(map[ports.Pass]int),
		DestroyErr: make(map[ports.Pass]error),
		ControlErr: make(map[ports.ControlID]error),
	}
}

// DefaultScript emits one packet for the frame, one more on the first
// flush and nothing afterwards. First-pass packets are statistics, last-pass
// packets are frames; every call also emits an unrelated packet kind, which
// the encoder must skip.
func DefaultScript(pass ports.Pass, call int) []ports.Packet {
	if call > 1 {
		return nil
	}
	kind, other := ports.PacketFrame, ports.PacketStats
	if pass == ports.PassFirst {
		kind, other = ports.PacketStats, ports.PacketFrame
	}
	return []ports.Packet{
		{Kind: kind, Data: []byte(fmt.Sprintf("%s-%s-%d;", pass, kind, call))},
		{Kind: other, Data: []byte("noise")},
	}
}

func (m *Engine) DefaultConfig(width, height int) (ports.EngineConfig, error) {
	m.mu.Lock()
	m.DefaultConfigCalls++
	m.mu.Unlock()
	if m.DefaultConfigFunc != nil {
		return m.DefaultConfigFunc(width, height)
	}
	return ports.EngineConfig{
		Width:       width,
		Height:      height,
		Timebase:    ports.Rational{Num: 1, Den: 30},
		RateControl: ports.RateControlVBR,
		Threads:     0,
		Pass:        ports.PassOne,
	}, nil
}

func (m *Engine) Init(cfg ports.EngineConfig) (ports.Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.InitErr[cfg.Pass]; err != nil {
		return nil, err
	}
	// The caller may free StatsIn once Init returns.
	cfg.StatsIn = append([]byte(nil), cfg.StatsIn...)
	inst := &Instance{engine: m, Config: cfg}
	m.Instances = append(m.Instances, inst)
	return inst, nil
}

// Live returns the number of instances created but not destroyed.
func (m *Engine) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, inst := range m.Instances {
		if inst.Destroyed == 0 {
			n++
		}
	}
	return n
}

// InstancesFor returns the instances created for pass.
func (m *Engine) InstancesFor(pass ports.Pass) []*Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Instance
	for _, inst := range m.Instances {
		if inst.Config.Pass == pass {
			out = append(out, inst)
		}
	}
	return out
}

// Instance is a mock implementation of ports.Instance.
type Instance struct {
	engine *Engine
	queue  []ports.Packet

	// Config is the configuration the instance was created with.
	Config ports.EngineConfig

	// Recorded calls for verification
	Controls    []ControlCall
	EncodeCalls []EncodeCall
	Destroyed   int
}

func (i *Instance) SetControl(id ports.ControlID, value int) error {
	i.Controls = append(i.Controls, ControlCall{ID: id, Value: value})
	i.engine.mu.Lock()
	err := i.engine.ControlErr[id]
	i.engine.mu.Unlock()
	return err
}

func (i *Instance) Encode(img *ports.NativeImage, pts int64, duration uint64, flags int) error {
	call := EncodeCall{Flush: img == nil, PTS: pts, Duration: duration, Flags: flags}
	if img != nil {
		call.Width, call.Height = img.Width, img.Height
	}
	n := len(i.EncodeCalls)
	i.EncodeCalls = append(i.EncodeCalls, call)

	i.engine.mu.Lock()
	err := i.engine.EncodeErr[i.Config.Pass]
	at := i.engine.EncodeAt[i.Config.Pass]
	script := i.engine.Script
	i.engine.mu.Unlock()

	if err != nil && n == at {
		return err
	}
	if script == nil {
		script = DefaultScript
	}
	i.queue = append(i.queue, script(i.Config.Pass, n)...)
	return nil
}

func (i *Instance) Packets() []ports.Packet {
	pkts := i.queue
	i.queue = nil
	return pkts
}

func (i *Instance) Destroy() error {
	i.Destroyed++
	i.engine.mu.Lock()
	defer i.engine.mu.Unlock()
	return i.engine.DestroyErr[i.Config.Pass]
}

// ControlIDs returns the ids of the recorded controls in call order.
func (i *Instance) ControlIDs() []ports.ControlID {
	ids := make([]ports.ControlID, len(i.Controls))
	for n, c := range i.Controls {
		ids[n] = c.ID
	}
	return ids
}

var (
	_ ports.Engine   = (*Engine)(nil)
	_ ports.Instance = (*Instance)(nil)
)
