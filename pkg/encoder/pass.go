package encoder

import (
	"fmt"

	"github.com/user/av1still/pkg/buffer"
	"github.com/user/av1still/pkg/ports"
)

// maxFlushRounds bounds the flush loop for engines that never run dry.
const maxFlushRounds = 4096

// The engine wants a timestamp and duration even for a single frame.
const (
	framePTS      = 1
	frameDuration = 1
)

// runPass feeds img once, then flushes until a flush drains nothing. The
// engine may hold the frame back entirely, so at least one flush always
// happens. Packets of kind are appended to out; others are dropped.
func (e *Encoder) runPass(inst ports.Instance, img *ports.NativeImage, kind ports.PacketKind, out *buffer.Buffer) error {
	if _, err := e.feed(inst, img, kind, out); err != nil {
		return err
	}
	for round := 0; ; round++ {
		if round == maxFlushRounds {
			return newError(CodeFrameEncodeFailed, "flush",
				fmt.Errorf("still producing packets after %d rounds", maxFlushRounds))
		}
		got, err := e.feed(inst, nil, kind, out)
		if err != nil {
			return err
		}
		if got == 0 {
			return nil
		}
	}
}

// feed submits img (nil to flush) and drains the packets it produced. It
// returns the number of packets drained, of any kind.
func (e *Encoder) feed(inst ports.Instance, img *ports.NativeImage, kind ports.PacketKind, out *buffer.Buffer) (int, error) {
	op := "encode"
	if img == nil {
		op = "flush"
	}
	if err := inst.Encode(img, framePTS, frameDuration, 0); err != nil {
		return 0, newError(CodeFrameEncodeFailed, op, err)
	}

	pkts := inst.Packets()
	for _, pkt := range pkts {
		if pkt.Kind != kind {
			continue
		}
		if err := out.Append(pkt.Data); err != nil {
			return 0, newError(CodeGeneral, fmt.Sprintf("collect %s packet", kind), err)
		}
	}
	if len(pkts) > 0 {
		e.log.Debug("Drained %d packets after %s (%d bytes kept)", len(pkts), op, out.Len())
	}
	return len(pkts), nil
}
