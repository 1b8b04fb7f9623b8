// Package obu inspects AV1 low-overhead bitstreams: it walks OBU headers,
// parses the sequence header and describes the stream as an
// AV1CodecConfigurationRecord.
package obu

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated is returned when an OBU extends past the end of the data.
	ErrTruncated = errors.New("obu: truncated data")

	// ErrForbiddenBit is returned for an OBU header with the forbidden bit set.
	ErrForbiddenBit = errors.New("obu: forbidden bit set")

	// ErrNoSequenceHeader is returned when a stream has no sequence header.
	ErrNoSequenceHeader = errors.New("obu: no sequence header")
)

// Type is the obu_type field of an OBU header.
type Type uint8

const (
	TypeSequenceHeader       Type = 1
	TypeTemporalDelimiter    Type = 2
	TypeFrameHeader          Type = 3
	TypeTileGroup            Type = 4
	TypeMetadata             Type = 5
	TypeFrame                Type = 6
	TypeRedundantFrameHeader Type = 7
	TypeTileList             Type = 8
	TypePadding              Type = 15
)

// String returns the string representation of the OBU type.
func (t Type) String() string {
	switch t {
	case TypeSequenceHeader:
		return "sequence_header"
	case TypeTemporalDelimiter:
		return "temporal_delimiter"
	case TypeFrameHeader:
		return "frame_header"
	case TypeTileGroup:
		return "tile_group"
	case TypeMetadata:
		return "metadata"
	case TypeFrame:
		return "frame"
	case TypeRedundantFrameHeader:
		return "redundant_frame_header"
	case TypeTileList:
		return "tile_list"
	case TypePadding:
		return "padding"
	default:
		return fmt.Sprintf("reserved(%d)", uint8(t))
	}
}

// Header is a parsed OBU header.
type Header struct {
	Type         Type
	HasExtension bool
	HasSize      bool
	TemporalID   uint8
	SpatialID    uint8
}

// OBU is one open bitstream unit inside a larger buffer.
type OBU struct {
	Header
	Offset  int    // Position of the first header byte
	Data    []byte // Header, size field and payload
	Payload []byte
}

// ReadLeb128 decodes an unsigned LEB128 value of at most 8 bytes and
// returns it with the number of bytes consumed.
func ReadLeb128(data []byte) (uint64, int, error) {
	var value uint64
	for i := 0; i < 8; i++ {
		if i >= len(data) {
			return 0, 0, ErrTruncated
		}
		b := data[i]
		value |= uint64(b&0x7f) << (i * 7)
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("obu: leb128 value longer than 8 bytes")
}

// Walk calls fn for every OBU in data, in order. An OBU without a size
// field extends to the end of data. Walk stops at the first error from
// fn and returns it.
func Walk(data []byte, fn func(OBU) error) error {
	offset := 0
	for offset < len(data) {
		o, err := parse(data, offset)
		if err != nil {
			return err
		}
		if err := fn(o); err != nil {
			return err
		}
		offset += len(o.Data)
	}
	return nil
}

func parse(data []byte, offset int) (OBU, error) {
	start := offset
	b := data[offset]
	if b&0x80 != 0 {
		return OBU{}, fmt.Errorf("at offset %d: %w", start, ErrForbiddenBit)
	}
	h := Header{
		Type:         Type((b >> 3) & 0x0f),
		HasExtension: b&0x04 != 0,
		HasSize:      b&0x02 != 0,
	}
	offset++

	if h.HasExtension {
		if offset >= len(data) {
			return OBU{}, fmt.Errorf("extension header at offset %d: %w", start, ErrTruncated)
		}
		ext := data[offset]
		h.TemporalID = ext >> 5
		h.SpatialID = (ext >> 3) & 0x03
		offset++
	}

	size := uint64(len(data) - offset)
	if h.HasSize {
		v, n, err := ReadLeb128(data[offset:])
		if err != nil {
			return OBU{}, fmt.Errorf("size of %s at offset %d: %w", h.Type, start, err)
		}
		size = v
		offset += n
	}
	if size > uint64(len(data)-offset) {
		return OBU{}, fmt.Errorf("%s at offset %d needs %d bytes: %w", h.Type, start, size, ErrTruncated)
	}
	end := offset + int(size)

	return OBU{
		Header:  h,
		Offset:  start,
		Data:    data[start:end:end],
		Payload: data[offset:end:end],
	}, nil
}

// SequenceHeader returns the first sequence header OBU in data.
func SequenceHeader(data []byte) (OBU, error) {
	var found OBU
	errFound := errors.New("found")
	err := Walk(data, func(o OBU) error {
		if o.Type == TypeSequenceHeader {
			found = o
			return errFound
		}
		return nil
	})
	switch {
	case errors.Is(err, errFound):
		return found, nil
	case err != nil:
		return OBU{}, err
	default:
		return OBU{}, ErrNoSequenceHeader
	}
}
