package obu

import (
	"bytes"
	"fmt"
	"math"

	"github.com/Eyevinn/mp4ff/av1"
	"github.com/Eyevinn/mp4ff/bits"
	"github.com/Eyevinn/mp4ff/mp4"
)

// SequenceInfo holds the sequence header fields that describe a stream.
// Level and tier are those of operating point 0.
type SequenceInfo struct {
	Profile                   uint8
	StillPicture              bool
	ReducedStillPictureHeader bool
	LevelIdx                  uint8
	Tier                      uint8
	OperatingPoints           int
	MaxWidth                  int
	MaxHeight                 int
}

// ParseSequenceHeader parses the payload of a sequence header OBU up to
// and including the maximum frame size.
func ParseSequenceHeader(payload []byte) (SequenceInfo, error) {
	r := bits.NewReader(bytes.NewReader(payload))
	var info SequenceInfo

	info.Profile = uint8(r.Read(3))
	info.StillPicture = r.ReadFlag()
	info.ReducedStillPictureHeader = r.ReadFlag()
	if info.ReducedStillPictureHeader && !info.StillPicture {
		return SequenceInfo{}, fmt.Errorf("obu: reduced still picture header without still picture")
	}

	if info.ReducedStillPictureHeader {
		info.LevelIdx = uint8(r.Read(5))
		info.OperatingPoints = 1
	} else {
		var decoderModel bool
		var bufferDelayLength int
		if r.ReadFlag() { // timing_info_present_flag
			r.Read(32) // num_units_in_display_tick
			r.Read(32) // time_scale
			if r.ReadFlag() {
				readUvlc(r) // num_ticks_per_picture_minus_1
			}
			decoderModel = r.ReadFlag()
			if decoderModel {
				bufferDelayLength = int(r.Read(5)) + 1
				r.Read(32) // num_units_in_decoding_tick
				r.Read(5)  // buffer_removal_time_length_minus_1
				r.Read(5)  // frame_presentation_time_length_minus_1
			}
		}
		initialDisplayDelay := r.ReadFlag()
		info.OperatingPoints = int(r.Read(5)) + 1
		for i := 0; i < info.OperatingPoints; i++ {
			r.Read(12) // operating_point_idc
			level := uint8(r.Read(5))
			var tier uint8
			if level > 7 {
				tier = uint8(r.Read(1))
			}
			if i == 0 {
				info.LevelIdx, info.Tier = level, tier
			}
			if decoderModel && r.ReadFlag() {
				r.Read(bufferDelayLength) // decoder_buffer_delay
				r.Read(bufferDelayLength) // encoder_buffer_delay
				r.Read(1)                 // low_delay_mode_flag
			}
			if initialDisplayDelay && r.ReadFlag() {
				r.Read(4) // initial_display_delay_minus_1
			}
		}
	}

	widthBits := int(r.Read(4)) + 1
	heightBits := int(r.Read(4)) + 1
	info.MaxWidth = int(r.Read(widthBits)) + 1
	info.MaxHeight = int(r.Read(heightBits)) + 1

	if r.AccError() != nil {
		return SequenceInfo{}, fmt.Errorf("sequence header: %w", ErrTruncated)
	}
	return info, nil
}

// readUvlc reads a variable length code as used by timing_info.
func readUvlc(r *bits.Reader) uint {
	leadingZeros := 0
	for !r.ReadFlag() {
		if r.AccError() != nil {
			return 0
		}
		leadingZeros++
	}
	if leadingZeros >= 32 {
		return math.MaxUint32
	}
	return r.Read(leadingZeros) + (1 << leadingZeros) - 1
}

// CodecConfig describes the 8-bit 4:2:0 stream in data as an
// AV1CodecConfigurationRecord carrying its sequence header.
func CodecConfig(data []byte) (av1.CodecConfRec, error) {
	seq, err := SequenceHeader(data)
	if err != nil {
		return av1.CodecConfRec{}, err
	}
	info, err := ParseSequenceHeader(seq.Payload)
	if err != nil {
		return av1.CodecConfRec{}, err
	}
	return av1.CodecConfRec{
		Version:            1,
		SeqProfile:         info.Profile,
		SeqLevelIdx0:       info.LevelIdx,
		SeqTier0:           info.Tier,
		ChromaSubsamplingX: 1,
		ChromaSubsamplingY: 1,
		ConfigOBUs:         append([]byte(nil), seq.Data...),
	}, nil
}

// CodecConfigBox wraps CodecConfig in an av1C box.
func CodecConfigBox(data []byte) (*mp4.Av1CBox, error) {
	rec, err := CodecConfig(data)
	if err != nil {
		return nil, err
	}
	return &mp4.Av1CBox{CodecConfRec: rec}, nil
}

// EncodeCodecConfigBox returns the serialized av1C box for data.
func EncodeCodecConfigBox(data []byte) ([]byte, error) {
	box, err := CodecConfigBox(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := box.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode av1C: %w", err)
	}
	return buf.Bytes(), nil
}
