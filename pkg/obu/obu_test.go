package obu

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Eyevinn/mp4ff/bits"
	"github.com/google/go-cmp/cmp"
)

// bitWriter builds MSB-first bit fields for test bitstreams.
type bitWriter struct {
	buf  []byte
	nbit int
}

func (w *bitWriter) put(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		if w.nbit%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v>>uint(i)&1 == 1 {
			w.buf[len(w.buf)-1] |= 0x80 >> uint(w.nbit%8)
		}
		w.nbit++
	}
}

// trailing appends trailing_one_bit and zero padding.
func (w *bitWriter) trailing() []byte {
	w.put(1, 1)
	return w.buf
}

func wrap(t Type, payload []byte) []byte {
	out := []byte{byte(t)<<3 | 0x02}
	size := len(payload)
	for {
		b := byte(size & 0x7f)
		size >>= 7
		if size > 0 {
			out = append(out, b|0x80)
			continue
		}
		out = append(out, b)
		break
	}
	return append(out, payload...)
}

// reducedStillHeader is a sequence header as written for a 17x15 still image.
func reducedStillHeader() []byte {
	var w bitWriter
	w.put(0, 3)  // seq_profile
	w.put(1, 1)  // still_picture
	w.put(1, 1)  // reduced_still_picture_header
	w.put(4, 5)  // seq_level_idx[0]
	w.put(4, 4)  // frame_width_bits_minus_1
	w.put(3, 4)  // frame_height_bits_minus_1
	w.put(16, 5) // max_frame_width_minus_1
	w.put(14, 4) // max_frame_height_minus_1
	return w.trailing()
}

func fullHeader() []byte {
	var w bitWriter
	w.put(1, 3) // seq_profile
	w.put(0, 1) // still_picture
	w.put(0, 1) // reduced_still_picture_header
	w.put(1, 1) // timing_info_present_flag
	w.put(1, 32)
	w.put(24, 32)
	w.put(1, 1) // equal_picture_interval
	w.put(1, 1) // uvlc 0
	w.put(1, 1) // decoder_model_info_present_flag
	w.put(9, 5) // buffer_delay_length_minus_1
	w.put(1000, 32)
	w.put(31, 5)
	w.put(31, 5)
	w.put(1, 1) // initial_display_delay_present_flag
	w.put(1, 5) // operating_points_cnt_minus_1

	w.put(0x10f, 12) // operating_point_idc[0]
	w.put(9, 5)      // seq_level_idx[0]
	w.put(1, 1)      // seq_tier[0]
	w.put(1, 1)      // decoder_model_present_for_this_op[0]
	w.put(100, 10)
	w.put(200, 10)
	w.put(0, 1)
	w.put(1, 1) // initial_display_delay_present_for_this_op[0]
	w.put(3, 4)

	w.put(0x101, 12) // operating_point_idc[1]
	w.put(2, 5)      // seq_level_idx[1], no tier
	w.put(0, 1)
	w.put(0, 1)

	w.put(10, 4) // frame_width_bits_minus_1
	w.put(10, 4) // frame_height_bits_minus_1
	w.put(1919, 11)
	w.put(1079, 11)
	return w.trailing()
}

func testStream() []byte {
	var s []byte
	s = append(s, wrap(TypeTemporalDelimiter, nil)...)
	s = append(s, wrap(TypeSequenceHeader, reducedStillHeader())...)
	s = append(s, wrap(TypeFrame, []byte{1, 2, 3})...)
	return s
}

func TestReadLeb128(t *testing.T) {
	tests := []struct {
		in      []byte
		want    uint64
		n       int
		wantErr bool
	}{
		{[]byte{0x00}, 0, 1, false},
		{[]byte{0x7f, 0xff}, 127, 1, false},
		{[]byte{0x80, 0x01}, 128, 2, false},
		{[]byte{0xe5, 0x8e, 0x26}, 624485, 3, false},
		{[]byte{0x80}, 0, 0, true},
		{[]byte{}, 0, 0, true},
		{bytes.Repeat([]byte{0x80}, 9), 0, 0, true},
	}

	for _, tt := range tests {
		got, n, err := ReadLeb128(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ReadLeb128(% x) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want || n != tt.n {
			t.Errorf("ReadLeb128(% x) = %d, %d; want %d, %d", tt.in, got, n, tt.want, tt.n)
		}
	}
}

func TestWalk(t *testing.T) {
	stream := testStream()

	var types []Type
	var offsets []int
	err := Walk(stream, func(o OBU) error {
		types = append(types, o.Type)
		offsets = append(offsets, o.Offset)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	wantTypes := []Type{TypeTemporalDelimiter, TypeSequenceHeader, TypeFrame}
	if diff := cmp.Diff(wantTypes, types); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
	seqLen := len(wrap(TypeSequenceHeader, reducedStillHeader()))
	wantOffsets := []int{0, 2, 2 + seqLen}
	if diff := cmp.Diff(wantOffsets, offsets); diff != "" {
		t.Errorf("offsets mismatch (-want +got):\n%s", diff)
	}
}

func TestWalk_ExtensionAndImplicitSize(t *testing.T) {
	stream := []byte{
		0x36, 0x48, 0x02, 0xaa, 0xbb, // frame with extension, tid 2, sid 1
		0x30, 0x01, 0x02, 0x03, // frame without size field
	}

	var obus []OBU
	if err := Walk(stream, func(o OBU) error {
		obus = append(obus, o)
		return nil
	}); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	if len(obus) != 2 {
		t.Fatalf("expected 2 OBUs, got %d", len(obus))
	}
	first := obus[0]
	if !first.HasExtension || first.TemporalID != 2 || first.SpatialID != 1 {
		t.Errorf("unexpected extension header %+v", first.Header)
	}
	if !bytes.Equal(first.Payload, []byte{0xaa, 0xbb}) {
		t.Errorf("unexpected payload % x", first.Payload)
	}
	second := obus[1]
	if second.HasSize {
		t.Error("expected no size field")
	}
	if !bytes.Equal(second.Payload, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("expected payload to run to the end, got % x", second.Payload)
	}
}

func TestWalk_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"forbidden bit", []byte{0x92, 0x00}, ErrForbiddenBit},
		{"payload past end", []byte{0x32, 0x05, 0x00}, ErrTruncated},
		{"size past end", []byte{0x32, 0x80}, ErrTruncated},
		{"missing extension", []byte{0x36}, ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Walk(tt.data, func(OBU) error { return nil })
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestWalk_StopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := Walk(testStream(), func(OBU) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("expected to stop after 1 call, got %d calls and %v", calls, err)
	}
}

func TestSequenceHeader(t *testing.T) {
	seq, err := SequenceHeader(testStream())
	if err != nil {
		t.Fatalf("SequenceHeader failed: %v", err)
	}
	if !bytes.Equal(seq.Data, wrap(TypeSequenceHeader, reducedStillHeader())) {
		t.Errorf("unexpected OBU % x", seq.Data)
	}

	if _, err := SequenceHeader(wrap(TypeTemporalDelimiter, nil)); !errors.Is(err, ErrNoSequenceHeader) {
		t.Errorf("expected ErrNoSequenceHeader, got %v", err)
	}
}

func TestParseSequenceHeader(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    SequenceInfo
	}{
		{
			name:    "reduced still picture",
			payload: reducedStillHeader(),
			want: SequenceInfo{
				Profile:                   0,
				StillPicture:              true,
				ReducedStillPictureHeader: true,
				LevelIdx:                  4,
				OperatingPoints:           1,
				MaxWidth:                  17,
				MaxHeight:                 15,
			},
		},
		{
			name:    "full header",
			payload: fullHeader(),
			want: SequenceInfo{
				Profile:         1,
				LevelIdx:        9,
				Tier:            1,
				OperatingPoints: 2,
				MaxWidth:        1920,
				MaxHeight:       1080,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSequenceHeader(tt.payload)
			if err != nil {
				t.Fatalf("ParseSequenceHeader failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseSequenceHeader_Errors(t *testing.T) {
	if _, err := ParseSequenceHeader(reducedStillHeader()[:2]); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}

	var w bitWriter
	w.put(0, 3)
	w.put(0, 1) // not a still picture
	w.put(1, 1) // but reduced
	if _, err := ParseSequenceHeader(w.trailing()); err == nil {
		t.Error("expected error for reduced header without still picture")
	}
}

func TestParseSequenceHeader_TruncatedTimingInfo(t *testing.T) {
	for _, n := range []int{1, 5, 9, 13} {
		if _, err := ParseSequenceHeader(fullHeader()[:n]); !errors.Is(err, ErrTruncated) {
			t.Errorf("%d bytes: expected ErrTruncated, got %v", n, err)
		}
	}
}

func TestReadUvlc(t *testing.T) {
	tests := []struct {
		name  string
		bits  []uint64 // value, width pairs
		want  uint
		trail uint // bits read after the code
	}{
		{"zero", []uint64{1, 1, 0x5, 3}, 0, 5},
		{"one", []uint64{0b010, 3, 0x5, 3}, 1, 5},
		{"six", []uint64{0b00111, 5, 0x5, 3}, 6, 5},
		{"wide", []uint64{0, 9, 1, 1, 0x1ff, 9, 0x5, 3}, 1022, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w bitWriter
			for i := 0; i < len(tt.bits); i += 2 {
				w.put(tt.bits[i], int(tt.bits[i+1]))
			}
			r := bits.NewReader(bytes.NewReader(w.buf))

			if got := readUvlc(r); got != tt.want {
				t.Errorf("readUvlc = %d, want %d", got, tt.want)
			}
			if got := r.Read(3); got != tt.trail {
				t.Errorf("next bits = %d, want %d", got, tt.trail)
			}
			if err := r.AccError(); err != nil {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestReadUvlc_Truncated(t *testing.T) {
	r := bits.NewReader(bytes.NewReader([]byte{0x00, 0x00}))
	if got := readUvlc(r); got != 0 {
		t.Errorf("readUvlc = %d, want 0", got)
	}
	if r.AccError() == nil {
		t.Error("expected an accumulated error for a code past the end")
	}
}

func TestCodecConfig(t *testing.T) {
	rec, err := CodecConfig(testStream())
	if err != nil {
		t.Fatalf("CodecConfig failed: %v", err)
	}

	if rec.Version != 1 || rec.SeqProfile != 0 || rec.SeqLevelIdx0 != 4 || rec.SeqTier0 != 0 {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.ChromaSubsamplingX != 1 || rec.ChromaSubsamplingY != 1 || rec.HighBitdepth != 0 {
		t.Errorf("expected 8-bit 4:2:0, got %+v", rec)
	}
	if !bytes.Equal(rec.ConfigOBUs, wrap(TypeSequenceHeader, reducedStillHeader())) {
		t.Errorf("unexpected config OBUs % x", rec.ConfigOBUs)
	}

	if _, err := CodecConfig([]byte{0x12, 0x00}); !errors.Is(err, ErrNoSequenceHeader) {
		t.Errorf("expected ErrNoSequenceHeader, got %v", err)
	}
}

func TestEncodeCodecConfigBox(t *testing.T) {
	box, err := EncodeCodecConfigBox(testStream())
	if err != nil {
		t.Fatalf("EncodeCodecConfigBox failed: %v", err)
	}

	seq := wrap(TypeSequenceHeader, reducedStillHeader())
	if want := 8 + 4 + len(seq); len(box) != want {
		t.Fatalf("expected %d bytes, got %d", want, len(box))
	}
	if string(box[4:8]) != "av1C" {
		t.Errorf("expected av1C box, got %q", box[4:8])
	}
	// marker+version, profile+level, tier..subsampling, no presentation delay
	if diff := cmp.Diff([]byte{0x81, 0x04, 0x0c, 0x00}, box[8:12]); diff != "" {
		t.Errorf("record header mismatch (-want +got):\n%s", diff)
	}
	if !bytes.Equal(box[12:], seq) {
		t.Errorf("unexpected config OBUs % x", box[12:])
	}
}
