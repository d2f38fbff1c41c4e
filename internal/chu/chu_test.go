package chu

import (
	"bytes"
	"context"
	"io"
	"testing"
	"testing/iotest"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbehnke/digimodes/internal/stream"
)

type recorder struct {
	frames  []Frame
	dropped int
}

func (r *recorder) HandleFrame(f Frame)  { r.frames = append(r.frames, f) }
func (r *recorder) HandleSyncMiss(n int) { r.dropped += n }

func newTestDecoder(h Handler) *Decoder {
	return NewDecoder(0, h, log.New(io.Discard))
}

func aFrameBytes() [FIELD_COUNT]int {
	return frameBytes(0x61, 0x23, 0x12, 0x34, 0x56)
}

func frameBytes(b ...int) [FIELD_COUNT]int  { return doubled(b, false) }
func bFrameBytes(b ...int) [FIELD_COUNT]int { return doubled(b, true) }

func doubled(b []int, complement bool) [FIELD_COUNT]int {
	var out [FIELD_COUNT]int
	for i := 0; i < FIELD_COUNT/2; i++ {
		out[i] = b[i]
		out[i+FIELD_COUNT/2] = b[i]
		if complement {
			out[i+FIELD_COUNT/2] ^= 0xFF
		}
	}
	return out
}

// encodeField is the transmit side of DecodeField.
func encodeField(v int) []uint8 {
	field := make([]uint8, FIELD_BITS)
	hi, lo := v>>4, v&0x0F
	for i := 0; i < 4; i++ {
		field[1+i] = uint8(hi>>uint(i)) & 1
		field[5+i] = uint8(lo>>uint(i)) & 1
	}
	field[9], field[10] = 1, 1
	return field
}

func encodeMessage(fields [FIELD_COUNT]int) []uint8 {
	msg := make([]uint8, 0, MESSAGE_BITS)
	for _, v := range fields {
		msg = append(msg, encodeField(v)...)
	}
	return msg
}

// modulate repeats every bit DEFAULT_SAMPLES_PER_BIT times after the preamble.
func modulate(message []uint8) []uint8 {
	samples := append([]uint8(nil), Preamble...)
	for _, b := range message {
		for i := 0; i < DEFAULT_SAMPLES_PER_BIT; i++ {
			samples = append(samples, b)
		}
	}
	return samples
}

func TestDecodeField(t *testing.T) {
	for v := 0; v < 256; v++ {
		require.Equal(t, v, DecodeField(encodeField(v)), "value %02X", v)
	}

	tests := []struct {
		name string
		bit  int
	}{
		{name: "start bit", bit: 0},
		{name: "first stop bit", bit: 9},
		{name: "second stop bit", bit: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := encodeField(0x5A)
			field[tt.bit] ^= 1
			assert.Equal(t, FIELD_ERROR, DecodeField(field))
		})
	}

	assert.Equal(t, FIELD_ERROR, DecodeField(make([]uint8, 5)))
}

func TestDecodeMessageA(t *testing.T) {
	f := DecodeMessage(encodeMessage(aFrameBytes()))
	require.NoError(t, f.Err)
	assert.Equal(t, KindA, f.Kind)
	assert.Equal(t, 123, f.DayOfYear)
	assert.Equal(t, 12, f.Hour)
	assert.Equal(t, 34, f.Minute)
	assert.Equal(t, 56, f.Second)
	assert.True(t, f.Valid())
	assert.Equal(t, "A frame: day 123 12:34:56 UTC", f.String())
}

func TestDecodeMessageB(t *testing.T) {
	tests := []struct {
		name  string
		first int
		dut1  float64
		leap  int
	}{
		{name: "positive dut1", first: 0x04, dut1: 0.4, leap: 0},
		{name: "negative dut1", first: 0x13, dut1: -0.3, leap: 0},
		{name: "leap second added", first: 0x21, dut1: 0.1, leap: 1},
		{name: "leap second removed", first: 0x42, dut1: 0.2, leap: -1},
		{name: "both warning bits", first: 0x60 | 0x10, dut1: 0, leap: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DecodeMessage(encodeMessage(bFrameBytes(tt.first, 0x20, 0x26, 0x37, 0x11)))
			require.NoError(t, f.Err)
			assert.Equal(t, KindB, f.Kind)
			assert.Equal(t, 2026, f.Year)
			assert.InDelta(t, tt.dut1, f.DUT1, 1e-9)
			assert.Equal(t, tt.leap, f.LeapSecondWarning)
			assert.Equal(t, 37, f.TAIMinusUTC)
			assert.Equal(t, 11, f.DSTPattern)
		})
	}
}

func TestDecodeMessageMismatch(t *testing.T) {
	fields := aFrameBytes()
	fields[7] = 0x99
	f := DecodeMessage(encodeMessage(fields))
	assert.ErrorIs(t, f.Err, ErrMismatch)
	assert.Equal(t, KindUnknown, f.Kind)
	assert.False(t, f.Valid())

	// Equal halves without the A marker nibble are not an A frame.
	f = DecodeMessage(encodeMessage(frameBytes(0x51, 0x23, 0x12, 0x34, 0x56)))
	assert.ErrorIs(t, f.Err, ErrMismatch)
}

func TestDecodeMessageKeepsGoodFields(t *testing.T) {
	msg := encodeMessage(aFrameBytes())
	msg[3*FIELD_BITS+9] ^= 1 // stop bit of field 3

	f := DecodeMessage(msg)
	assert.ErrorIs(t, f.Err, ErrMarker)
	assert.Equal(t, KindUnknown, f.Kind)

	want := aFrameBytes()
	for i, v := range f.Fields {
		if i == 3 {
			assert.Equal(t, FIELD_ERROR, v)
			continue
		}
		assert.Equal(t, want[i], v, "field %d", i)
	}
	assert.Contains(t, f.String(), "--")
}

func TestRecoverBits(t *testing.T) {
	samples := make([]uint8, 4*DEFAULT_SAMPLES_PER_BIT)
	// bit 0: all ones
	for i := 0; i < 16; i++ {
		samples[i] = 1
	}
	// bit 1: three flipped samples in a zero bit
	samples[16], samples[20], samples[31] = 1, 1, 1
	// bit 2: a tie
	for i := 32; i < 40; i++ {
		samples[i] = 1
	}
	// bit 3: thirteen of sixteen ones
	for i := 48; i < 61; i++ {
		samples[i] = 1
	}

	dst := make([]uint8, 4)
	RecoverBits(dst, samples, DEFAULT_SAMPLES_PER_BIT)
	assert.Equal(t, []uint8{1, 0, 0, 1}, dst)
}

func TestDecoderFindsFrame(t *testing.T) {
	rec := &recorder{}
	d := newTestDecoder(rec)
	samples := modulate(encodeMessage(aFrameBytes()))

	consumed, produced := d.Work(samples, nil)
	assert.Equal(t, PREAMBLE_LENGTH+MESSAGE_BITS*DEFAULT_SAMPLES_PER_BIT, consumed)
	assert.Equal(t, 0, produced)
	require.Len(t, rec.frames, 1)
	assert.Equal(t, 123, rec.frames[0].DayOfYear)
	assert.True(t, rec.frames[0].Time.IsZero(), "no year known yet")
}

func TestDecoderToleratesSampleErrors(t *testing.T) {
	rec := &recorder{}
	d := newTestDecoder(rec)
	samples := modulate(encodeMessage(aFrameBytes()))
	for bit := 0; bit < MESSAGE_BITS; bit++ {
		base := PREAMBLE_LENGTH + bit*DEFAULT_SAMPLES_PER_BIT
		samples[base+2] ^= 1
		samples[base+9] ^= 1
	}

	d.Work(samples, nil)
	require.Len(t, rec.frames, 1)
	assert.True(t, rec.frames[0].Valid())
}

func TestDecoderNeedsFullWindow(t *testing.T) {
	d := newTestDecoder(nil)
	samples := modulate(encodeMessage(aFrameBytes()))
	consumed, produced := d.Work(samples[:len(samples)-1], nil)
	assert.Equal(t, 0, consumed)
	assert.Equal(t, 0, produced)
	assert.Equal(t, len(samples), d.Forecast(1))
}

func TestDecoderDropsWhenNoPreamble(t *testing.T) {
	rec := &recorder{}
	d := newTestDecoder(rec)
	window := make([]uint8, 3000)
	consumed, _ := d.Work(window, nil)
	assert.Equal(t, 3000-PREAMBLE_LENGTH-d.MessageLength(), consumed)
	assert.Equal(t, consumed, rec.dropped)
	assert.Empty(t, rec.frames)
}

func TestDecoderGrowingWindowMatchesFullWindow(t *testing.T) {
	samples := append(make([]uint8, 100), modulate(encodeMessage(aFrameBytes()))...)

	full := &recorder{}
	consumedFull, _ := newTestDecoder(full).Work(samples, nil)

	grown := &recorder{}
	d := newTestDecoder(grown)
	offset := 0
	for n := 0; n <= len(samples) && len(grown.frames) == 0; n += 25 {
		end := n
		if end > len(samples) {
			end = len(samples)
		}
		if end < offset {
			continue
		}
		c, _ := d.Work(samples[offset:end], nil)
		offset += c
	}
	if len(grown.frames) == 0 {
		c, _ := d.Work(samples[offset:], nil)
		offset += c
	}

	assert.Equal(t, consumedFull, offset)
	assert.Equal(t, full.frames, grown.frames)
}

func TestDecoderYearFromBFrame(t *testing.T) {
	rec := &recorder{}
	d := newTestDecoder(rec)

	samples := modulate(encodeMessage(bFrameBytes(0x04, 0x20, 0x26, 0x37, 0x11)))
	samples = append(samples, modulate(encodeMessage(aFrameBytes()))...)

	var out bytes.Buffer
	r := stream.NewRunner(d, stream.RunnerConfig{Name: "chu"}, log.New(io.Discard))
	require.NoError(t, r.Run(context.Background(), iotest.HalfReader(bytes.NewReader(samples)), &out))

	require.Len(t, rec.frames, 2)
	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, time.Date(2026, time.May, 3, 12, 34, 56, 0, time.UTC), rec.frames[1].Time)
	assert.Zero(t, out.Len())
}

func TestTimestamp(t *testing.T) {
	f := Frame{Kind: KindA, DayOfYear: 60, Hour: 1, Minute: 2, Second: 3}
	ts, ok := f.Timestamp(2024)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.February, 29, 1, 2, 3, 0, time.UTC), ts)

	_, ok = Frame{Kind: KindB}.Timestamp(2024)
	assert.False(t, ok)
	_, ok = f.Timestamp(0)
	assert.False(t, ok)
}
