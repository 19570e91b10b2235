package additive

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"testing"

	intengine "github.com/audazz/additive-go/internal/engine"
	intspec "github.com/audazz/additive-go/internal/spectrum"
)

func renderTestChord(t *testing.T) []float32 {
	t.Helper()
	var spec intspec.Spectrum
	spec.LoadPreset("Saw")
	notes := []Note{
		{Pitch: 60, Velocity: 100, Start: 0, Duration: 0.3},
		{Pitch: 64, Velocity: 100, Start: 0.1, Duration: 0.2},
		{Pitch: 67, Velocity: 100, Start: 0.2, Duration: 0.1},
	}
	out := RenderNotes(notes, &spec, intengine.DefaultParams(), 44100, 0.5)
	if out == nil {
		t.Fatal("render returned nil")
	}
	return out
}

func TestRenderNotesProducesAudio(t *testing.T) {
	out := renderTestChord(t)
	if len(out) != 44100 {
		t.Fatalf("len = %d, want 0.5s stereo = 44100 samples", len(out))
	}
	var peak float64
	for _, s := range out {
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	if peak < 0.01 {
		t.Fatalf("peak = %v, expected audible output", peak)
	}
	// Interleaved stereo carries the same signal on both channels.
	for i := 0; i < len(out); i += 2 {
		if out[i] != out[i+1] {
			t.Fatalf("channels diverge at frame %d", i/2)
		}
	}
}

func TestRenderNotesIsDeterministic(t *testing.T) {
	first := renderTestChord(t)
	second := renderTestChord(t)
	h1 := sha256.Sum256(float32Bytes(first))
	h2 := sha256.Sum256(float32Bytes(second))
	if h1 != h2 {
		t.Fatal("repeated renders differ")
	}
}

func TestRenderNotesStartsAtScheduledFrame(t *testing.T) {
	var spec intspec.Spectrum
	spec.LoadPreset("Saw")
	notes := []Note{{Pitch: 69, Velocity: 127, Start: 0.1, Duration: 0.2}}
	out := RenderNotes(notes, &spec, intengine.DefaultParams(), 44100, 0.4)
	onset := int(0.1 * 44100)
	for i := 0; i < onset*2; i++ {
		if out[i] != 0 {
			t.Fatalf("sample %d nonzero before the scheduled onset", i)
		}
	}
	var after float64
	for i := onset * 2; i < len(out); i++ {
		if a := math.Abs(float64(out[i])); a > after {
			after = a
		}
	}
	if after < 0.01 {
		t.Fatalf("peak after onset = %v, expected signal", after)
	}
}

func TestRenderNotesRejectsBadArgs(t *testing.T) {
	var spec intspec.Spectrum
	spec.LoadPreset("Sine")
	if RenderNotes(nil, &spec, intengine.DefaultParams(), 0, 1) != nil {
		t.Fatal("zero sample rate should yield nil")
	}
	if RenderNotes(nil, &spec, intengine.DefaultParams(), 44100, 0) != nil {
		t.Fatal("zero length should yield nil")
	}
}

func TestEncodeWAVFloat32LEHeader(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1}
	buf := EncodeWAVFloat32LE(samples, 48000, 2)
	if len(buf) != 44+len(samples)*4 {
		t.Fatalf("len = %d, want %d", len(buf), 44+len(samples)*4)
	}
	if !bytes.Equal(buf[0:4], []byte("RIFF")) || !bytes.Equal(buf[8:12], []byte("WAVE")) {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if !bytes.Equal(buf[12:16], []byte("fmt ")) || !bytes.Equal(buf[36:40], []byte("data")) {
		t.Fatal("missing fmt/data chunks")
	}
	if got := binary.LittleEndian.Uint16(buf[20:]); got != 3 {
		t.Fatalf("format tag = %d, want 3 (IEEE float)", got)
	}
	if got := binary.LittleEndian.Uint16(buf[22:]); got != 2 {
		t.Fatalf("channels = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(buf[24:]); got != 48000 {
		t.Fatalf("sample rate = %d, want 48000", got)
	}
	if got := binary.LittleEndian.Uint16(buf[34:]); got != 32 {
		t.Fatalf("bits per sample = %d, want 32", got)
	}
	if got := binary.LittleEndian.Uint32(buf[40:]); got != uint32(len(samples)*4) {
		t.Fatalf("data size = %d, want %d", got, len(samples)*4)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[48:])); got != 0.5 {
		t.Fatalf("second sample = %v, want 0.5", got)
	}
}

func float32Bytes(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}
