package additive

import (
	"encoding/binary"
	"math"
	"sort"

	intengine "github.com/audazz/additive-go/internal/engine"
	intspec "github.com/audazz/additive-go/internal/spectrum"
)

// Note schedules one note for offline rendering. Times are in seconds from
// the start of the render.
type Note struct {
	Pitch    int
	Velocity int
	Start    float64
	Duration float64
}

// RenderNotes renders the scheduled notes through a fresh engine and
// returns interleaved stereo float32 samples. Note on/offs are applied
// sample-accurately by splitting the render at event boundaries; releases
// ring out for as long as the requested length allows.
func RenderNotes(notes []Note, sp *intspec.Spectrum, env intengine.Params, sampleRate int, seconds float64) []float32 {
	if sampleRate <= 0 || seconds <= 0 {
		return nil
	}
	eng := intengine.New(sampleRate, env)
	eng.SetSpectrum(sp)

	frames := int(float64(sampleRate) * seconds)
	left := make([]float32, frames)
	right := make([]float32, frames)
	chans := [][]float32{left, right}

	type schedEvent struct {
		frame    int
		on       bool
		note     int
		velocity int
	}
	events := make([]schedEvent, 0, len(notes)*2)
	for _, n := range notes {
		on := int(n.Start * float64(sampleRate))
		off := int((n.Start + n.Duration) * float64(sampleRate))
		if on < 0 {
			on = 0
		}
		events = append(events, schedEvent{frame: on, on: true, note: n.Pitch, velocity: n.Velocity})
		if off > on {
			events = append(events, schedEvent{frame: off, on: false, note: n.Pitch})
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].frame < events[j].frame })

	cursor := 0
	next := 0
	for cursor < frames {
		for next < len(events) && events[next].frame <= cursor {
			ev := events[next]
			if ev.on {
				eng.NoteOn(ev.note, ev.velocity)
			} else {
				eng.NoteOff(ev.note, true)
			}
			next++
		}
		end := frames
		if next < len(events) && events[next].frame < end {
			end = events[next].frame
		}
		if end <= cursor {
			end = cursor + 1
		}
		eng.RenderBlock(chans, cursor, end-cursor)
		cursor = end
	}

	out := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		out[i*2] = left[i]
		out[i*2+1] = right[i]
	}
	return out
}

// EncodeWAVFloat32LE wraps samples in a WAV container (IEEE float, 32-bit
// little-endian).
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
