// Package spectrum holds the harmonic spectrum data model: per-harmonic
// amplitude/phase slots that define a timbre, plus the built-in presets.
package spectrum

import "math"

const (
	// MaxHarmonics is the number of partial slots; slot k is harmonic k+1.
	MaxHarmonics = 128
	// VisibleHarmonics is the range the presets (and any editor) cover.
	VisibleHarmonics = 32
	// EnableThreshold is the amplitude below which a harmonic counts as off.
	EnableThreshold = 0.001
)

// Harmonic is one partial's control data. Phase is stored and morphed but
// not consumed by the oscillator bank; oscillators always start at phase 0.
type Harmonic struct {
	Amplitude float64
	Phase     float64
	Enabled   bool
}

// Spectrum is a fixed array of harmonic slots. It is value-copyable; every
// consumer (voice, morphing engine) works on its own independent copy.
type Spectrum struct {
	harmonics [MaxHarmonics]Harmonic
}

// SetHarmonic writes amplitude and phase for one slot. Amplitude is clamped
// to [0,1], phase is stored as given. Out-of-range indices are ignored.
func (s *Spectrum) SetHarmonic(index int, amplitude, phase float64) {
	if index < 0 || index >= MaxHarmonics {
		return
	}
	amplitude = clamp(amplitude, 0, 1)
	s.harmonics[index].Amplitude = amplitude
	s.harmonics[index].Phase = phase
	s.harmonics[index].Enabled = amplitude > EnableThreshold
}

// SetAmplitude writes one slot's amplitude, clamped to [0,1]. The enabled
// flag is always recomputed from the stored amplitude.
func (s *Spectrum) SetAmplitude(index int, amplitude float64) {
	if index < 0 || index >= MaxHarmonics {
		return
	}
	amplitude = clamp(amplitude, 0, 1)
	s.harmonics[index].Amplitude = amplitude
	s.harmonics[index].Enabled = amplitude > EnableThreshold
}

// Harmonic returns slot data, or a zeroed disabled slot when out of range.
func (s *Spectrum) Harmonic(index int) Harmonic {
	if index < 0 || index >= MaxHarmonics {
		return Harmonic{}
	}
	return s.harmonics[index]
}

// Amplitude returns slot amplitude, or 0 when out of range.
func (s *Spectrum) Amplitude(index int) float64 {
	if index < 0 || index >= MaxHarmonics {
		return 0
	}
	return s.harmonics[index].Amplitude
}

// MorphTo blends every slot toward target in place:
// new = self*(1-t) + target*t, with t clamped to [0,1].
func (s *Spectrum) MorphTo(target *Spectrum, amount float64) {
	amount = clamp(amount, 0, 1)
	for i := range s.harmonics {
		h := &s.harmonics[i]
		h.Amplitude = h.Amplitude*(1-amount) + target.harmonics[i].Amplitude*amount
		h.Phase = h.Phase*(1-amount) + target.harmonics[i].Phase*amount
		h.Enabled = h.Amplitude > EnableThreshold
	}
}

// CopyFrom replaces all slots with other's.
func (s *Spectrum) CopyFrom(other *Spectrum) {
	s.harmonics = other.harmonics
}

// Clear silences every slot.
func (s *Spectrum) Clear() {
	s.harmonics = [MaxHarmonics]Harmonic{}
}

// PresetNames lists the built-in presets in menu order.
func PresetNames() []string {
	return []string{"Saw", "Square", "Triangle", "Sine", "Organ"}
}

// LoadPreset replaces the spectrum with a named preset series. Unknown
// names leave the spectrum cleared (silent). Preset generation writes slot
// amplitudes directly from the series formulas; the Triangle series keeps
// its alternating negative terms, which end up disabled by the threshold.
func (s *Spectrum) LoadPreset(name string) {
	s.Clear()
	switch name {
	case "Saw":
		for i := 0; i < VisibleHarmonics; i++ {
			s.harmonics[i].Amplitude = 1.0 / float64(i+1)
		}
	case "Square":
		for i := 0; i < VisibleHarmonics; i += 2 {
			s.harmonics[i].Amplitude = 1.0 / float64(i+1)
		}
	case "Triangle":
		for i := 0; i < VisibleHarmonics; i += 2 {
			amp := 1.0 / float64((i+1)*(i+1))
			if i%4 != 0 {
				amp = -amp
			}
			s.harmonics[i].Amplitude = amp
		}
	case "Sine":
		s.harmonics[0].Amplitude = 1.0
	case "Organ":
		s.harmonics[0].Amplitude = 1.0
		s.harmonics[2].Amplitude = 0.5
		s.harmonics[4].Amplitude = 0.3
	}
	for i := range s.harmonics {
		s.harmonics[i].Enabled = s.harmonics[i].Amplitude > EnableThreshold
	}
}

// WaveTable renders one cycle of the spectrum's waveform into n samples,
// summing the first 16 harmonics. Intended for display, not synthesis.
func (s *Spectrum) WaveTable(n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		var sample float64
		for h := 0; h < 16; h++ {
			amp := s.harmonics[h].Amplitude
			if amp > EnableThreshold {
				sample += amp * math.Sin(2*math.Pi*float64(h+1)*t)
			}
		}
		out[i] = sample
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
