// Package osc implements the sine partial oscillator and the 128-slot
// harmonic bank that sums one partial per harmonic of a fundamental.
package osc

import (
	"math"

	"github.com/audazz/additive-go/internal/spectrum"
)

const twoPi = 2 * math.Pi

// DefaultSampleRate is used when a component renders before Prepare.
const DefaultSampleRate = 44100

// silenceThreshold mirrors the spectrum enable threshold: partials below it
// are skipped entirely.
const silenceThreshold = 0.001

// Sine is a single phase-accumulating sine partial. The phase increment is
// cached and recomputed only when frequency or sample rate changes.
type Sine struct {
	sampleRate float64
	frequency  float64
	amplitude  float64
	phase      float64
	phaseInc   float64
}

// Prepare sets the sample rate. Non-positive rates fall back to the default.
func (o *Sine) Prepare(sampleRate float64) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	o.sampleRate = sampleRate
	if o.frequency == 0 {
		o.frequency = 440
	}
	o.updatePhaseInc()
}

// Reset zeros the oscillator phase.
func (o *Sine) Reset() { o.phase = 0 }

func (o *Sine) SetFrequency(freq float64) {
	o.frequency = freq
	o.updatePhaseInc()
}

// SetAmplitude clamps to [0,1].
func (o *Sine) SetAmplitude(amp float64) {
	if amp < 0 {
		amp = 0
	}
	if amp > 1 {
		amp = 1
	}
	o.amplitude = amp
}

func (o *Sine) Amplitude() float64 { return o.amplitude }
func (o *Sine) Frequency() float64 { return o.frequency }

// NextSample produces one sample and advances the phase. Inaudible partials
// short-circuit to 0 without advancing phase; this is a work-skipping fast
// path, so phase continuity on re-enable is best-effort only.
func (o *Sine) NextSample() float64 {
	if o.amplitude < silenceThreshold {
		return 0
	}
	sample := o.amplitude * math.Sin(o.phase)
	o.phase += o.phaseInc
	if o.phase >= twoPi {
		o.phase -= twoPi
	}
	return sample
}

func (o *Sine) updatePhaseInc() {
	sr := o.sampleRate
	if sr <= 0 {
		sr = DefaultSampleRate
	}
	o.phaseInc = twoPi * o.frequency / sr
}

// DefaultGain is the bank's output scaling.
const DefaultGain = 0.5

// HarmonicBank owns one Sine per harmonic slot and drives the whole set
// from a fundamental frequency and a spectrum's amplitudes.
type HarmonicBank struct {
	oscillators [spectrum.MaxHarmonics]Sine
	fundamental float64
	gain        float64
}

// Prepare forwards the sample rate to every oscillator and establishes the
// default gain and fundamental.
func (b *HarmonicBank) Prepare(sampleRate float64) {
	for i := range b.oscillators {
		b.oscillators[i].Prepare(sampleRate)
	}
	if b.gain == 0 {
		b.gain = DefaultGain
	}
	if b.fundamental == 0 {
		b.fundamental = 440
	}
	b.updateFrequencies()
}

// Reset zeros every oscillator's phase.
func (b *HarmonicBank) Reset() {
	for i := range b.oscillators {
		b.oscillators[i].Reset()
	}
}

// SetFundamental retunes oscillator k to fundamental*(k+1).
func (b *HarmonicBank) SetFundamental(freq float64) {
	b.fundamental = freq
	b.updateFrequencies()
}

// ApplySpectrum copies slot amplitudes onto the oscillators. The spectrum's
// phase values are deliberately unused; partials run from their own phase.
func (b *HarmonicBank) ApplySpectrum(s *spectrum.Spectrum) {
	for i := range b.oscillators {
		b.oscillators[i].SetAmplitude(s.Amplitude(i))
	}
}

// SetGain replaces the bank output scaling.
func (b *HarmonicBank) SetGain(gain float64) { b.gain = gain }

// Gain returns the bank output scaling.
func (b *HarmonicBank) Gain() float64 { return b.gain }

// NextSample sums all partials for one output sample. Each oscillator is
// advanced exactly once per call.
func (b *HarmonicBank) NextSample() float64 {
	var sample float64
	for i := range b.oscillators {
		sample += b.oscillators[i].NextSample()
	}
	return sample * b.gain
}

func (b *HarmonicBank) updateFrequencies() {
	for i := range b.oscillators {
		b.oscillators[i].SetFrequency(b.fundamental * float64(i+1))
	}
}
