// Package additive is a polyphonic additive synthesizer. Each note sums up
// to 128 harmonic sine partials shaped by an ADSR envelope; a morphing
// engine interpolates between two harmonic spectra. The Synth type is the
// control-plane facade: the host calls it from any goroutine while the
// engine renders on the audio thread.
package additive

import (
	"errors"
	"sync"

	intaudio "github.com/audazz/additive-go/internal/audio"
	intengine "github.com/audazz/additive-go/internal/engine"
	intmorph "github.com/audazz/additive-go/internal/morph"
	intspec "github.com/audazz/additive-go/internal/spectrum"
)

// Re-exported limits so hosts need not import internal packages.
const (
	MaxHarmonics = intspec.MaxHarmonics
	MaxVoices    = intengine.MaxVoices
)

// PresetNames lists the built-in spectrum presets.
func PresetNames() []string { return intspec.PresetNames() }

type Option func(*synthConfig)

type synthConfig struct {
	preset    string
	sampleTap func([]float32)
}

func defaultSynthConfig() synthConfig {
	return synthConfig{preset: "Saw"}
}

// WithPreset selects the spectrum preset loaded at construction.
func WithPreset(name string) Option {
	return func(cfg *synthConfig) {
		cfg.preset = name
	}
}

// WithSampleTap installs a callback invoked with each generated stereo
// buffer. The callback runs on the audio thread; keep work brief and
// non-blocking.
func WithSampleTap(tap func([]float32)) Option {
	return func(cfg *synthConfig) {
		cfg.sampleTap = tap
	}
}

// Synth pairs the voice engine with a live editable spectrum, envelope
// parameters, the morphing engine, and an optional audio device stream.
type Synth struct {
	mu         sync.Mutex
	sampleRate int
	engine     *intengine.Engine
	audio      *intaudio.Player
	morpher    intmorph.Engine
	current    intspec.Spectrum
	sampleTap  func([]float32)

	attack  float64
	decay   float64
	sustain float64
	release float64

	baseGain float64
	volume   float64
}

// NewSynth builds a synth prepared at the given sample rate. No audio
// device is touched until Start.
func NewSynth(sampleRate int, opts ...Option) (*Synth, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultSynthConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	params := intengine.DefaultParams()
	s := &Synth{
		sampleRate: sampleRate,
		engine:     intengine.New(sampleRate, params),
		sampleTap:  cfg.sampleTap,
		attack:     params.Attack,
		decay:      params.Decay,
		sustain:    params.Sustain,
		release:    params.Release,
		baseGain:   params.MasterGain,
		volume:     1,
	}
	s.current.LoadPreset(cfg.preset)
	s.engine.SetSpectrum(&s.current)
	s.morpher.SetSource(&s.current)
	s.morpher.SetTarget(&s.current)
	return s, nil
}

// Start opens the audio device stream and begins playback. Calling Start on
// a running synth is a no-op.
func (s *Synth) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audio != nil {
		return nil
	}
	backend, err := intaudio.NewPlayer(s.sampleRate, s.engine, s.sampleTap)
	if err != nil {
		return err
	}
	s.audio = backend
	s.audio.Play()
	return nil
}

func (s *Synth) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audio != nil {
		s.audio.Pause()
	}
}

func (s *Synth) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audio != nil {
		s.audio.Play()
	}
}

// Stop silences all voices and closes the device stream.
func (s *Synth) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.AllNotesOff(false)
	if s.audio == nil {
		return nil
	}
	err := s.audio.Stop()
	s.audio = nil
	return err
}

// NoteOn starts a note. velocity is MIDI-style 0-127.
func (s *Synth) NoteOn(note, velocity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.NoteOn(note, velocity)
}

// NoteOff releases a note. With tailOff the envelope runs its release
// stage; without it the voice is silenced immediately.
func (s *Synth) NoteOff(note int, tailOff bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.NoteOff(note, tailOff)
}

// AllNotesOff releases (or hard-stops) every sounding voice.
func (s *Synth) AllNotesOff(tailOff bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.AllNotesOff(tailOff)
}

// SetSpectrum replaces the live spectrum. Sounding notes retune at the next
// block boundary.
func (s *Synth) SetSpectrum(sp *intspec.Spectrum) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSpectrumLocked(sp)
}

func (s *Synth) setSpectrumLocked(sp *intspec.Spectrum) {
	s.current.CopyFrom(sp)
	s.engine.SetSpectrum(&s.current)
}

// Spectrum returns a copy of the live spectrum.
func (s *Synth) Spectrum() intspec.Spectrum {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// LoadPreset replaces the live spectrum with a named preset. Unknown names
// load silence.
func (s *Synth) LoadPreset(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.LoadPreset(name)
	s.engine.SetSpectrum(&s.current)
}

// SetHarmonicAmplitude edits one slot of the live spectrum.
func (s *Synth) SetHarmonicAmplitude(index int, amplitude float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.SetAmplitude(index, amplitude)
	s.engine.SetSpectrum(&s.current)
}

// SetEnvelope sets the ADSR parameters (seconds, sustain 0-1) for every
// voice.
func (s *Synth) SetEnvelope(attack, decay, sustain, release float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setEnvelopeLocked(attack, decay, sustain, release)
}

func (s *Synth) setEnvelopeLocked(attack, decay, sustain, release float64) {
	s.attack, s.decay, s.sustain, s.release = attack, decay, sustain, release
	s.engine.SetEnvelope(attack, decay, sustain, release)
}

// Envelope returns the current ADSR parameters.
func (s *Synth) Envelope() (attack, decay, sustain, release float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attack, s.decay, s.sustain, s.release
}

// SetMasterVolume sets the runtime volume scalar. 1.0 is default.
func (s *Synth) SetMasterVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setMasterVolumeLocked(volume)
}

func (s *Synth) setMasterVolumeLocked(volume float64) {
	if volume < 0 {
		volume = 0
	}
	s.volume = volume
	s.engine.SetMasterGain(s.baseGain * s.volume)
}

func (s *Synth) MasterVolume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetMorphSource sets the morph source spectrum (an independent copy).
func (s *Synth) SetMorphSource(sp *intspec.Spectrum) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.morpher.SetSource(sp)
}

// SetMorphTarget sets the morph target spectrum (an independent copy).
func (s *Synth) SetMorphTarget(sp *intspec.Spectrum) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.morpher.SetTarget(sp)
}

// CaptureMorphSource snapshots the live spectrum as the morph source.
func (s *Synth) CaptureMorphSource() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.morpher.SetSource(&s.current)
}

// CaptureMorphTarget snapshots the live spectrum as the morph target.
func (s *Synth) CaptureMorphTarget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.morpher.SetTarget(&s.current)
}

// SetMorphAmount moves the blend factor and pushes the blended spectrum
// live, so sounding notes follow the morph.
func (s *Synth) SetMorphAmount(amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setMorphAmountLocked(amount)
}

func (s *Synth) setMorphAmountLocked(amount float64) {
	s.morpher.SetAmount(amount)
	blended := s.morpher.Current()
	s.setSpectrumLocked(&blended)
}

func (s *Synth) MorphAmount() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.morpher.Amount()
}

// ActiveVoiceCount returns how many voices are still sounding, release
// tails included.
func (s *Synth) ActiveVoiceCount() int {
	return s.engine.ActiveVoiceCount()
}

// MIDI controller numbers the synth responds to.
const (
	ccModWheel      = 1  // morph amount
	ccMasterVolume  = 7  // master volume
	ccHarmonicFirst = 16 // harmonics 1-32 amplitude
	ccHarmonicLast  = 47
	ccSustainLevel  = 70 // sustain 0-1
	ccReleaseTime   = 72 // release 0-5 s
	ccAttackTime    = 73 // attack 0-2 s
	ccDecayTime     = 75 // decay 0-2 s
)

// ControlChange applies a MIDI CC message using the synth's control map:
// CC1 morph amount, CC7 master volume, CC16-47 harmonics 1-32, CC70
// sustain, CC72 release, CC73 attack, CC75 decay. Unmapped controllers are
// ignored.
func (s *Synth) ControlChange(controller, value int) {
	if value < 0 {
		value = 0
	}
	if value > 127 {
		value = 127
	}
	norm := float64(value) / 127.0

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case controller == ccModWheel:
		s.setMorphAmountLocked(norm)
	case controller == ccMasterVolume:
		s.setMasterVolumeLocked(norm)
	case controller >= ccHarmonicFirst && controller <= ccHarmonicLast:
		s.current.SetAmplitude(controller-ccHarmonicFirst, norm)
		s.engine.SetSpectrum(&s.current)
	case controller == ccSustainLevel:
		s.setEnvelopeLocked(s.attack, s.decay, norm, s.release)
	case controller == ccReleaseTime:
		s.setEnvelopeLocked(s.attack, s.decay, s.sustain, timeFromNorm(norm, 5))
	case controller == ccAttackTime:
		s.setEnvelopeLocked(timeFromNorm(norm, 2), s.decay, s.sustain, s.release)
	case controller == ccDecayTime:
		s.setEnvelopeLocked(s.attack, timeFromNorm(norm, 2), s.sustain, s.release)
	}
}

// timeFromNorm maps a 0-1 controller value onto (0, max] seconds with the
// same 1 ms floor the original control surface uses.
func timeFromNorm(norm, maxSeconds float64) float64 {
	t := norm * maxSeconds
	if t < 0.001 {
		t = 0.001
	}
	return t
}

// PlaybackPosition returns the device stream position in samples, i.e. what
// the listener actually hears right now. Returns 0 if not playing.
func (s *Synth) PlaybackPosition() int64 {
	s.mu.Lock()
	a := s.audio
	s.mu.Unlock()
	if a == nil {
		return 0
	}
	return int64(a.Position().Seconds() * float64(s.sampleRate))
}
