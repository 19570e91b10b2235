// Package engine owns the voice pool and the block render loop. Control
// writes (notes, spectrum, envelope, gain) cross to the audio goroutine
// without locks: parameter snapshots swap in at block boundaries and note
// events travel through a fixed ring, so the render path never blocks.
package engine

import (
	"math"
	"sync/atomic"

	"github.com/audazz/additive-go/internal/envelope"
	"github.com/audazz/additive-go/internal/osc"
	"github.com/audazz/additive-go/internal/spectrum"
)

// MaxVoices is the fixed polyphony of the pool.
const MaxVoices = 16

// Params carries the initial patch for a new engine.
type Params struct {
	Attack     float64
	Decay      float64
	Sustain    float64
	Release    float64
	BankGain   float64 // oscillator bank output scaling
	MasterGain float64 // runtime output volume
}

// DefaultParams returns the stock patch.
func DefaultParams() Params {
	return Params{
		Attack:     0.01,
		Decay:      0.1,
		Sustain:    0.7,
		Release:    0.5,
		BankGain:   osc.DefaultGain,
		MasterGain: 1.0,
	}
}

type envParams struct {
	attack, decay, sustain, release float64
}

// voice is one note-rendering unit: an oscillator bank, an envelope, and
// the velocity captured at note-on. Voices live for the engine's lifetime
// and are only ever reset, never reallocated.
type voice struct {
	bank     osc.HarmonicBank
	env      envelope.Generator
	note     int
	velocity float64
}

func (v *voice) prepare(sampleRate float64, p Params) {
	v.bank.Prepare(sampleRate)
	v.bank.SetGain(p.BankGain)
	v.env.Prepare(sampleRate)
	v.env.SetADSR(p.Attack, p.Decay, p.Sustain, p.Release)
	v.note = -1
}

func (v *voice) noteOn(note, velocity int, spec *spectrum.Spectrum) {
	v.note = note
	v.velocity = clamp(float64(velocity)/127.0, 0, 1)
	v.bank.SetFundamental(midiToFreq(note))
	v.bank.ApplySpectrum(spec)
	v.env.NoteOn()
}

// stop hard-silences the voice immediately, freeing it for reuse.
func (v *voice) stop() {
	v.env.Reset()
	v.note = -1
}

// renderBlock accumulates osc * env * velocity * gain into every channel.
// The voice stops as soon as its envelope goes idle.
func (v *voice) renderBlock(chans [][]float32, start, n int, gain float64) {
	for i := 0; i < n; i++ {
		if !v.env.IsActive() {
			v.note = -1
			return
		}
		level := v.env.NextSample()
		sample := float32(v.bank.NextSample() * level * v.velocity * gain)
		for _, ch := range chans {
			ch[start+i] += sample
		}
	}
}

type eventKind uint8

const (
	evNoteOn eventKind = iota
	evNoteOff
	evAllNotesOff
)

type noteEvent struct {
	kind     eventKind
	note     int
	velocity int
	tailOff  bool
}

// eventRingSize must be a power of two.
const eventRingSize = 256

// eventRing is a single-producer single-consumer ring. The facade serializes
// producers behind its own mutex; the audio goroutine is the only consumer.
type eventRing struct {
	buf  [eventRingSize]noteEvent
	head atomic.Uint64
	tail atomic.Uint64
}

func (r *eventRing) push(ev noteEvent) bool {
	t := r.tail.Load()
	if t-r.head.Load() >= eventRingSize {
		return false
	}
	r.buf[t%eventRingSize] = ev
	r.tail.Store(t + 1)
	return true
}

func (r *eventRing) pop() (noteEvent, bool) {
	h := r.head.Load()
	if h == r.tail.Load() {
		return noteEvent{}, false
	}
	ev := r.buf[h%eventRingSize]
	r.head.Store(h + 1)
	return ev, true
}

// Engine is the fixed 16-voice pool and render loop. All fields past the
// atomics are owned by the rendering side; control-plane callers reach them
// only through snapshots and the event ring.
type Engine struct {
	sampleRate float64
	voices     [MaxVoices]voice

	masterGain      uint64 // float64 bits, atomic
	pendingSpectrum atomic.Pointer[spectrum.Spectrum]
	pendingEnv      atomic.Pointer[envParams]
	events          eventRing

	current spectrum.Spectrum // working copy, swapped at block boundaries
}

// New builds an engine with every voice prepared at the given sample rate.
// Non-positive sample rates fall back to 44100 rather than failing; the
// render contract has no error path.
func New(sampleRate int, params Params) *Engine {
	if sampleRate <= 0 {
		sampleRate = osc.DefaultSampleRate
	}
	if params.BankGain == 0 {
		params.BankGain = osc.DefaultGain
	}
	e := &Engine{
		sampleRate: float64(sampleRate),
		masterGain: math.Float64bits(params.MasterGain),
	}
	for i := range e.voices {
		e.voices[i].prepare(e.sampleRate, params)
	}
	return e
}

// SampleRate returns the prepared sample rate.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// NoteOn queues a note start. The voice is assigned at the next block
// boundary; when the pool is exhausted the quietest active voice is stolen.
func (e *Engine) NoteOn(note, velocity int) {
	e.events.push(noteEvent{kind: evNoteOn, note: note, velocity: velocity})
}

// NoteOff queues a note release. With tailOff the voice enters its release
// stage; without it the voice is silenced and freed immediately.
func (e *Engine) NoteOff(note int, tailOff bool) {
	e.events.push(noteEvent{kind: evNoteOff, note: note, tailOff: tailOff})
}

// AllNotesOff queues a release (or hard stop) for every sounding voice.
func (e *Engine) AllNotesOff(tailOff bool) {
	e.events.push(noteEvent{kind: evAllNotesOff, tailOff: tailOff})
}

// SetSpectrum publishes an independent copy of the spectrum. Sounding notes
// pick it up at the next block boundary; it never tears mid-block.
func (e *Engine) SetSpectrum(s *spectrum.Spectrum) {
	snap := new(spectrum.Spectrum)
	snap.CopyFrom(s)
	e.pendingSpectrum.Store(snap)
}

// SetEnvelope publishes new ADSR parameters for every voice.
func (e *Engine) SetEnvelope(attack, decay, sustain, release float64) {
	e.pendingEnv.Store(&envParams{attack: attack, decay: decay, sustain: sustain, release: release})
}

// SetMasterGain sets the runtime output volume, effective immediately.
func (e *Engine) SetMasterGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	atomic.StoreUint64(&e.masterGain, math.Float64bits(gain))
}

func (e *Engine) masterGainValue() float64 {
	return math.Float64frombits(atomic.LoadUint64(&e.masterGain))
}

// ActiveVoiceCount returns how many voices are still sounding, release
// tails included.
func (e *Engine) ActiveVoiceCount() int {
	n := 0
	for i := range e.voices {
		if e.voices[i].env.IsActive() {
			n++
		}
	}
	return n
}

// RenderBlock applies pending control snapshots and queued note events,
// clears the region, then mixes every active voice into it. chans holds one
// caller-owned sample slice per output channel. The call cannot fail and
// performs no allocation or I/O.
func (e *Engine) RenderBlock(chans [][]float32, start, n int) {
	e.applyPending()
	for {
		ev, ok := e.events.pop()
		if !ok {
			break
		}
		e.handleEvent(ev)
	}

	for _, ch := range chans {
		region := ch[start : start+n]
		for i := range region {
			region[i] = 0
		}
	}

	gain := e.masterGainValue()
	for i := range e.voices {
		v := &e.voices[i]
		if v.env.IsActive() {
			v.renderBlock(chans, start, n, gain)
		}
	}
}

func (e *Engine) applyPending() {
	if snap := e.pendingSpectrum.Swap(nil); snap != nil {
		e.current.CopyFrom(snap)
		for i := range e.voices {
			e.voices[i].bank.ApplySpectrum(&e.current)
		}
	}
	if ep := e.pendingEnv.Swap(nil); ep != nil {
		for i := range e.voices {
			e.voices[i].env.SetADSR(ep.attack, ep.decay, ep.sustain, ep.release)
		}
	}
}

func (e *Engine) handleEvent(ev noteEvent) {
	switch ev.kind {
	case evNoteOn:
		slot := e.allocVoice()
		e.voices[slot].noteOn(ev.note, ev.velocity, &e.current)
	case evNoteOff:
		for i := range e.voices {
			v := &e.voices[i]
			if v.note != ev.note || !v.env.IsActive() {
				continue
			}
			if ev.tailOff {
				v.env.NoteOff()
			} else {
				v.stop()
			}
		}
	case evAllNotesOff:
		for i := range e.voices {
			v := &e.voices[i]
			if !v.env.IsActive() {
				continue
			}
			if ev.tailOff {
				v.env.NoteOff()
			} else {
				v.stop()
			}
		}
	}
}

// allocVoice returns a free voice, or steals the quietest active one when
// the pool is exhausted.
func (e *Engine) allocVoice() int {
	for i := range e.voices {
		if !e.voices[i].env.IsActive() {
			return i
		}
	}
	quiet := 0
	minLevel := e.voices[0].env.Level()
	for i := 1; i < len(e.voices); i++ {
		if l := e.voices[i].env.Level(); l < minLevel {
			minLevel = l
			quiet = i
		}
	}
	return quiet
}

func midiToFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
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
