// Package envelope implements the four-stage ADSR amplitude envelope used
// by every voice.
package envelope

// State identifies the envelope stage.
type State int

const (
	StateIdle State = iota
	StateAttack
	StateDecay
	StateSustain
	StateRelease
)

const defaultSampleRate = 44100

// Generator is a per-voice ADSR state machine. Stage rates are per-sample
// increments derived from the stage times and the sample rate; they are
// recomputed whenever any parameter or the sample rate changes, never per
// sample.
type Generator struct {
	state      State
	sampleRate float64
	level      float64

	attackTime   float64
	decayTime    float64
	sustainLevel float64
	releaseTime  float64

	attackRate  float64
	decayRate   float64
	releaseRate float64
}

// Prepare sets the sample rate and recomputes stage rates. Non-positive
// rates fall back to 44100. Unset stage times take the stock patch values.
func (g *Generator) Prepare(sampleRate float64) {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	g.sampleRate = sampleRate
	if g.attackTime == 0 && g.decayTime == 0 && g.releaseTime == 0 && g.sustainLevel == 0 {
		g.attackTime = 0.01
		g.decayTime = 0.1
		g.sustainLevel = 0.7
		g.releaseTime = 0.5
	}
	g.calculateRates()
}

// NoteOn restarts the attack from level 0 regardless of the current stage.
// A retrigger during release does not resume from the current level.
func (g *Generator) NoteOn() {
	g.state = StateAttack
	g.level = 0
}

// NoteOff forces the release stage from whatever stage is current.
func (g *Generator) NoteOff() {
	g.state = StateRelease
}

// Reset drops the envelope to idle silence immediately.
func (g *Generator) Reset() {
	g.state = StateIdle
	g.level = 0
}

func (g *Generator) SetAttack(seconds float64) {
	g.attackTime = seconds
	g.calculateRates()
}

func (g *Generator) SetDecay(seconds float64) {
	g.decayTime = seconds
	g.calculateRates()
}

// SetSustain clamps to [0,1]. Decay and release rates depend on the sustain
// level, so they are recomputed here too.
func (g *Generator) SetSustain(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	g.sustainLevel = level
	g.calculateRates()
}

func (g *Generator) SetRelease(seconds float64) {
	g.releaseTime = seconds
	g.calculateRates()
}

// SetADSR sets all four parameters at once.
func (g *Generator) SetADSR(attack, decay, sustain, release float64) {
	g.attackTime = attack
	g.decayTime = decay
	if sustain < 0 {
		sustain = 0
	}
	if sustain > 1 {
		sustain = 1
	}
	g.sustainLevel = sustain
	g.releaseTime = release
	g.calculateRates()
}

// NextSample advances the state machine by one sample and returns the new
// level. Sustain re-forces the level every call so live sustain edits take
// effect on held notes. Decay into a zero sustain level goes straight to
// idle so the voice pool can reclaim the voice.
func (g *Generator) NextSample() float64 {
	switch g.state {
	case StateIdle:
		return 0
	case StateAttack:
		g.level += g.attackRate
		if g.level >= 1 {
			g.level = 1
			g.state = StateDecay
		}
	case StateDecay:
		g.level -= g.decayRate
		if g.level <= g.sustainLevel {
			g.level = g.sustainLevel
			if g.sustainLevel <= 0 {
				g.level = 0
				g.state = StateIdle
			} else {
				g.state = StateSustain
			}
		}
	case StateSustain:
		g.level = g.sustainLevel
	case StateRelease:
		g.level -= g.releaseRate
		if g.level <= 0 {
			g.level = 0
			g.state = StateIdle
		}
	}
	return g.level
}

// IsActive reports whether the envelope is in any stage other than idle.
// This is the liveness signal the voice pool uses to reclaim voices.
func (g *Generator) IsActive() bool { return g.state != StateIdle }

// CurrentState returns the active stage.
func (g *Generator) CurrentState() State { return g.state }

// Level returns the current output level without advancing the envelope.
func (g *Generator) Level() float64 { return g.level }

// Sustain returns the configured sustain level.
func (g *Generator) Sustain() float64 { return g.sustainLevel }

// calculateRates derives per-sample increments. A rate that comes out
// non-positive (zero times, zero sustain) becomes 1 so the stage completes
// in a single sample instead of stalling.
func (g *Generator) calculateRates() {
	sr := g.sampleRate
	if sr <= 0 {
		sr = defaultSampleRate
	}
	g.attackRate = rateOr(1/(g.attackTime*sr), 1)
	g.decayRate = rateOr((1-g.sustainLevel)/(g.decayTime*sr), 1)
	g.releaseRate = rateOr(g.sustainLevel/(g.releaseTime*sr), 1)
}

func rateOr(rate, fallback float64) float64 {
	if rate <= 0 || rate != rate {
		return fallback
	}
	return rate
}
