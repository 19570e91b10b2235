// Package morph blends two harmonic spectra under a single morph amount.
package morph

import "github.com/audazz/additive-go/internal/spectrum"

// Engine holds independent copies of a source and target spectrum plus a
// blend factor. It caches no blended result; Current computes one on every
// call.
type Engine struct {
	source spectrum.Spectrum
	target spectrum.Spectrum
	amount float64
}

// SetSource copies the given spectrum as the morph source.
func (e *Engine) SetSource(s *spectrum.Spectrum) {
	e.source.CopyFrom(s)
}

// SetTarget copies the given spectrum as the morph target.
func (e *Engine) SetTarget(s *spectrum.Spectrum) {
	e.target.CopyFrom(s)
}

// SetAmount sets the blend factor, clamped to [0,1].
func (e *Engine) SetAmount(amount float64) {
	if amount < 0 {
		amount = 0
	}
	if amount > 1 {
		amount = 1
	}
	e.amount = amount
}

// Amount returns the current blend factor.
func (e *Engine) Amount() float64 { return e.amount }

// Current returns source blended toward target by the morph amount. The
// stored endpoints are never mutated by this query.
func (e *Engine) Current() spectrum.Spectrum {
	var result spectrum.Spectrum
	result.CopyFrom(&e.source)
	result.MorphTo(&e.target, e.amount)
	return result
}
