package envelope

import (
	"math"
	"testing"
)

func TestIdleEmitsZero(t *testing.T) {
	var g Generator
	g.Prepare(44100)
	for i := 0; i < 10; i++ {
		if got := g.NextSample(); got != 0 {
			t.Fatalf("idle sample = %v, want 0", got)
		}
	}
	if g.IsActive() {
		t.Fatal("idle envelope should not be active")
	}
}

func TestAttackReachesFullLevelThenDecay(t *testing.T) {
	var g Generator
	g.Prepare(44100)
	g.SetADSR(0.01, 0.1, 0.7, 0.5)
	g.NoteOn()

	steps := 0
	for g.CurrentState() == StateAttack {
		g.NextSample()
		steps++
		if steps > 1000 {
			t.Fatal("attack never completed")
		}
	}
	// 0.01s at 44100 Hz is ~441 steps to ramp 0 -> 1.
	if steps < 440 || steps > 442 {
		t.Fatalf("attack took %d steps, want ~441", steps)
	}
	if g.CurrentState() != StateDecay {
		t.Fatalf("state = %v, want decay", g.CurrentState())
	}
	if g.Level() != 1 {
		t.Fatalf("level = %v, want 1 at end of attack", g.Level())
	}
}

func TestDecaySettlesAtSustain(t *testing.T) {
	var g Generator
	g.Prepare(44100)
	g.SetADSR(0.001, 0.01, 0.6, 0.5)
	g.NoteOn()
	for i := 0; i < 44100 && g.CurrentState() != StateSustain; i++ {
		g.NextSample()
	}
	if g.CurrentState() != StateSustain {
		t.Fatal("never reached sustain")
	}
	if g.Level() != 0.6 {
		t.Fatalf("level = %v, want 0.6", g.Level())
	}
}

func TestSustainTracksLiveParameterChange(t *testing.T) {
	var g Generator
	g.Prepare(44100)
	g.SetADSR(0.001, 0.001, 0.8, 0.5)
	g.NoteOn()
	for g.CurrentState() != StateSustain {
		g.NextSample()
	}
	g.SetSustain(0.3)
	if got := g.NextSample(); got != 0.3 {
		t.Fatalf("sustain sample = %v, want 0.3 after live change", got)
	}
}

func TestReleaseDecreasesMonotonicallyToIdle(t *testing.T) {
	var g Generator
	g.Prepare(44100)
	g.SetADSR(0.001, 0.001, 0.7, 0.05)
	g.NoteOn()
	for g.CurrentState() != StateSustain {
		g.NextSample()
	}
	g.NoteOff()
	if g.CurrentState() != StateRelease {
		t.Fatalf("state = %v, want release", g.CurrentState())
	}
	prev := g.Level()
	for g.CurrentState() == StateRelease {
		level := g.NextSample()
		if level > prev {
			t.Fatalf("release level rose from %v to %v", prev, level)
		}
		prev = level
		// State must flip to idle exactly when the level bottoms out.
		if g.CurrentState() == StateIdle && level != 0 {
			t.Fatalf("idle with level %v, want 0", level)
		}
	}
	if g.Level() != 0 || g.IsActive() {
		t.Fatalf("after release: level=%v active=%v", g.Level(), g.IsActive())
	}
}

func TestReleaseDuration(t *testing.T) {
	var g Generator
	g.Prepare(44100)
	g.SetADSR(0.001, 0.001, 0.7, 0.1)
	g.NoteOn()
	for g.CurrentState() != StateSustain {
		g.NextSample()
	}
	g.NoteOff()
	steps := 0
	for g.IsActive() {
		g.NextSample()
		steps++
		if steps > 88200 {
			t.Fatal("release never finished")
		}
	}
	// releaseRate = sustain/(release*sr), so the ramp from sustain to 0
	// takes ~release*sr steps regardless of the sustain level.
	want := 0.1 * 44100
	if math.Abs(float64(steps)-want) > 3 {
		t.Fatalf("release took %d steps, want ~%v", steps, want)
	}
}

func TestNoteOffFromAttackEntersRelease(t *testing.T) {
	var g Generator
	g.Prepare(44100)
	g.SetADSR(0.5, 0.1, 0.7, 0.05)
	g.NoteOn()
	for i := 0; i < 100; i++ {
		g.NextSample()
	}
	g.NoteOff()
	if g.CurrentState() != StateRelease {
		t.Fatalf("state = %v, want release", g.CurrentState())
	}
}

func TestRetriggerRestartsAttackFromZero(t *testing.T) {
	var g Generator
	g.Prepare(44100)
	g.SetADSR(0.1, 0.1, 0.7, 0.5)
	g.NoteOn()
	for i := 0; i < 2000; i++ {
		g.NextSample()
	}
	g.NoteOff()
	g.NextSample()
	if g.Level() <= 0 {
		t.Fatal("expected mid-release level > 0")
	}
	g.NoteOn()
	if g.CurrentState() != StateAttack || g.Level() != 0 {
		t.Fatalf("retrigger: state=%v level=%v, want attack from 0", g.CurrentState(), g.Level())
	}
}

func TestDecayIntoZeroSustainGoesIdle(t *testing.T) {
	var g Generator
	g.Prepare(44100)
	g.SetADSR(0.001, 0.001, 0, 0.5)
	g.NoteOn()
	for i := 0; i < 500 && g.IsActive(); i++ {
		g.NextSample()
	}
	if g.IsActive() {
		t.Fatal("zero-sustain envelope should go idle without a note-off")
	}
	if g.Level() != 0 {
		t.Fatalf("level = %v, want 0", g.Level())
	}
}

func TestZeroTimesCompleteInOneSample(t *testing.T) {
	var g Generator
	g.Prepare(44100)
	g.SetADSR(0, 0, 0.5, 0)
	g.NoteOn()
	g.NextSample() // attack jumps straight to full level
	if g.CurrentState() != StateDecay {
		t.Fatalf("state = %v, want decay after one sample", g.CurrentState())
	}
	g.NextSample()
	if g.CurrentState() != StateSustain {
		t.Fatalf("state = %v, want sustain after two samples", g.CurrentState())
	}
	g.NoteOff()
	g.NextSample()
	if g.IsActive() {
		t.Fatal("zero release should finish in one sample")
	}
}

func TestPrepareDefaultsAndRecomputesRates(t *testing.T) {
	var g Generator
	g.Prepare(0)
	if g.sampleRate != defaultSampleRate {
		t.Fatalf("sampleRate = %v, want %v", g.sampleRate, defaultSampleRate)
	}
	// Stock patch values applied when nothing was configured.
	if g.attackTime != 0.01 || g.sustainLevel != 0.7 {
		t.Fatalf("defaults not applied: attack=%v sustain=%v", g.attackTime, g.sustainLevel)
	}
}
