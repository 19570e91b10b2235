package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	additive "github.com/audazz/additive-go"
	intengine "github.com/audazz/additive-go/internal/engine"
	intspec "github.com/audazz/additive-go/internal/spectrum"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		preset     = flag.String("preset", "Saw", "spectrum preset: Saw|Square|Triangle|Sine|Organ")
		notesArg   = flag.String("notes", "60,64,67", "comma-separated MIDI note numbers")
		velocity   = flag.Int("velocity", 100, "MIDI velocity (0-127)")
		attack     = flag.Float64("attack", 0.01, "envelope attack seconds")
		decay      = flag.Float64("decay", 0.1, "envelope decay seconds")
		sustain    = flag.Float64("sustain", 0.7, "envelope sustain level (0-1)")
		release    = flag.Float64("release", 0.5, "envelope release seconds")
		duration   = flag.Float64("duration", 2.0, "seconds to hold the chord")
		volume     = flag.Float64("volume", 1.0, "master volume scalar")
		morphTo    = flag.String("morph-target", "", "preset to morph toward")
		morph      = flag.Float64("morph", 0, "morph amount (0-1)")
		outPath    = flag.String("out", "", "render to a WAV file instead of playing")
	)
	flag.Parse()

	notes, err := parseNotes(*notesArg)
	if err != nil {
		log.Fatal(err)
	}

	var spec intspec.Spectrum
	spec.LoadPreset(*preset)
	if *morphTo != "" {
		var target intspec.Spectrum
		target.LoadPreset(*morphTo)
		spec.MorphTo(&target, *morph)
	}

	if *outPath != "" {
		if err := renderToFile(*outPath, notes, &spec, *attack, *decay, *sustain, *release, *velocity, *sampleRate, *duration); err != nil {
			log.Fatal(err)
		}
		return
	}

	synth, err := additive.NewSynth(*sampleRate)
	if err != nil {
		log.Fatal(err)
	}
	synth.SetSpectrum(&spec)
	synth.SetEnvelope(*attack, *decay, *sustain, *release)
	synth.SetMasterVolume(*volume)
	if err := synth.Start(); err != nil {
		log.Fatal(err)
	}
	for _, n := range notes {
		synth.NoteOn(n, *velocity)
	}
	time.Sleep(time.Duration(*duration * float64(time.Second)))
	for _, n := range notes {
		synth.NoteOff(n, true)
	}
	time.Sleep(time.Duration((*release + 0.1) * float64(time.Second)))
	if err := synth.Stop(); err != nil {
		log.Fatal(err)
	}
}

func renderToFile(path string, notes []int, spec *intspec.Spectrum, attack, decay, sustain, release float64, velocity, sampleRate int, duration float64) error {
	scheduled := make([]additive.Note, 0, len(notes))
	for _, n := range notes {
		scheduled = append(scheduled, additive.Note{Pitch: n, Velocity: velocity, Start: 0, Duration: duration})
	}
	params := intengine.DefaultParams()
	params.Attack, params.Decay, params.Sustain, params.Release = attack, decay, sustain, release
	samples := additive.RenderNotes(scheduled, spec, params, sampleRate, duration+release+0.1)
	wav := additive.EncodeWAVFloat32LE(samples, sampleRate, 2)
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d samples)\n", path, len(samples))
	return nil
}

func parseNotes(arg string) ([]int, error) {
	parts := strings.Split(arg, ",")
	notes := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 127 {
			return nil, fmt.Errorf("invalid MIDI note %q (expected 0-127)", p)
		}
		notes = append(notes, n)
	}
	if len(notes) == 0 {
		return nil, fmt.Errorf("no notes given")
	}
	return notes, nil
}
