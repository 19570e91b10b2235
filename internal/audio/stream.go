// Package audio streams rendered blocks to the output device. The engine
// renders channel-major float32 blocks; interleaving to the device's stereo
// PCM layout happens here, at the boundary, and nowhere else.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// BlockSource renders one block of samples into caller-owned per-channel
// buffers. Implementations must not block or allocate.
type BlockSource interface {
	RenderBlock(chans [][]float32, start, n int)
}

// StreamReader adapts a BlockSource to the float32 little-endian PCM stream
// the audio context consumes. Scratch buffers are reused across reads so
// the audio thread stays allocation-free after warmup.
type StreamReader struct {
	mu     sync.Mutex
	source BlockSource
	tap    func([]float32)
	left   []float32
	right  []float32
	inter  []float32
}

// NewStreamReader wraps source. tap, when non-nil, observes each interleaved
// stereo buffer on the audio thread; it must be brief and non-blocking.
func NewStreamReader(source BlockSource, tap func([]float32)) *StreamReader {
	return &StreamReader{source: source, tap: tap}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	if cap(r.left) < frames {
		r.left = make([]float32, frames)
		r.right = make([]float32, frames)
		r.inter = make([]float32, frames*2)
	}
	r.left = r.left[:frames]
	r.right = r.right[:frames]
	r.inter = r.inter[:frames*2]

	r.source.RenderBlock([][]float32{r.left, r.right}, 0, frames)

	for i := 0; i < frames; i++ {
		r.inter[i*2] = r.left[i]
		r.inter[i*2+1] = r.right[i]
	}
	if r.tap != nil {
		r.tap(r.inter)
	}
	for i, s := range r.inter {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return frames * 8, nil
}

func (r *StreamReader) Close() error { return nil }

// Player owns one device-backed stream over a BlockSource.
type Player struct {
	player *ebitaudio.Player
	reader *StreamReader
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

// sharedAudioContext returns the process-wide audio context. The context's
// sample rate is fixed on first use; later mismatches are an error.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// NewPlayer opens a stream at the given sample rate over source.
func NewPlayer(sampleRate int, source BlockSource, tap func([]float32)) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source, tap)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Player{player: pl, reader: reader}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }

func (p *Player) IsPlaying() bool { return p.player.IsPlaying() }

// Position returns the playback position the listener actually hears.
func (p *Player) Position() time.Duration { return p.player.Position() }

func (p *Player) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
