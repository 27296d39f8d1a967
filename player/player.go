package player

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dlmmedia/nebula/engine/audio"
	"github.com/ebitengine/oto/v3"
)

const analyserFFTSize = 2048

// tapReader forwards decoded PCM to the audio device while feeding a copy to
// the spectrum analyser and tracking the byte position.
type tapReader struct {
	mu       sync.Mutex
	reader   io.Reader
	analyser *audio.FFTAnalyser
	channels int
	pos      int64
}

func (t *tapReader) Read(p []byte) (int, error) {
	n, err := t.reader.Read(p)
	if n > 0 {
		t.analyser.PushPCM16LE(p[:n], t.channels)
		t.mu.Lock()
		t.pos += int64(n)
		t.mu.Unlock()
	}
	return n, err
}

func (t *tapReader) Pos() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos
}

// Player decodes an audio file and plays it through the default output
// device. Every PCM chunk that reaches the device also reaches the analyser,
// so the spectrum the visualizer sees is what the listener hears.
type Player struct {
	mu sync.Mutex

	file      *os.File
	dec       trackDecoder
	tap       *tapReader
	otoCtx    *oto.Context
	otoPlayer *oto.Player

	analyser    *audio.FFTAnalyser
	bytesPerSec int64
	duration    time.Duration

	done    chan struct{}
	started bool
	paused  bool
	closed  bool
}

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

// One audio context per process; oto refuses a second one.
func initOtoContext(sampleRate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}

// Open prepares the file for playback. Supported formats are MP3, WAV, FLAC,
// and OGG Vorbis, detected by extension. Playback does not start until Play
// is called.
func Open(path string) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec, err := newTrackDecoder(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	ctx, err := initOtoContext(dec.SampleRate(), dec.Channels())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening audio device: %w", err)
	}

	analyser := audio.NewFFTAnalyser(float64(dec.SampleRate()), analyserFFTSize)
	tap := &tapReader{reader: dec, analyser: analyser, channels: dec.Channels()}

	bytesPerSec := int64(dec.SampleRate()) * int64(dec.Channels()) * 2
	var duration time.Duration
	if total := dec.Length(); total > 0 {
		duration = time.Duration(float64(total) / float64(bytesPerSec) * float64(time.Second))
	}

	p := &Player{
		file:        f,
		dec:         dec,
		tap:         tap,
		otoCtx:      ctx,
		analyser:    analyser,
		bytesPerSec: bytesPerSec,
		duration:    duration,
		done:        make(chan struct{}),
	}
	p.otoPlayer = ctx.NewPlayer(tap)
	p.otoPlayer.SetVolume(0.8)
	return p, nil
}

// Play starts or resumes playback.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.otoPlayer.Play()
	if !p.started {
		p.started = true
		go p.monitor()
	}
	p.paused = false
}

// TogglePause switches between playing and paused.
func (p *Player) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if p.paused {
		p.otoPlayer.Play()
	} else {
		p.otoPlayer.Pause()
	}
	p.paused = !p.paused
}

// Paused reports whether playback is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Analyser returns the spectrum source fed by this player.
func (p *Player) Analyser() audio.Analyser {
	return p.analyser
}

// Position returns how much of the track has been decoded so far.
func (p *Player) Position() time.Duration {
	secs := float64(p.tap.Pos()) / float64(p.bytesPerSec)
	return time.Duration(secs * float64(time.Second))
}

// Duration returns the track length, or 0 when the container does not
// declare one.
func (p *Player) Duration() time.Duration {
	return p.duration
}

// Done returns a channel that closes when the track finishes.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// SetVolume sets playback volume, clamped to [0, 1].
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	p.otoPlayer.SetVolume(v)
}

// monitor closes the done channel once the decoder has been drained and the
// device buffer has played out.
func (p *Player) monitor() {
	total := p.dec.Length()
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return
		}
		buffered := p.otoPlayer.BufferedSize()
		p.mu.Unlock()

		pos := p.tap.Pos()
		if total > 0 && pos >= total && buffered == 0 {
			close(p.done)
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// Close stops playback and releases the file. Safe to call more than once.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.otoPlayer.Pause()
	p.file.Close()
}
