package audio

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Decibel range mapped onto the 0–255 magnitude bytes. Matches the defaults
// of the analyser capability the original host environment provides, so band
// energies land in the same numeric range either way.
const (
	minDecibels = -100.0
	maxDecibels = -30.0
)

// FFTAnalyser is an Analyser fed with raw PCM from the playback path. It keeps
// the most recent fftSize mono samples in a ring and produces a Hann-windowed
// magnitude spectrum on demand. One FrequencyMagnitudes call per frame is the
// caller's contract; each call recomputes the spectrum from the current ring.
type FFTAnalyser struct {
	mu sync.Mutex

	sampleRate float64
	fftSize    int

	ring    []float64
	ringPos int

	hann    []float64
	scratch []float64
}

var _ Analyser = &FFTAnalyser{}

// NewFFTAnalyser creates an FFTAnalyser for the given sample rate. fftSize
// must be a power of two; values below 256 are raised to 256 and non-powers
// of two are rounded up. The analyser produces fftSize/2 frequency bins.
//
// Parameters:
//   - sampleRate: the PCM sample rate in Hz
//   - fftSize: the FFT window length in samples
//
// Returns:
//   - *FFTAnalyser: the newly created analyser
func NewFFTAnalyser(sampleRate float64, fftSize int) *FFTAnalyser {
	if fftSize < 256 {
		fftSize = 256
	}
	size := 1
	for size < fftSize {
		size <<= 1
	}
	return &FFTAnalyser{
		sampleRate: sampleRate,
		fftSize:    size,
		ring:       make([]float64, size),
		hann:       window.Hann(size),
		scratch:    make([]float64, size),
	}
}

// Push appends mono float samples in [-1, 1] to the analysis ring. Older
// samples fall out once the ring is full. Safe to call from the playback
// goroutine while the frame loop reads magnitudes.
//
// Parameters:
//   - samples: mono samples to append
func (a *FFTAnalyser) Push(samples []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range samples {
		a.ring[a.ringPos] = s
		a.ringPos = (a.ringPos + 1) % a.fftSize
	}
}

// PushPCM16LE mixes interleaved 16-bit little-endian PCM down to mono and
// appends it to the analysis ring. Partial trailing frames are ignored.
//
// Parameters:
//   - data: interleaved signed 16-bit LE PCM bytes
//   - channels: the number of interleaved channels (minimum 1)
func (a *FFTAnalyser) PushPCM16LE(data []byte, channels int) {
	if channels < 1 {
		channels = 1
	}
	frameBytes := channels * 2
	frames := len(data) / frameBytes

	a.mu.Lock()
	defer a.mu.Unlock()
	for f := 0; f < frames; f++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			v := int16(binary.LittleEndian.Uint16(data[f*frameBytes+c*2:]))
			sum += float64(v) / 32768.0
		}
		a.ring[a.ringPos] = sum / float64(channels)
		a.ringPos = (a.ringPos + 1) % a.fftSize
	}
}

func (a *FFTAnalyser) BinCount() int {
	return a.fftSize / 2
}

func (a *FFTAnalyser) SampleRate() float64 {
	return a.sampleRate
}

// FrequencyMagnitudes windows the current ring contents, runs a real FFT, and
// writes per-bin magnitudes mapped from the [minDecibels, maxDecibels] range
// into 0–255 bytes.
//
// Parameters:
//   - dst: destination buffer for magnitude bins
//
// Returns:
//   - int: the number of bins written
func (a *FFTAnalyser) FrequencyMagnitudes(dst []byte) int {
	a.mu.Lock()
	// Unroll the ring into scratch, oldest sample first, and apply the window.
	for i := 0; i < a.fftSize; i++ {
		a.scratch[i] = a.ring[(a.ringPos+i)%a.fftSize] * a.hann[i]
	}
	a.mu.Unlock()

	spectrum := fft.FFTReal(a.scratch)

	n := a.fftSize / 2
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		mag := cmplxAbs(spectrum[i]) / float64(a.fftSize)
		db := minDecibels
		if mag > 0 {
			db = 20 * math.Log10(mag)
		}
		norm := (db - minDecibels) / (maxDecibels - minDecibels)
		if norm < 0 {
			norm = 0
		} else if norm > 1 {
			norm = 1
		}
		dst[i] = byte(norm * 255)
	}
	return n
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
