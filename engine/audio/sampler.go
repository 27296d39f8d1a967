package audio

import (
	"math"

	"github.com/dlmmedia/nebula/common"
)

// Frequency boundaries of the three bands in Hz. Bass covers the kick/sub
// range, mid the vocal/instrument body, high the brilliance range.
const (
	bassLowHz  = 20.0
	bassHighHz = 120.0
	midHighHz  = 2000.0
	highHighHz = 8000.0
)

// minUsableBins is the smallest spectrum that can still be split into three
// non-empty, disjoint bin ranges (plus the skipped DC bin).
const minUsableBins = 4

// Sampler reduces one spectrum read per frame to three normalized band
// energies. When no analyser is attached or audio is not playing it
// synthesizes a deterministic idle waveform instead, so the scene stays
// visibly alive between tracks.
//
// A Sampler is owned by the frame loop and is not safe for concurrent use;
// the read buffer is reused across frames to avoid per-frame allocation.
type Sampler struct {
	bins []byte
}

// NewSampler creates a Sampler with an empty reusable read buffer.
//
// Returns:
//   - *Sampler: the newly created sampler
func NewSampler() *Sampler {
	return &Sampler{}
}

// Sample produces the band energies for the current frame. This is the only
// place an analyser read happens; callers must invoke it at most once per
// frame. A nil analyser (including one swapped out mid-frame by the host) is
// not an error — the idle waveform is used instead.
//
// Parameters:
//   - playing: whether audio is currently playing
//   - an: the attached analyser capability, or nil
//   - elapsed: total elapsed scene time in seconds (drives the idle waveform)
//
// Returns:
//   - BandSample: the three normalized band energies, each in [0, 1]
func (s *Sampler) Sample(playing bool, an Analyser, elapsed float64) BandSample {
	if !playing || an == nil {
		return idleSample(elapsed)
	}

	n := an.BinCount()
	if n < minUsableBins {
		// Too few bins to form three disjoint bands; treat as no data.
		return BandSample{}
	}
	if cap(s.bins) < n {
		s.bins = make([]byte, n)
	}
	s.bins = s.bins[:n]

	got := an.FrequencyMagnitudes(s.bins)
	if got < minUsableBins {
		return BandSample{}
	}

	nyquist := an.SampleRate() / 2
	b0, b1, b2, b3 := bandBoundaries(nyquist, got)

	return BandSample{
		Bass: averageBins(s.bins, b0, b1),
		Mid:  averageBins(s.bins, b1, b2),
		High: averageBins(s.bins, b2, b3),
	}
}

// idleSample synthesizes band values from phase-offset sinusoids of fixed low
// frequencies. The offsets and amplitudes are biased so idle motion reads as
// alive but calmer than active playback. Deterministic in elapsed.
//
// Parameters:
//   - elapsed: total elapsed scene time in seconds
//
// Returns:
//   - BandSample: the synthesized idle band energies
func idleSample(elapsed float64) BandSample {
	return BandSample{
		Bass: 0.28 + 0.14*math.Sin(elapsed*0.9),
		Mid:  0.22 + 0.10*math.Sin(elapsed*1.3+2.1),
		High: 0.16 + 0.08*math.Sin(elapsed*1.7+4.2),
	}
}

// bandBoundaries converts the fixed frequency edges into four ascending bin
// indices over a spectrum of n bins. Each index is
// clamp(floor(freq/nyquist*n), 1, n); index 0 (DC) is always excluded. The
// three resulting ranges [b0,b1) [b1,b2) [b2,b3) are guaranteed non-empty and
// disjoint for n >= minUsableBins, even at extreme sample rates where the
// upper edges clamp to n.
//
// Parameters:
//   - nyquist: half the analyser sample rate in Hz
//   - n: the number of spectrum bins
//
// Returns:
//   - b0, b1, b2, b3: ascending bin boundaries
func bandBoundaries(nyquist float64, n int) (b0, b1, b2, b3 int) {
	edges := [4]float64{bassLowHz, bassHighHz, midHighHz, highHighHz}
	var idx [4]int
	for i, f := range edges {
		idx[i] = common.ClampInt(int(math.Floor(f/nyquist*float64(n))), 1, n)
	}
	// Enforce minimum width 1 per band, walking up then capping from the top
	// so the upper ranges stay inside the buffer.
	for i := 1; i < 4; i++ {
		if idx[i] <= idx[i-1] {
			idx[i] = idx[i-1] + 1
		}
	}
	for i := 3; i >= 1; i-- {
		hi := n - (3 - i)
		if idx[i] > hi {
			idx[i] = hi
		}
	}
	for i := 1; i < 4; i++ {
		if idx[i] <= idx[i-1] {
			idx[i] = idx[i-1] + 1
		}
	}
	return idx[0], idx[1], idx[2], idx[3]
}

// averageBins averages the byte magnitudes in [start, end) and normalizes the
// result to [0, 1].
//
// Parameters:
//   - bins: the magnitude spectrum
//   - start: first bin index (inclusive)
//   - end: last bin index (exclusive)
//
// Returns:
//   - float64: the normalized average magnitude
func averageBins(bins []byte, start, end int) float64 {
	if start >= end || start >= len(bins) {
		return 0
	}
	if end > len(bins) {
		end = len(bins)
	}
	sum := 0.0
	for _, b := range bins[start:end] {
		sum += float64(b)
	}
	return sum / float64(end-start) / 255.0
}
