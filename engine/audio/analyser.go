// Package audio turns a live frequency-magnitude feed into the smoothed band
// energies that drive the visual layers.
package audio

// Analyser is the capability the playback side hands to the engine when audio
// begins. It exposes the current amplitude spectrum as byte-normalized bins
// (0–255 each), mirroring the magnitude feed of the host's audio graph.
// Implementations must be safe for one reader and one writer: the frame loop
// reads magnitudes while the playback path pushes samples.
type Analyser interface {
	// FrequencyMagnitudes fills dst with the current magnitude spectrum, one
	// byte per frequency bin in ascending frequency order, and returns the
	// number of bins written. If dst is too small only len(dst) bins are
	// written. Bin i covers frequencies around i/binCount * nyquist.
	//
	// Parameters:
	//   - dst: destination buffer for magnitude bins
	//
	// Returns:
	//   - int: the number of bins written
	FrequencyMagnitudes(dst []byte) int

	// BinCount returns the number of frequency bins the analyser produces,
	// so callers can size their read buffer once and reuse it.
	//
	// Returns:
	//   - int: the bin count
	BinCount() int

	// SampleRate returns the sample rate of the audio being analysed in Hz.
	//
	// Returns:
	//   - float64: the sample rate
	SampleRate() float64
}

// BandSample holds the raw normalized band energies derived from one analyser
// read (or from the idle waveform). All values are in [0, 1]. Derived fresh
// every frame and never persisted.
type BandSample struct {
	Bass float64
	Mid  float64
	High float64
}

// Drive holds the exponentially smoothed band energies the layers consume.
// Same shape as BandSample; mutated once per frame by the Smoother.
type Drive struct {
	Bass float64
	Mid  float64
	High float64
}
