package audio

import (
	"math"
	"testing"
)

// stubAnalyser returns a fixed magnitude for every bin.
type stubAnalyser struct {
	bins       int
	sampleRate float64
	value      byte
}

func (s *stubAnalyser) FrequencyMagnitudes(dst []byte) int {
	n := s.bins
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = s.value
	}
	return n
}

func (s *stubAnalyser) BinCount() int        { return s.bins }
func (s *stubAnalyser) SampleRate() float64  { return s.sampleRate }

func TestBandBoundariesDisjointAscending(t *testing.T) {
	cases := []struct {
		name       string
		sampleRate float64
		bins       int
	}{
		{"cd quality", 44100, 1024},
		{"dvd quality", 48000, 1024},
		{"high rate", 192000, 2048},
		{"low rate", 8000, 512},
		{"phone rate", 11025, 256},
		{"tiny buffer", 44100, 4},
		{"extreme rate tiny buffer", 384000, 8},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b0, b1, b2, b3 := bandBoundaries(c.sampleRate/2, c.bins)
			if !(b0 < b1 && b1 < b2 && b2 < b3) {
				t.Fatalf("boundaries not strictly ascending: %d %d %d %d", b0, b1, b2, b3)
			}
			if b0 < 1 {
				t.Errorf("bass band includes DC bin: start %d", b0)
			}
			if b3 > c.bins {
				t.Errorf("high band exceeds buffer: end %d > %d bins", b3, c.bins)
			}
		})
	}
}

func TestIdleWaveformDeterministic(t *testing.T) {
	s := NewSampler()
	a := s.Sample(false, nil, 3.25)
	b := s.Sample(false, nil, 3.25)
	if a != b {
		t.Errorf("idle samples differ for same elapsed time: %+v vs %+v", a, b)
	}

	// Idle motion must stay inside [0, 1] over a long sweep.
	for elapsed := 0.0; elapsed < 60; elapsed += 0.37 {
		v := s.Sample(false, nil, elapsed)
		for name, band := range map[string]float64{"bass": v.Bass, "mid": v.Mid, "high": v.High} {
			if band < 0 || band > 1 {
				t.Fatalf("idle %s out of range at t=%v: %v", name, elapsed, band)
			}
		}
	}
}

func TestPlayingIgnoresIdleWaveform(t *testing.T) {
	s := NewSampler()
	an := &stubAnalyser{bins: 1024, sampleRate: 44100, value: 0}

	got := s.Sample(true, an, 5.0)
	if got != (BandSample{}) {
		t.Errorf("all-zero spectrum should yield zero bands, got %+v", got)
	}
	idle := idleSample(5.0)
	if got == idle {
		t.Errorf("playing sample must not follow the idle waveform")
	}
}

func TestZeroSpectrumConvergesToZero(t *testing.T) {
	s := NewSampler()
	sm := NewSmoother(DefaultSmoothing)
	an := &stubAnalyser{bins: 1024, sampleRate: 44100, value: 0}

	// Seed the smoother with idle motion first.
	for i := 0; i < 30; i++ {
		sm.Apply(s.Sample(false, nil, float64(i)*0.016))
	}
	var drive Drive
	for i := 0; i < 300; i++ {
		drive = sm.Apply(s.Sample(true, an, float64(i)*0.016))
	}
	if drive.Bass > 0.001 || drive.Mid > 0.001 || drive.High > 0.001 {
		t.Errorf("drive did not converge toward zero: %+v", drive)
	}
}

func TestFullScaleSpectrumReadsAsOne(t *testing.T) {
	s := NewSampler()
	an := &stubAnalyser{bins: 1024, sampleRate: 44100, value: 255}
	got := s.Sample(true, an, 0)
	const eps = 1e-9
	if math.Abs(got.Bass-1) > eps || math.Abs(got.Mid-1) > eps || math.Abs(got.High-1) > eps {
		t.Errorf("full-scale spectrum should read 1.0 per band, got %+v", got)
	}
}

func TestNilAnalyserWhilePlaying(t *testing.T) {
	// An analyser swapped out mid-frame must degrade to the idle waveform,
	// not panic or error.
	s := NewSampler()
	got := s.Sample(true, nil, 2.0)
	if got != idleSample(2.0) {
		t.Errorf("nil analyser while playing should use idle waveform, got %+v", got)
	}
}

func TestTooFewBinsTreatedAsNoData(t *testing.T) {
	s := NewSampler()
	an := &stubAnalyser{bins: 2, sampleRate: 44100, value: 200}
	if got := s.Sample(true, an, 0); got != (BandSample{}) {
		t.Errorf("undersized spectrum should yield zero bands, got %+v", got)
	}
}
