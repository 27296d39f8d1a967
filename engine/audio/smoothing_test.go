package audio

import (
	"math"
	"math/rand"
	"testing"
)

func TestSmootherStaysInUnitRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sm := NewSmoother(0.3)
	for i := 0; i < 10000; i++ {
		d := sm.Apply(BandSample{
			Bass: rng.Float64(),
			Mid:  rng.Float64(),
			High: rng.Float64(),
		})
		for name, v := range map[string]float64{"bass": d.Bass, "mid": d.Mid, "high": d.High} {
			if v < 0 || v > 1 {
				t.Fatalf("smoothed %s left [0,1] at step %d: %v", name, i, v)
			}
		}
	}
}

func TestSmootherConvergesToConstantInput(t *testing.T) {
	sm := NewSmoother(0.2)
	target := BandSample{Bass: 0.7, Mid: 0.4, High: 0.9}
	var d Drive
	for i := 0; i < 200; i++ {
		d = sm.Apply(target)
	}
	if math.Abs(d.Bass-0.7) > 1e-6 || math.Abs(d.Mid-0.4) > 1e-6 || math.Abs(d.High-0.9) > 1e-6 {
		t.Errorf("did not converge to input: %+v", d)
	}
}

func TestSmootherSingleStep(t *testing.T) {
	sm := NewSmoother(0.25)
	d := sm.Apply(BandSample{Bass: 1})
	if math.Abs(d.Bass-0.25) > 1e-9 {
		t.Errorf("first step: got %v, want 0.25", d.Bass)
	}
	d = sm.Apply(BandSample{Bass: 1})
	if math.Abs(d.Bass-0.4375) > 1e-9 {
		t.Errorf("second step: got %v, want 0.4375", d.Bass)
	}
}

func TestSmootherRejectsBadCoefficient(t *testing.T) {
	for _, k := range []float64{0, -1, 1.5} {
		sm := NewSmoother(k)
		if sm.k != DefaultSmoothing {
			t.Errorf("coefficient %v should fall back to default, got %v", k, sm.k)
		}
	}
}

func TestSmootherReset(t *testing.T) {
	sm := NewSmoother(0.2)
	sm.Apply(BandSample{Bass: 1, Mid: 1, High: 1})
	sm.Reset()
	if sm.Drive() != (Drive{}) {
		t.Errorf("reset should zero the drive, got %+v", sm.Drive())
	}
}
