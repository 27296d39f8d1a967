package layer

import (
	"math"
	"testing"

	"github.com/dlmmedia/nebula/engine/audio"
)

func TestMarkerTransformsReusedAcrossFrames(t *testing.T) {
	m := NewOrbitMarkers(WithMarkerCount(16)).(*orbitMarkers)

	before := &m.transforms[0]
	capBefore := cap(m.transforms)

	for frame := 0; frame < 600; frame++ {
		m.Advance(float64(frame)/60.0, 1.0/60.0, audio.Drive{Mid: 0.8, High: 0.5})
	}

	if &m.transforms[0] != before || cap(m.transforms) != capBefore {
		t.Fatal("transform slice reallocated during advance")
	}
}

func TestMarkerScalePulsesWithHighBand(t *testing.T) {
	quiet := NewOrbitMarkers(WithMarkerCount(4)).(*orbitMarkers)
	loud := NewOrbitMarkers(WithMarkerCount(4)).(*orbitMarkers)

	quiet.Advance(1, 1.0/60.0, audio.Drive{})
	loud.Advance(1, 1.0/60.0, audio.Drive{High: 1})

	if loud.transforms[3] <= quiet.transforms[3] {
		t.Fatalf("high band did not grow markers: quiet %v, loud %v", quiet.transforms[3], loud.transforms[3])
	}
}

// markerOrbitRadius recovers the orbit radius of marker i from its transform.
// x = cos(angle)*r and z = sin(angle)*r*0.4, so r = sqrt(x*x + (z/0.4)^2).
func markerOrbitRadius(m *orbitMarkers, i int) float64 {
	x := float64(m.transforms[i*4])
	z := float64(m.transforms[i*4+2]) / 0.4
	return math.Sqrt(x*x + z*z)
}

func TestMarkerRadiusSwellsWithMidBand(t *testing.T) {
	quiet := NewOrbitMarkers(WithMarkerCount(8), WithOrbitRadius(3)).(*orbitMarkers)
	loud := NewOrbitMarkers(WithMarkerCount(8), WithOrbitRadius(3)).(*orbitMarkers)

	quiet.Advance(2.5, 1.0/60.0, audio.Drive{})
	loud.Advance(2.5, 1.0/60.0, audio.Drive{Mid: 1})

	for i := 0; i < quiet.count; i++ {
		rq := markerOrbitRadius(quiet, i)
		rl := markerOrbitRadius(loud, i)
		if math.Abs(rq-3) > 1e-3 {
			t.Fatalf("marker %d quiet radius = %v, want 3", i, rq)
		}
		if math.Abs(rl-(3+markerRadiusGain)) > 1e-3 {
			t.Fatalf("marker %d loud radius = %v, want %v", i, rl, 3+markerRadiusGain)
		}
	}
}

func TestMarkerMotionContinuousUnderDriveStep(t *testing.T) {
	m := NewOrbitMarkers(WithMarkerCount(8)).(*orbitMarkers)

	// Late into a session, one frame's worth of drive change must not move a
	// marker further than a small fraction of the orbit. A drive-scaled
	// angular rate fails this badly: it rescales the accumulated angle.
	const elapsed = 300.0
	m.Advance(elapsed, 1.0/60.0, audio.Drive{Mid: 0.5})
	x0 := float64(m.transforms[0])
	y0 := float64(m.transforms[1])
	z0 := float64(m.transforms[2])

	m.Advance(elapsed+1.0/60.0, 1.0/60.0, audio.Drive{Mid: 0.6})
	dx := float64(m.transforms[0]) - x0
	dy := float64(m.transforms[1]) - y0
	dz := float64(m.transforms[2]) - z0

	if dist := math.Sqrt(dx*dx + dy*dy + dz*dz); dist > 0.2 {
		t.Fatalf("marker jumped %v world units across one frame", dist)
	}
}

func TestMarkerLifecycle(t *testing.T) {
	r := newFakeRenderer()
	m := NewOrbitMarkers(WithMarkerCount(6))

	if err := m.Init(r, 1); err != nil {
		t.Fatalf("init: %v", err)
	}
	m.Advance(0, 1.0/60.0, audio.Drive{})
	m.Upload(r)
	if err := m.Draw(r); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if r.draws[0].InstanceCount != 6 {
		t.Fatalf("instance count = %d, want 6", r.draws[0].InstanceCount)
	}

	m.Dispose(r)
	m.Dispose(r)
	if got := r.LiveResourceCount(); got != 0 {
		t.Fatalf("live resources after double dispose = %d, want 0", got)
	}
}
