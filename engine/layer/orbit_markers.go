package layer

import (
	"math"

	"github.com/dlmmedia/nebula/common"
	"github.com/dlmmedia/nebula/engine/audio"
	"github.com/dlmmedia/nebula/engine/renderer"
)

const (
	defaultMarkerCount = 12

	// World units added to the orbit radius at full mid-band drive.
	markerRadiusGain = 0.9
)

// markerParams mirrors the MarkerParams uniform block. 32 bytes.
type markerParams struct {
	Color [4]float32
	Glow  float32
	Pad0  float32
	Pad1  float32
	Pad2  float32
}

type orbitMarkers struct {
	count  int
	radius float64

	// Per-marker orbit constants, fixed at construction.
	phases []float64
	speeds []float64
	tilts  []float64

	// Interleaved vec4 per marker: x, y, z, scale. Rewritten in place every
	// frame and uploaded as one storage write; never reallocated.
	transforms []float32

	params markerParams

	transformBuffer renderer.BufferID
	paramsBuffer    renderer.BufferID
	globalsGroup    renderer.BindGroupID
	markerGroup     renderer.BindGroupID
}

var _ Layer = &orbitMarkers{}

// NewOrbitMarkers creates the orbiting marker layer. Markers circle the scene
// center on individually tilted orbits at constant angular rates; the orbit
// radius swells with the mid band and marker size pulses with the high band.
//
// Parameters:
//   - options: functional options for marker configuration
//
// Returns:
//   - Layer: the newly created marker layer
func NewOrbitMarkers(options ...OrbitMarkersOption) Layer {
	m := &orbitMarkers{
		count:  defaultMarkerCount,
		radius: 2.6,
		params: markerParams{
			Color: [4]float32{0.35, 0.9, 1.0, 1.0},
			Glow:  0.6,
		},
	}

	for _, opt := range options {
		opt(m)
	}

	m.phases = make([]float64, m.count)
	m.speeds = make([]float64, m.count)
	m.tilts = make([]float64, m.count)
	m.transforms = make([]float32, m.count*4)
	for i := 0; i < m.count; i++ {
		f := float64(i) / float64(m.count)
		m.phases[i] = f * 2 * math.Pi
		m.speeds[i] = 0.35 + 0.5*float64(hashU32(uint32(i)+97))/float64(math.MaxUint32)
		m.tilts[i] = (f*2 - 1) * 0.55
	}

	return m
}

func (m *orbitMarkers) Kind() Kind { return KindMarkers }

func (m *orbitMarkers) Init(r renderer.Renderer, globals renderer.BufferID) error {
	tbuf, err := r.CreateBuffer("Marker Transforms", renderer.BufferUsageStorage, 0, common.SliceToBytes(m.transforms))
	if err != nil {
		return err
	}
	m.transformBuffer = tbuf

	pbuf, err := r.CreateBuffer("Marker Params", renderer.BufferUsageUniform, 0, common.StructToBytes(&m.params))
	if err != nil {
		return err
	}
	m.paramsBuffer = pbuf

	g0, err := r.CreateBindGroup("Marker Globals", renderer.PipelineKeyMarkers, 0, []renderer.BufferID{globals})
	if err != nil {
		return err
	}
	m.globalsGroup = g0

	g1, err := r.CreateBindGroup("Marker Data", renderer.PipelineKeyMarkers, 1, []renderer.BufferID{tbuf, pbuf})
	if err != nil {
		return err
	}
	m.markerGroup = g1

	return nil
}

func (m *orbitMarkers) Advance(elapsed, delta float64, drive audio.Drive) {
	// The angular rate never depends on drive: scaling elapsed*speed would
	// rescale the whole accumulated angle and teleport markers on any drive
	// step. Drive reaches the orbit through the radius instead.
	radius := m.radius + drive.Mid*markerRadiusGain
	scale := 0.045 * (1.0 + drive.High*0.9)

	for i := 0; i < m.count; i++ {
		angle := m.phases[i] + elapsed*m.speeds[i]
		x := math.Cos(angle) * radius
		z := math.Sin(angle) * radius * 0.4
		y := math.Sin(angle)*radius*m.tilts[i] + math.Sin(elapsed*0.7+m.phases[i])*0.15

		base := i * 4
		m.transforms[base+0] = float32(x)
		m.transforms[base+1] = float32(y)
		m.transforms[base+2] = float32(z)
		m.transforms[base+3] = float32(scale)
	}
}

func (m *orbitMarkers) Upload(r renderer.Renderer) {
	if m.transformBuffer == 0 {
		return
	}
	r.WriteBuffer(m.transformBuffer, 0, common.SliceToBytes(m.transforms))
}

func (m *orbitMarkers) Draw(r renderer.Renderer) error {
	return r.Draw(renderer.DrawCall{
		PipelineKey:   renderer.PipelineKeyMarkers,
		VertexCount:   6,
		InstanceCount: uint32(m.count),
		BindGroups:    []renderer.BindGroupID{m.globalsGroup, m.markerGroup},
	})
}

func (m *orbitMarkers) Dispose(r renderer.Renderer) {
	r.ReleaseBindGroup(m.markerGroup)
	r.ReleaseBindGroup(m.globalsGroup)
	r.ReleaseBuffer(m.paramsBuffer)
	r.ReleaseBuffer(m.transformBuffer)
	m.markerGroup = 0
	m.globalsGroup = 0
	m.paramsBuffer = 0
	m.transformBuffer = 0
}
