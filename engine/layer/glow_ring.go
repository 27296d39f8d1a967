package layer

import (
	"math"

	"github.com/dlmmedia/nebula/common"
	"github.com/dlmmedia/nebula/engine/audio"
	"github.com/dlmmedia/nebula/engine/renderer"
)

// ringParams mirrors the RingParams uniform block. 32 bytes.
type ringParams struct {
	BaseRadius float32
	Thickness  float32
	Intensity  float32
	Pad0       float32
	Color      [4]float32
}

type glowRing struct {
	params ringParams
	dirty  bool

	baseRadius float64
	intensity  float64

	buffer       renderer.BufferID
	globalsGroup renderer.BindGroupID
	paramsGroup  renderer.BindGroupID
}

var _ Layer = &glowRing{}

// NewGlowRing creates the glow ring layer. The ring dilates with bass in the
// shader; the CPU side only animates a slow breathing of the base radius.
func NewGlowRing() Layer {
	return &glowRing{
		params: ringParams{
			BaseRadius: 0.42,
			Thickness:  0.085,
			Intensity:  0.9,
			Color:      [4]float32{0.45, 0.30, 1.0, 1.0},
		},
		baseRadius: 0.42,
		intensity:  0.9,
		dirty:      true,
	}
}

func (g *glowRing) Kind() Kind { return KindGlowRing }

func (g *glowRing) Init(r renderer.Renderer, globals renderer.BufferID) error {
	buf, err := r.CreateBuffer("Glow Ring Params", renderer.BufferUsageUniform, 0, common.StructToBytes(&g.params))
	if err != nil {
		return err
	}
	g.buffer = buf

	g0, err := r.CreateBindGroup("Glow Ring Globals", renderer.PipelineKeyGlowRing, 0, []renderer.BufferID{globals})
	if err != nil {
		return err
	}
	g.globalsGroup = g0

	g1, err := r.CreateBindGroup("Glow Ring Params", renderer.PipelineKeyGlowRing, 1, []renderer.BufferID{buf})
	if err != nil {
		return err
	}
	g.paramsGroup = g1

	return nil
}

func (g *glowRing) Advance(elapsed, delta float64, drive audio.Drive) {
	radius := g.baseRadius * (1.0 + 0.04*math.Sin(elapsed*0.45))
	intensity := g.intensity * (0.75 + 0.25*drive.Mid)

	g.params.BaseRadius = float32(radius)
	g.params.Intensity = float32(intensity)
	g.dirty = true
}

func (g *glowRing) Upload(r renderer.Renderer) {
	if !g.dirty || g.buffer == 0 {
		return
	}
	r.WriteBuffer(g.buffer, 0, common.StructToBytes(&g.params))
	g.dirty = false
}

func (g *glowRing) Draw(r renderer.Renderer) error {
	return r.Draw(renderer.DrawCall{
		PipelineKey:   renderer.PipelineKeyGlowRing,
		VertexCount:   4,
		InstanceCount: 1,
		BindGroups:    []renderer.BindGroupID{g.globalsGroup, g.paramsGroup},
	})
}

func (g *glowRing) Dispose(r renderer.Renderer) {
	r.ReleaseBindGroup(g.paramsGroup)
	r.ReleaseBindGroup(g.globalsGroup)
	r.ReleaseBuffer(g.buffer)
	g.paramsGroup = 0
	g.globalsGroup = 0
	g.buffer = 0
}
