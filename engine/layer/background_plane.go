package layer

import (
	"github.com/dlmmedia/nebula/engine/audio"
	"github.com/dlmmedia/nebula/engine/renderer"
)

// backgroundPlane is the opaque backdrop. All of its animation lives in the
// fragment shader, driven by the shared globals block, so the layer carries no
// state beyond its bind group.
type backgroundPlane struct {
	globalsGroup renderer.BindGroupID
}

var _ Layer = &backgroundPlane{}

// NewBackgroundPlane creates the backdrop layer.
func NewBackgroundPlane() Layer {
	return &backgroundPlane{}
}

func (b *backgroundPlane) Kind() Kind { return KindBackground }

func (b *backgroundPlane) Init(r renderer.Renderer, globals renderer.BufferID) error {
	g0, err := r.CreateBindGroup("Background Globals", renderer.PipelineKeyBackground, 0, []renderer.BufferID{globals})
	if err != nil {
		return err
	}
	b.globalsGroup = g0
	return nil
}

func (b *backgroundPlane) Advance(elapsed, delta float64, drive audio.Drive) {}

func (b *backgroundPlane) Upload(r renderer.Renderer) {}

func (b *backgroundPlane) Draw(r renderer.Renderer) error {
	return r.Draw(renderer.DrawCall{
		PipelineKey:   renderer.PipelineKeyBackground,
		VertexCount:   3,
		InstanceCount: 1,
		BindGroups:    []renderer.BindGroupID{b.globalsGroup},
	})
}

func (b *backgroundPlane) Dispose(r renderer.Renderer) {
	r.ReleaseBindGroup(b.globalsGroup)
	b.globalsGroup = 0
}
