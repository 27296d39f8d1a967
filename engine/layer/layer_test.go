package layer

import (
	"errors"

	"github.com/dlmmedia/nebula/engine/renderer"
)

// fakeRenderer records resource traffic without touching a GPU.
type fakeRenderer struct {
	nextID     uint64
	buffers    map[renderer.BufferID][]byte
	bindGroups map[renderer.BindGroupID]string
	writes     map[renderer.BufferID]int
	draws      []renderer.DrawCall
	failCreate bool
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{
		buffers:    make(map[renderer.BufferID][]byte),
		bindGroups: make(map[renderer.BindGroupID]string),
		writes:     make(map[renderer.BufferID]int),
	}
}

func (f *fakeRenderer) RegisterPipelines(specs ...renderer.PipelineSpec) error { return nil }
func (f *fakeRenderer) HasPipeline(key string) bool                           { return true }
func (f *fakeRenderer) Resize(width, height int)                              {}
func (f *fakeRenderer) SetPresentMode(mode renderer.PresentMode)              {}

func (f *fakeRenderer) CreateBuffer(label string, usage renderer.BufferUsage, size uint64, data []byte) (renderer.BufferID, error) {
	if f.failCreate {
		return 0, errors.New("create refused")
	}
	f.nextID++
	id := renderer.BufferID(f.nextID)
	f.buffers[id] = append([]byte(nil), data...)
	return id, nil
}

func (f *fakeRenderer) WriteBuffer(id renderer.BufferID, offset uint64, data []byte) {
	if _, ok := f.buffers[id]; !ok {
		return
	}
	f.buffers[id] = append([]byte(nil), data...)
	f.writes[id]++
}

func (f *fakeRenderer) ReleaseBuffer(id renderer.BufferID) {
	delete(f.buffers, id)
}

func (f *fakeRenderer) CreateBindGroup(label string, pipelineKey string, group int, buffers []renderer.BufferID) (renderer.BindGroupID, error) {
	if f.failCreate {
		return 0, errors.New("create refused")
	}
	f.nextID++
	id := renderer.BindGroupID(f.nextID)
	f.bindGroups[id] = pipelineKey
	return id, nil
}

func (f *fakeRenderer) ReleaseBindGroup(id renderer.BindGroupID) {
	delete(f.bindGroups, id)
}

func (f *fakeRenderer) BeginFrame() error { return nil }

func (f *fakeRenderer) Draw(call renderer.DrawCall) error {
	f.draws = append(f.draws, call)
	return nil
}

func (f *fakeRenderer) EndFrame() {}
func (f *fakeRenderer) Present()  {}

func (f *fakeRenderer) LiveResourceCount() int {
	return len(f.buffers) + len(f.bindGroups)
}

func (f *fakeRenderer) Release() {
	f.buffers = make(map[renderer.BufferID][]byte)
	f.bindGroups = make(map[renderer.BindGroupID]string)
}

var _ renderer.Renderer = &fakeRenderer{}
