package layer

import (
	"math"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/dlmmedia/nebula/common"
	"github.com/dlmmedia/nebula/engine/audio"
	"github.com/dlmmedia/nebula/engine/renderer"
)

const (
	defaultPointCount  = 4096
	defaultPointSpread = 9.0
	defaultDepthRange  = 40.0

	// Points past this z are recycled to the back of the field.
	pointRecycleZ = 4.0
)

type pointField struct {
	count   int
	spread  float64
	depth   float64
	workers int

	// Interleaved vec4 per point: x, y, z, size. Uploaded as-is to the
	// storage buffer, so the slice never grows or shrinks after construction.
	points []float32

	// Per-point hash state used for deterministic respawn placement.
	seeds []uint32

	pool worker.DynamicWorkerPool

	buffer       renderer.BufferID
	globalsGroup renderer.BindGroupID
	pointsGroup  renderer.BindGroupID
}

var _ Layer = &pointField{}

// NewPointField creates the particle field layer. Point positions are seeded
// deterministically so two fields built with the same options start identical.
//
// Parameters:
//   - options: functional options for point field configuration
//
// Returns:
//   - Layer: the newly created point field
func NewPointField(options ...PointFieldOption) Layer {
	p := &pointField{
		count:   defaultPointCount,
		spread:  defaultPointSpread,
		depth:   defaultDepthRange,
		workers: 4,
	}

	for _, opt := range options {
		opt(p)
	}

	p.points = make([]float32, p.count*4)
	p.seeds = make([]uint32, p.count)
	for i := 0; i < p.count; i++ {
		p.seeds[i] = hashU32(uint32(i)*2654435761 + 1)
		x, y, sz := p.spawnValues(i)
		z := pointRecycleZ - p.depth*float64(hashU32(p.seeds[i]+7))/float64(math.MaxUint32)
		p.points[i*4+0] = x
		p.points[i*4+1] = y
		p.points[i*4+2] = float32(z)
		p.points[i*4+3] = sz
	}

	p.pool = worker.NewDynamicWorkerPool(p.workers, 256, 1*time.Second)

	return p
}

func (p *pointField) Kind() Kind { return KindPointField }

func (p *pointField) Init(r renderer.Renderer, globals renderer.BufferID) error {
	buf, err := r.CreateBuffer("Point Field Storage", renderer.BufferUsageStorage, 0, common.SliceToBytes(p.points))
	if err != nil {
		return err
	}
	p.buffer = buf

	g0, err := r.CreateBindGroup("Point Field Globals", renderer.PipelineKeyPointField, 0, []renderer.BufferID{globals})
	if err != nil {
		return err
	}
	p.globalsGroup = g0

	g1, err := r.CreateBindGroup("Point Field Points", renderer.PipelineKeyPointField, 1, []renderer.BufferID{buf})
	if err != nil {
		return err
	}
	p.pointsGroup = g1

	return nil
}

func (p *pointField) Advance(elapsed, delta float64, drive audio.Drive) {
	speed := 0.8 + drive.Bass*4.5
	wobble := drive.Mid * 0.6

	// Parallel CPU prep: each worker advances a disjoint chunk of the point
	// slice. A WaitGroup provides the per-frame barrier since pool.Wait()
	// blocks until workers idle-exit, which is unsuitable for frame-rate work.
	chunk := (p.count + p.workers - 1) / p.workers
	var wg sync.WaitGroup
	taskID := 0
	for start := 0; start < p.count; start += chunk {
		end := start + chunk
		if end > p.count {
			end = p.count
		}
		lo, hi := start, end
		wg.Add(1)
		id := taskID
		taskID++
		p.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				p.advanceChunk(lo, hi, elapsed, delta, speed, wobble)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// advanceChunk drifts points [lo, hi) toward the camera and recycles any that
// cross the near threshold back to the far end of the field. Slots are reused
// in place; the slice never reallocates.
func (p *pointField) advanceChunk(lo, hi int, elapsed, delta, speed, wobble float64) {
	for i := lo; i < hi; i++ {
		base := i * 4
		rate := 0.6 + 0.8*float64(hashU32(p.seeds[i]+13))/float64(math.MaxUint32)
		z := float64(p.points[base+2]) + speed*rate*delta

		if z > pointRecycleZ {
			z -= p.depth
			p.seeds[i] = hashU32(p.seeds[i] + 104729)
			x, y, sz := p.spawnValues(i)
			p.points[base+0] = x
			p.points[base+1] = y
			p.points[base+3] = sz
		}

		phase := float64(p.seeds[i]%6283) / 1000.0
		p.points[base+0] += float32(math.Sin(elapsed*1.7+phase) * wobble * delta)
		p.points[base+2] = float32(z)
	}
}

func (p *pointField) Upload(r renderer.Renderer) {
	if p.buffer == 0 {
		return
	}
	r.WriteBuffer(p.buffer, 0, common.SliceToBytes(p.points))
}

func (p *pointField) Draw(r renderer.Renderer) error {
	return r.Draw(renderer.DrawCall{
		PipelineKey:   renderer.PipelineKeyPointField,
		VertexCount:   6,
		InstanceCount: uint32(p.count),
		BindGroups:    []renderer.BindGroupID{p.globalsGroup, p.pointsGroup},
	})
}

func (p *pointField) Dispose(r renderer.Renderer) {
	r.ReleaseBindGroup(p.pointsGroup)
	r.ReleaseBindGroup(p.globalsGroup)
	r.ReleaseBuffer(p.buffer)
	p.pointsGroup = 0
	p.globalsGroup = 0
	p.buffer = 0
}

// spawnValues derives a point's lateral position and size from its current seed.
func (p *pointField) spawnValues(i int) (x, y, size float32) {
	h1 := hashU32(p.seeds[i] + 17)
	h2 := hashU32(p.seeds[i] + 31)
	h3 := hashU32(p.seeds[i] + 53)
	x = float32((float64(h1)/float64(math.MaxUint32)*2 - 1) * p.spread)
	y = float32((float64(h2)/float64(math.MaxUint32)*2 - 1) * p.spread)
	size = float32(0.008 + 0.028*float64(h3)/float64(math.MaxUint32))
	return x, y, size
}

// hashU32 is a splitmix-style integer hash.
func hashU32(v uint32) uint32 {
	v ^= v >> 16
	v *= 0x7feb352d
	v ^= v >> 15
	v *= 0x846ca68b
	v ^= v >> 16
	return v
}
