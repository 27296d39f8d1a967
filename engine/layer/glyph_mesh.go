package layer

import (
	"log"
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/dlmmedia/nebula/common"
	"github.com/dlmmedia/nebula/engine/audio"
	"github.com/dlmmedia/nebula/engine/renderer"
)

const (
	// Titles longer than this are cut and terminated with an ellipsis so the
	// mesh never outgrows the view.
	maxTitleRunes = 36

	glyphCellSize   = 0.11
	glyphCellDepth  = 0.05
	glyphBaselineY  = -2.1
	glyphSpringFreq = 5.5
	glyphSpringDamp = 0.35

	glyphBassScaleGain = 0.22
	glyphBobRate       = 0.8
	glyphBobAmplitude  = 0.08
	glyphMidLiftGain   = 0.12
)

// glyphParams mirrors the GlyphParams uniform block. 96 bytes.
type glyphParams struct {
	Model    [16]float32
	Color    [4]float32
	Emissive float32
	Pad0     float32
	Pad1     float32
	Pad2     float32
}

// GlyphMesh is the extruded dot-matrix title layer. The mesh is rebuilt
// wholesale whenever the title changes; in-place patching of glyph geometry
// is not worth the bookkeeping at these vertex counts.
type GlyphMesh interface {
	Layer

	// SetTitle replaces the displayed title. Titles longer than 36 runes are
	// truncated with a trailing ellipsis. Setting the same title again is a
	// no-op; setting a new one triggers a mesh rebuild and replays the
	// spring-driven intro.
	//
	// Parameters:
	//   - title: the title text to display
	SetTitle(title string)

	// Title returns the displayed title after truncation.
	//
	// Returns:
	//   - string: the displayed title
	Title() string
}

type glyphMesh struct {
	title string
	dirty bool

	// present is false while there is nothing to draw: empty title, not yet
	// uploaded, or the last rebuild failed.
	present    bool
	indexCount uint32

	spring    harmonica.Spring
	springPos float64
	springVel float64

	params glyphParams

	vertexBuffer renderer.BufferID
	indexBuffer  renderer.BufferID
	paramsBuffer renderer.BufferID
	globalsGroup renderer.BindGroupID
	paramsGroup  renderer.BindGroupID
}

var _ GlyphMesh = &glyphMesh{}

// NewGlyphMesh creates the title layer with an empty title.
func NewGlyphMesh() GlyphMesh {
	return &glyphMesh{
		spring: harmonica.NewSpring(harmonica.FPS(60), glyphSpringFreq, glyphSpringDamp),
		params: glyphParams{
			Color:    [4]float32{0.92, 0.9, 1.0, 1.0},
			Emissive: 0.5,
		},
	}
}

func (g *glyphMesh) Kind() Kind { return KindGlyph }

func (g *glyphMesh) SetTitle(title string) {
	title = truncateTitle(title)
	if title == g.title {
		return
	}
	g.title = title
	g.dirty = true
	g.springPos = 0
	g.springVel = 0
}

func (g *glyphMesh) Title() string {
	return g.title
}

func (g *glyphMesh) Init(r renderer.Renderer, globals renderer.BufferID) error {
	pbuf, err := r.CreateBuffer("Glyph Params", renderer.BufferUsageUniform, 0, common.StructToBytes(&g.params))
	if err != nil {
		return err
	}
	g.paramsBuffer = pbuf

	g0, err := r.CreateBindGroup("Glyph Globals", renderer.PipelineKeyGlyph, 0, []renderer.BufferID{globals})
	if err != nil {
		return err
	}
	g.globalsGroup = g0

	g1, err := r.CreateBindGroup("Glyph Params", renderer.PipelineKeyGlyph, 1, []renderer.BufferID{pbuf})
	if err != nil {
		return err
	}
	g.paramsGroup = g1

	// Vertex and index buffers are built lazily in Upload once a title is set.
	g.present = false
	if g.title != "" {
		g.dirty = true
	}

	return nil
}

func (g *glyphMesh) Advance(elapsed, delta float64, drive audio.Drive) {
	g.springPos, g.springVel = g.spring.Update(g.springPos, g.springVel, 1.0)

	// The intro spring carries the title in; once settled, the bass band
	// pulses scale and emissive while the baseline bobs on a slow sinusoid
	// lifted by the mid band.
	scale := float32(common.Clamp(g.springPos*(1.0+drive.Bass*glyphBassScaleGain), 0.001, 1.8))
	common.Identity(g.params.Model[:])
	g.params.Model[0] = scale
	g.params.Model[5] = scale
	g.params.Model[10] = scale
	g.params.Model[13] = float32(glyphBaselineY + math.Sin(elapsed*glyphBobRate)*glyphBobAmplitude + drive.Mid*glyphMidLiftGain)

	g.params.Color[3] = float32(common.Clamp(g.springPos*1.4, 0, 1))
	g.params.Emissive = float32(0.3 + drive.Bass*0.9)
}

func (g *glyphMesh) Upload(r renderer.Renderer) {
	if g.dirty {
		g.rebuild(r)
		g.dirty = false
	}
	if g.paramsBuffer != 0 {
		r.WriteBuffer(g.paramsBuffer, 0, common.StructToBytes(&g.params))
	}
}

// rebuild replaces the vertex and index buffers with geometry for the current
// title. A failed rebuild leaves the layer absent rather than half-drawn.
func (g *glyphMesh) rebuild(r renderer.Renderer) {
	r.ReleaseBuffer(g.vertexBuffer)
	r.ReleaseBuffer(g.indexBuffer)
	g.vertexBuffer = 0
	g.indexBuffer = 0
	g.present = false
	g.indexCount = 0

	vertices, indices := buildGlyphGeometry(g.title)
	if len(indices) == 0 {
		return
	}

	vbuf, err := r.CreateBuffer("Glyph Vertices", renderer.BufferUsageVertex, 0, common.SliceToBytes(vertices))
	if err != nil {
		log.Printf("[GlyphMesh] vertex buffer rebuild failed: %v", err)
		return
	}
	ibuf, err := r.CreateBuffer("Glyph Indices", renderer.BufferUsageIndex, 0, common.SliceToBytes(indices))
	if err != nil {
		log.Printf("[GlyphMesh] index buffer rebuild failed: %v", err)
		r.ReleaseBuffer(vbuf)
		return
	}

	g.vertexBuffer = vbuf
	g.indexBuffer = ibuf
	g.indexCount = uint32(len(indices))
	g.present = true
}

func (g *glyphMesh) Draw(r renderer.Renderer) error {
	if !g.present {
		return nil
	}
	return r.Draw(renderer.DrawCall{
		PipelineKey:   renderer.PipelineKeyGlyph,
		Vertex:        g.vertexBuffer,
		Index:         g.indexBuffer,
		IndexCount:    g.indexCount,
		InstanceCount: 1,
		BindGroups:    []renderer.BindGroupID{g.globalsGroup, g.paramsGroup},
	})
}

func (g *glyphMesh) Dispose(r renderer.Renderer) {
	r.ReleaseBindGroup(g.paramsGroup)
	r.ReleaseBindGroup(g.globalsGroup)
	r.ReleaseBuffer(g.paramsBuffer)
	r.ReleaseBuffer(g.indexBuffer)
	r.ReleaseBuffer(g.vertexBuffer)
	g.paramsGroup = 0
	g.globalsGroup = 0
	g.paramsBuffer = 0
	g.indexBuffer = 0
	g.vertexBuffer = 0
	g.present = false
}

// truncateTitle cuts titles past the rune limit and appends an ellipsis.
func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleRunes {
		return title
	}
	return string(runes[:maxTitleRunes]) + "…"
}

// buildGlyphGeometry turns a title into extruded boxes, one per lit font
// cell, centered on the origin. Vertices are interleaved position (3) and
// normal (3) float32s; indices are uint32 triangles.
func buildGlyphGeometry(title string) ([]float32, []uint32) {
	runes := []rune(title)
	if len(runes) == 0 {
		return nil, nil
	}

	// Each glyph occupies 5 columns plus 1 of spacing.
	totalCols := len(runes)*6 - 1
	originX := -float64(totalCols) * glyphCellSize / 2
	half := float32(glyphCellSize * 0.46)
	halfDepth := float32(glyphCellDepth)

	var vertices []float32
	var indices []uint32
	for ci, r := range runes {
		rows := glyphRows(r)
		for row := 0; row < 7; row++ {
			bits := rows[row]
			for col := 0; col < 5; col++ {
				if bits&(1<<(4-col)) == 0 {
					continue
				}
				cx := float32(originX + float64(ci*6+col)*glyphCellSize + glyphCellSize/2)
				cy := float32(float64(6-row) * glyphCellSize)
				vertices, indices = appendBox(vertices, indices, cx, cy, 0, half, half, halfDepth)
			}
		}
	}
	return vertices, indices
}

// boxFaces lists each face's normal and its four corners as signs of the half
// extents, wound counter-clockwise when viewed from outside.
var boxFaces = [6]struct {
	normal  [3]float32
	corners [4][3]float32
}{
	{[3]float32{0, 0, 1}, [4][3]float32{{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1}}},
	{[3]float32{0, 0, -1}, [4][3]float32{{1, -1, -1}, {-1, -1, -1}, {-1, 1, -1}, {1, 1, -1}}},
	{[3]float32{1, 0, 0}, [4][3]float32{{1, -1, 1}, {1, -1, -1}, {1, 1, -1}, {1, 1, 1}}},
	{[3]float32{-1, 0, 0}, [4][3]float32{{-1, -1, -1}, {-1, -1, 1}, {-1, 1, 1}, {-1, 1, -1}}},
	{[3]float32{0, 1, 0}, [4][3]float32{{-1, 1, 1}, {1, 1, 1}, {1, 1, -1}, {-1, 1, -1}}},
	{[3]float32{0, -1, 0}, [4][3]float32{{-1, -1, -1}, {1, -1, -1}, {1, -1, 1}, {-1, -1, 1}}},
}

// appendBox appends one axis-aligned box (24 vertices, 36 indices) centered
// at (cx, cy, cz) with half extents (hx, hy, hz).
func appendBox(vertices []float32, indices []uint32, cx, cy, cz, hx, hy, hz float32) ([]float32, []uint32) {
	base := uint32(len(vertices) / 6)
	for _, face := range boxFaces {
		for _, corner := range face.corners {
			vertices = append(vertices,
				cx+corner[0]*hx, cy+corner[1]*hy, cz+corner[2]*hz,
				face.normal[0], face.normal[1], face.normal[2],
			)
		}
	}
	for f := uint32(0); f < 6; f++ {
		o := base + f*4
		indices = append(indices, o, o+1, o+2, o, o+2, o+3)
	}
	return vertices, indices
}
