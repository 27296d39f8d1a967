package layer

import (
	"strings"
	"testing"

	"github.com/dlmmedia/nebula/engine/audio"
)

func TestTitleTruncation(t *testing.T) {
	g := NewGlyphMesh()

	long := strings.Repeat("A", 50)
	g.SetTitle(long)

	got := []rune(g.Title())
	if len(got) != maxTitleRunes+1 {
		t.Fatalf("truncated length = %d runes, want %d", len(got), maxTitleRunes+1)
	}
	if got[len(got)-1] != '…' {
		t.Fatalf("truncated title does not end in ellipsis: %q", g.Title())
	}
	if string(got[:maxTitleRunes]) != strings.Repeat("A", maxTitleRunes) {
		t.Fatalf("truncated prefix altered: %q", g.Title())
	}
}

func TestShortTitleKeptVerbatim(t *testing.T) {
	g := NewGlyphMesh()
	g.SetTitle("Nebula Drive")
	if g.Title() != "Nebula Drive" {
		t.Fatalf("title = %q, want unchanged", g.Title())
	}
}

func TestTitleChangeRebuildsMesh(t *testing.T) {
	r := newFakeRenderer()
	g := NewGlyphMesh().(*glyphMesh)
	if err := g.Init(r, 1); err != nil {
		t.Fatalf("init: %v", err)
	}

	g.SetTitle("ONE")
	g.Upload(r)
	if !g.present {
		t.Fatal("mesh absent after first upload")
	}
	firstVertex := g.vertexBuffer

	// Same title again: no rebuild.
	g.SetTitle("ONE")
	g.Upload(r)
	if g.vertexBuffer != firstVertex {
		t.Fatal("unchanged title triggered a rebuild")
	}

	g.SetTitle("ANOTHER")
	g.Upload(r)
	if g.vertexBuffer == firstVertex {
		t.Fatal("changed title did not rebuild the mesh")
	}
	if _, alive := r.buffers[firstVertex]; alive {
		t.Fatal("old vertex buffer leaked after rebuild")
	}
}

func TestEmptyTitleDrawsNothing(t *testing.T) {
	r := newFakeRenderer()
	g := NewGlyphMesh()
	if err := g.Init(r, 1); err != nil {
		t.Fatalf("init: %v", err)
	}

	g.Upload(r)
	if err := g.Draw(r); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if len(r.draws) != 0 {
		t.Fatalf("empty title produced %d draws", len(r.draws))
	}
}

func TestRebuildFailureLeavesMeshAbsent(t *testing.T) {
	r := newFakeRenderer()
	g := NewGlyphMesh().(*glyphMesh)
	if err := g.Init(r, 1); err != nil {
		t.Fatalf("init: %v", err)
	}

	g.SetTitle("WILL FAIL")
	r.failCreate = true
	g.Upload(r)

	if g.present {
		t.Fatal("mesh present after failed rebuild")
	}
	if err := g.Draw(r); err != nil {
		t.Fatalf("draw after failed rebuild: %v", err)
	}
	if len(r.draws) != 0 {
		t.Fatal("absent mesh still drew")
	}
}

func TestTitleChangeReplaysIntroSpring(t *testing.T) {
	g := NewGlyphMesh().(*glyphMesh)
	g.SetTitle("FIRST")

	for i := 0; i < 300; i++ {
		g.Advance(float64(i)/60.0, 1.0/60.0, audio.Drive{})
	}
	if g.springPos < 0.9 {
		t.Fatalf("spring never settled: pos = %v", g.springPos)
	}

	g.SetTitle("SECOND")
	if g.springPos != 0 || g.springVel != 0 {
		t.Fatal("title change did not reset the intro spring")
	}
}

func TestGlyphGeometryMatchesLitCells(t *testing.T) {
	vertices, indices := buildGlyphGeometry("I")

	lit := 0
	for _, row := range glyphFont['I'] {
		for col := 0; col < 5; col++ {
			if row&(1<<col) != 0 {
				lit++
			}
		}
	}

	if len(vertices) != lit*24*6 {
		t.Fatalf("vertex floats = %d, want %d", len(vertices), lit*24*6)
	}
	if len(indices) != lit*36 {
		t.Fatalf("indices = %d, want %d", len(indices), lit*36)
	}
}

func TestGlyphScaleAndEmissivePulseWithBass(t *testing.T) {
	quiet := NewGlyphMesh().(*glyphMesh)
	loud := NewGlyphMesh().(*glyphMesh)
	quiet.SetTitle("PULSE")
	loud.SetTitle("PULSE")

	// Let the intro spring settle so only the drive terms differ.
	for frame := 0; frame < 600; frame++ {
		elapsed := float64(frame) / 60.0
		quiet.Advance(elapsed, 1.0/60.0, audio.Drive{})
		loud.Advance(elapsed, 1.0/60.0, audio.Drive{Bass: 1})
	}

	if loud.params.Model[0] <= quiet.params.Model[0] {
		t.Fatalf("bass did not grow glyph scale: quiet %v, loud %v", quiet.params.Model[0], loud.params.Model[0])
	}
	if loud.params.Emissive <= quiet.params.Emissive {
		t.Fatalf("bass did not raise emissive: quiet %v, loud %v", quiet.params.Emissive, loud.params.Emissive)
	}
}

func TestGlyphBaselineBobsAndLiftsWithMid(t *testing.T) {
	g := NewGlyphMesh().(*glyphMesh)
	g.SetTitle("BOB")

	g.Advance(0, 1.0/60.0, audio.Drive{})
	atZero := g.params.Model[13]
	g.Advance(2, 1.0/60.0, audio.Drive{})
	atTwo := g.params.Model[13]
	if atZero == atTwo {
		t.Fatal("baseline does not move over time")
	}

	g.Advance(2, 1.0/60.0, audio.Drive{Mid: 1})
	withMid := g.params.Model[13]
	if withMid <= atTwo {
		t.Fatalf("mid band did not lift the baseline: %v vs %v", withMid, atTwo)
	}
}
