package player

import (
	"bytes"
	"encoding/binary"
	"io"
	"path/filepath"
	"testing"

	"github.com/dlmmedia/nebula/engine/audio"
)

func TestTapReaderFeedsAnalyserAndCountsBytes(t *testing.T) {
	// 512 frames of a constant stereo tone.
	pcm := make([]byte, 512*4)
	for f := 0; f < 512; f++ {
		binary.LittleEndian.PutUint16(pcm[f*4:], uint16(int16(12000)))
		binary.LittleEndian.PutUint16(pcm[f*4+2:], uint16(int16(12000)))
	}

	analyser := audio.NewFFTAnalyser(44100, 1024)
	tap := &tapReader{reader: bytes.NewReader(pcm), analyser: analyser, channels: 2}

	out, err := io.ReadAll(tap)
	if err != nil {
		t.Fatalf("draining tap: %v", err)
	}
	if len(out) != len(pcm) {
		t.Fatalf("tap passed %d bytes, want %d", len(out), len(pcm))
	}
	if tap.Pos() != int64(len(pcm)) {
		t.Fatalf("pos = %d, want %d", tap.Pos(), len(pcm))
	}

	// A DC tone is all bin-zero energy; the analyser must see it.
	bins := make([]byte, analyser.BinCount())
	analyser.FrequencyMagnitudes(bins)
	if bins[0] == 0 {
		t.Fatal("analyser saw no signal through the tap")
	}
}

func TestMetadataFallsBackToFilename(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Midnight Drive.wav")
	m := ReadMetadata(path)
	if m.Title != "Midnight Drive" {
		t.Errorf("title = %q, want %q", m.Title, "Midnight Drive")
	}
	if got := m.DisplayTitle(); got != "Midnight Drive" {
		t.Errorf("display title = %q", got)
	}
}

func TestDisplayTitleJoinsArtistAndTitle(t *testing.T) {
	m := Metadata{Title: "Aurora", Artist: "Nova"}
	if got := m.DisplayTitle(); got != "Nova - Aurora" {
		t.Errorf("display title = %q, want %q", got, "Nova - Aurora")
	}
}
