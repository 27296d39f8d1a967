package player

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// trackDecoder streams a file as interleaved signed 16-bit little-endian PCM.
// Playback is forward-only; there is no seeking.
type trackDecoder interface {
	io.Reader

	// SampleRate returns the PCM sample rate in Hz.
	SampleRate() int

	// Channels returns the number of interleaved channels.
	Channels() int

	// Length returns the total decoded output size in bytes, or 0 when the
	// container does not declare it.
	Length() int64
}

// newTrackDecoder picks a decoder by file extension.
func newTrackDecoder(f *os.File) (trackDecoder, error) {
	switch ext := strings.ToLower(filepath.Ext(f.Name())); ext {
	case ".mp3":
		return newMP3Track(f)
	case ".wav":
		return newWAVTrack(f)
	case ".flac":
		return newFLACTrack(f)
	case ".ogg":
		return newOGGTrack(f)
	default:
		return nil, fmt.Errorf("unsupported audio format %q", ext)
	}
}

func clampS16(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// --- MP3 ---

// go-mp3 already emits 16-bit stereo at the stream's sample rate.
type mp3Track struct {
	dec *mp3.Decoder
}

func newMP3Track(f *os.File) (*mp3Track, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}
	return &mp3Track{dec: dec}, nil
}

func (t *mp3Track) Read(p []byte) (int, error) { return t.dec.Read(p) }
func (t *mp3Track) SampleRate() int            { return t.dec.SampleRate() }
func (t *mp3Track) Channels() int              { return 2 }
func (t *mp3Track) Length() int64              { return t.dec.Length() }

// --- WAV ---

type wavTrack struct {
	file       *os.File
	remainder  []byte
	bitDepth   int
	sampleRate int
	channels   int
	totalBytes int64
}

func newWAVTrack(f *os.File) (*wavTrack, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	// Positions the file reader at the first PCM byte.
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}
	srcFrame := int64(channels) * int64(bitDepth) / 8
	frames := dec.PCMLen() / srcFrame

	return &wavTrack{
		file:       f,
		bitDepth:   bitDepth,
		sampleRate: int(dec.SampleRate),
		channels:   channels,
		totalBytes: frames * int64(channels) * 2,
	}, nil
}

func (t *wavTrack) Read(p []byte) (int, error) {
	if len(t.remainder) > 0 {
		n := copy(p, t.remainder)
		t.remainder = t.remainder[n:]
		return n, nil
	}

	srcBytes := t.bitDepth / 8
	samples := len(p) / 2
	if samples == 0 {
		samples = 1
	}
	src := make([]byte, samples*srcBytes)
	n, err := io.ReadFull(t.file, src)
	read := n / srcBytes
	if read == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	out := make([]byte, read*2)
	for i := 0; i < read; i++ {
		var sample int
		off := i * srcBytes
		switch t.bitDepth {
		case 8:
			// 8-bit WAV samples are unsigned.
			sample = (int(src[off]) - 128) << 8
		case 16:
			sample = int(int16(binary.LittleEndian.Uint16(src[off:])))
		case 24:
			s := int32(src[off]) | int32(src[off+1])<<8 | int32(src[off+2])<<16
			if s&0x800000 != 0 {
				s |= ^0xFFFFFF
			}
			sample = int(s >> 8)
		case 32:
			sample = int(int32(binary.LittleEndian.Uint32(src[off:])) >> 16)
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(clampS16(sample)))
	}

	written := copy(p, out)
	if written < len(out) {
		t.remainder = out[written:]
	}
	if err == io.ErrUnexpectedEOF {
		err = nil
	}
	return written, err
}

func (t *wavTrack) SampleRate() int { return t.sampleRate }
func (t *wavTrack) Channels() int   { return t.channels }
func (t *wavTrack) Length() int64   { return t.totalBytes }

// --- FLAC ---

type flacTrack struct {
	stream     *flac.Stream
	remainder  []byte
	bps        int
	sampleRate int
	channels   int
	totalBytes int64
}

func newFLACTrack(f *os.File) (*flacTrack, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	info := stream.Info
	channels := int(info.NChannels)
	return &flacTrack{
		stream:     stream,
		bps:        int(info.BitsPerSample),
		sampleRate: int(info.SampleRate),
		channels:   channels,
		totalBytes: int64(info.NSamples) * int64(channels) * 2,
	}, nil
}

func (t *flacTrack) Read(p []byte) (int, error) {
	if len(t.remainder) > 0 {
		n := copy(p, t.remainder)
		t.remainder = t.remainder[n:]
		return n, nil
	}

	frame, err := t.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	samples := int(frame.Subframes[0].NSamples)
	out := make([]byte, samples*t.channels*2)
	for i := 0; i < samples; i++ {
		for ch := 0; ch < t.channels; ch++ {
			sample := int(frame.Subframes[ch].Samples[i])
			switch {
			case t.bps > 16:
				sample >>= t.bps - 16
			case t.bps < 16:
				sample <<= 16 - t.bps
			}
			off := (i*t.channels + ch) * 2
			binary.LittleEndian.PutUint16(out[off:], uint16(clampS16(sample)))
		}
	}

	written := copy(p, out)
	if written < len(out) {
		t.remainder = out[written:]
	}
	return written, nil
}

func (t *flacTrack) SampleRate() int { return t.sampleRate }
func (t *flacTrack) Channels() int   { return t.channels }
func (t *flacTrack) Length() int64   { return t.totalBytes }

// --- OGG Vorbis ---

type oggTrack struct {
	reader     *oggvorbis.Reader
	remainder  []byte
	channels   int
	totalBytes int64
}

func newOGGTrack(f *os.File) (*oggTrack, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	channels := reader.Channels()
	return &oggTrack{
		reader:     reader,
		channels:   channels,
		totalBytes: reader.Length() * int64(channels) * 2,
	}, nil
}

func (t *oggTrack) Read(p []byte) (int, error) {
	if len(t.remainder) > 0 {
		n := copy(p, t.remainder)
		t.remainder = t.remainder[n:]
		return n, nil
	}

	samples := make([]float32, len(p)/2)
	n, err := t.reader.Read(samples)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		s := samples[i]
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s*32767)))
	}

	written := copy(p, out)
	if written < len(out) {
		t.remainder = out[written:]
	}
	return written, err
}

func (t *oggTrack) SampleRate() int { return t.reader.SampleRate() }
func (t *oggTrack) Channels() int   { return t.channels }
func (t *oggTrack) Length() int64   { return t.totalBytes }
