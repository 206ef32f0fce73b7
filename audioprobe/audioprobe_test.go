package audioprobe

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"gitlab.com/stephen-fox/gmpatch/bstruct"
)

type wavHeader struct {
	Riff          [4]byte
	Size          uint32
	Wave          [4]byte
	Fmt           [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Data          [4]byte
	DataSize      uint32
}

func testWAV(t *testing.T, dataSize int) []byte {
	header := wavHeader{
		Riff:          [4]byte{'R', 'I', 'F', 'F'},
		Size:          uint32(36 + dataSize),
		Wave:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   1,
		Channels:      1,
		SampleRate:    8000,
		ByteRate:      16000,
		BlockAlign:    2,
		BitsPerSample: 16,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      uint32(dataSize),
	}

	b, err := bstruct.StructToBytes(header, binary.LittleEndian, nil)
	if err != nil {
		t.Fatal(err)
	}

	return append(b, make([]byte, dataSize)...)
}

func testOgg(t *testing.T) []byte {
	first := oggPageHeader{
		CapturePattern: [4]byte{'O', 'g', 'g', 'S'},
		HeaderType:     2,
		Segments:       1,
	}

	ident := vorbisIdentHeader{
		PacketType: 1,
		Magic:      [6]byte{'v', 'o', 'r', 'b', 'i', 's'},
		Channels:   2,
		SampleRate: 44100,
	}

	last := oggPageHeader{
		CapturePattern: [4]byte{'O', 'g', 'g', 'S'},
		HeaderType:     4,
		GranulePos:     44100 * 2,
	}

	var out []byte
	add := func(s interface{}) {
		b, err := bstruct.StructToBytes(s, binary.LittleEndian, nil)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, b...)
	}

	add(first)
	// Segment table: one segment holding the ident packet.
	out = append(out, 30)
	add(ident)
	add(last)

	return out
}

func TestSniff(t *testing.T) {
	cases := map[Format][]byte{
		FormatOgg:     []byte("OggS\x00\x02"),
		FormatWAV:     []byte("RIFF\x00\x00\x00\x00WAVEfmt "),
		FormatMP3:     {0xff, 0xfb, 0x90, 0x64},
		FormatUnknown: []byte("RIFF\x00\x00\x00\x00AVI "),
	}

	for exp, b := range cases {
		if got := Sniff(b); got != exp {
			t.Fatalf("expected %s - got %s", exp, got)
		}
	}

	if Sniff([]byte("ID3\x04")) != FormatMP3 {
		t.Fatal("expected an ID3 tag to be sniffed as mp3")
	}

	if Sniff(nil) != FormatUnknown {
		t.Fatal("expected an empty payload to be unknown")
	}
}

func TestDefaultExtension(t *testing.T) {
	if ext := DefaultExtension([]byte("OggS")); ext != ".ogg" {
		t.Fatalf("expected .ogg - got %s", ext)
	}

	if ext := DefaultExtension([]byte("ID3")); ext != ".wav" {
		t.Fatalf("expected .wav - got %s", ext)
	}
}

func TestDescribe_WAV(t *testing.T) {
	desc, err := Describe(testWAV(t, 1600))
	if err != nil {
		t.Fatal(err)
	}

	if desc.Format != FormatWAV || desc.PCM == nil {
		t.Fatalf("unexpected description: %+v", desc)
	}

	if desc.PCM.SampleRate != 8000 || desc.PCM.NumChannels != 1 || desc.BitDepth != 16 {
		t.Fatalf("unexpected pcm format: %+v (bit depth %d)", desc.PCM, desc.BitDepth)
	}

	if diff := desc.Duration - 100*time.Millisecond; diff < -time.Millisecond || diff > time.Millisecond {
		t.Fatalf("expected a duration of 100ms - got %s", desc.Duration)
	}
}

func TestDescribe_Ogg(t *testing.T) {
	desc, err := Describe(testOgg(t))
	if err != nil {
		t.Fatal(err)
	}

	if desc.PCM == nil || desc.PCM.SampleRate != 44100 || desc.PCM.NumChannels != 2 {
		t.Fatalf("unexpected description: %+v", desc)
	}

	if desc.Duration != 2*time.Second {
		t.Fatalf("expected 2s - got %s", desc.Duration)
	}
}

func TestDescribe_Unknown(t *testing.T) {
	desc, err := Describe([]byte("not audio"))
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat - got %v", err)
	}

	if desc.String() != "unknown (9 bytes)" {
		t.Fatalf("unexpected description: %q", desc.String())
	}
}

func TestDescribe_TruncatedOgg(t *testing.T) {
	_, err := Describe([]byte("OggS"))
	if err == nil {
		t.Fatal("expected an error for a truncated page")
	}

	if !bytes.HasPrefix([]byte(err.Error()), []byte("failed to describe ogg payload")) {
		t.Fatalf("unexpected error: %v", err)
	}
}
