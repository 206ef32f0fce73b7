// Package audioprobe identifies and describes audio payloads.
package audioprobe

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"gitlab.com/stephen-fox/gmpatch/bstruct"
)

// Format is the container format of a payload.
type Format string

const (
	FormatOgg     Format = "ogg"
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatUnknown Format = "unknown"
)

// ErrUnknownFormat is returned by Describe for payloads that
// Sniff cannot identify.
var ErrUnknownFormat = errors.New("unknown audio format")

// Sniff identifies the format of b from its first bytes.
func Sniff(b []byte) Format {
	switch {
	case bytes.HasPrefix(b, []byte("OggS")):
		return FormatOgg
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WAVE")):
		return FormatWAV
	case bytes.HasPrefix(b, []byte("ID3")):
		return FormatMP3
	case len(b) >= 2 && b[0] == 0xff && b[1]&0xe0 == 0xe0:
		return FormatMP3
	default:
		return FormatUnknown
	}
}

// DefaultExtension returns the file extension a payload is saved
// with: ".ogg" for Ogg payloads and ".wav" for everything else.
func DefaultExtension(b []byte) string {
	if Sniff(b) == FormatOgg {
		return ".ogg"
	}

	return ".wav"
}

// Description summarizes an audio payload.
type Description struct {
	Format Format

	// PCM is the format of the decoded samples.
	PCM *audio.Format

	// BitDepth is zero when the container does not define one.
	BitDepth int

	// Duration is zero when it cannot be determined.
	Duration time.Duration

	Size int
}

func (o Description) String() string {
	if o.PCM == nil {
		return fmt.Sprintf("%s (%d bytes)", o.Format, o.Size)
	}

	str := fmt.Sprintf("%s, %d Hz, %d channel(s)", o.Format, o.PCM.SampleRate, o.PCM.NumChannels)
	if o.BitDepth > 0 {
		str += fmt.Sprintf(", %d bit", o.BitDepth)
	}
	if o.Duration > 0 {
		str += ", " + o.Duration.Round(time.Millisecond).String()
	}

	return fmt.Sprintf("%s (%d bytes)", str, o.Size)
}

// Describe decodes enough of b to describe it.
func Describe(b []byte) (Description, error) {
	desc := Description{
		Format: Sniff(b),
		Size:   len(b),
	}

	var err error

	switch desc.Format {
	case FormatOgg:
		err = describeOgg(b, &desc)
	case FormatWAV:
		err = describeWAV(b, &desc)
	case FormatMP3:
		err = describeMP3(b, &desc)
	default:
		return desc, ErrUnknownFormat
	}
	if err != nil {
		return desc, fmt.Errorf("failed to describe %s payload - %w", desc.Format, err)
	}

	return desc, nil
}

func describeWAV(b []byte, desc *Description) error {
	dec := wav.NewDecoder(bytes.NewReader(b))
	if !dec.IsValidFile() {
		return errors.New("not a valid wav file")
	}

	desc.PCM = dec.Format()
	desc.BitDepth = int(dec.BitDepth)

	dur, err := dec.Duration()
	if err == nil {
		desc.Duration = dur
	}

	return nil
}

func describeMP3(b []byte, desc *Description) error {
	dec, err := mp3.NewDecoder(bytes.NewReader(b))
	if err != nil {
		return err
	}

	// The decoded stream is always 16 bit stereo.
	desc.PCM = &audio.Format{
		NumChannels: 2,
		SampleRate:  dec.SampleRate(),
	}
	desc.BitDepth = 16

	if n := dec.Length(); n > 0 && dec.SampleRate() > 0 {
		samples := n / 4
		desc.Duration = time.Duration(samples) * time.Second / time.Duration(dec.SampleRate())
	}

	return nil
}

type oggPageHeader struct {
	CapturePattern [4]byte
	Version        uint8
	HeaderType     uint8
	GranulePos     uint64
	Serial         uint32
	Sequence       uint32
	Checksum       uint32
	Segments       uint8
}

type vorbisIdentHeader struct {
	PacketType uint8
	Magic      [6]byte
	Version    uint32
	Channels   uint8
	SampleRate uint32
}

func describeOgg(b []byte, desc *Description) error {
	var page oggPageHeader
	err := bstruct.BytesToStruct(b, binary.LittleEndian, &page)
	if err != nil {
		return fmt.Errorf("failed to decode first page header - %w", err)
	}

	pageSize, err := bstruct.Size(page)
	if err != nil {
		return err
	}

	packetStart := pageSize + int(page.Segments)
	if packetStart > len(b) {
		return errors.New("first page is truncated")
	}

	var ident vorbisIdentHeader
	err = bstruct.BytesToStruct(b[packetStart:], binary.LittleEndian, &ident)
	if err != nil || ident.PacketType != 1 || string(ident.Magic[:]) != "vorbis" {
		// Opus or another codec. The container is still known.
		return nil
	}

	desc.PCM = &audio.Format{
		NumChannels: int(ident.Channels),
		SampleRate:  int(ident.SampleRate),
	}

	last := bytes.LastIndex(b, []byte("OggS"))
	if last > 0 && ident.SampleRate > 0 {
		var lastPage oggPageHeader
		if bstruct.BytesToStruct(b[last:], binary.LittleEndian, &lastPage) == nil {
			desc.Duration = time.Duration(lastPage.GranulePos) * time.Second / time.Duration(ident.SampleRate)
		}
	}

	return nil
}
