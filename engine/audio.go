package engine

import (
	"fmt"

	"gitlab.com/stephen-fox/gmpatch/audioprobe"
	"gitlab.com/stephen-fox/gmpatch/hostio"
	"gitlab.com/stephen-fox/gmpatch/resource"
)

const sniffLen = 12

// AudioInfo summarizes one audio entry for display.
type AudioInfo struct {
	Index   int
	Entry   resource.Entry
	Current audioprobe.Format
}

// ListAudio returns every audio entry.
func (o *Session) ListAudio() ([]AudioInfo, error) {
	index, err := o.Audio()
	if err != nil {
		return nil, err
	}

	infos := make([]AudioInfo, index.Len())
	for i, entry := range index.Entries() {
		infos[i] = AudioInfo{
			Index:   i,
			Entry:   entry,
			Current: audioprobe.FormatUnknown,
		}

		head, err := index.PeekCurrentBytes(i, sniffLen)
		if err == nil {
			infos[i].Current = audioprobe.Sniff(head)
		}
	}

	return infos, nil
}

// AudioBytes returns the payload audio entry i currently refers to.
func (o *Session) AudioBytes(i int) ([]byte, error) {
	index, err := o.Audio()
	if err != nil {
		return nil, err
	}

	return index.ReadCurrentBytes(i)
}

// DescribeAudio describes the payload audio entry i currently
// refers to.
func (o *Session) DescribeAudio(i int) (audioprobe.Description, error) {
	b, err := o.AudioBytes(i)
	if err != nil {
		return audioprobe.Description{}, err
	}

	return audioprobe.Describe(b)
}

// SaveAudio writes the payload of audio entry i to path. When path
// has no extension, one is picked based on the payload's format.
// The path that was written is returned.
func (o *Session) SaveAudio(i int, path string) (string, error) {
	b, err := o.AudioBytes(i)
	if err != nil {
		return "", err
	}

	path = hostio.WithExtension(path, audioprobe.DefaultExtension(b))

	err = hostio.WriteAll(path, b)
	if err != nil {
		return "", err
	}

	o.logf("saved audio entry %d to %q", i, path)

	return path, nil
}

// SaveAndPlayAudio calls SaveAudio and then opens the saved file.
func (o *Session) SaveAndPlayAudio(i int, path string) (string, error) {
	path, err := o.SaveAudio(i, path)
	if err != nil {
		return "", err
	}

	return path, o.openFn(path)
}

// PlayAudio saves the payload of audio entry i to a new temporary
// file and opens it.
func (o *Session) PlayAudio(i int) (string, error) {
	b, err := o.AudioBytes(i)
	if err != nil {
		return "", err
	}

	path, err := hostio.SaveTemp(b, audioprobe.DefaultExtension(b))
	if err != nil {
		return "", err
	}

	return path, o.openFn(path)
}

// LoadAudio swaps audio entry i for the contents of the file at path.
// Nothing is written to the target unless the file is read in full.
func (o *Session) LoadAudio(i int, path string) error {
	index, err := o.Audio()
	if err != nil {
		return err
	}

	b, err := hostio.ReadAll(path)
	if err != nil {
		return err
	}

	o.stages.Next(fmt.Sprintf("swapping audio entry %d", i))
	defer o.stages.Done()

	return index.Swap(i, b)
}

// RestoreAudio points audio entry i back at its original payload.
func (o *Session) RestoreAudio(i int) error {
	index, err := o.Audio()
	if err != nil {
		return err
	}

	return index.Restore(i)
}
