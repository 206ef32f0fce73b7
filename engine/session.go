// Package engine coordinates resolution and every audio and string
// workflow against a single target.
package engine

import (
	"errors"
	"fmt"
	"log"

	"gitlab.com/stephen-fox/gmpatch/hostio"
	"gitlab.com/stephen-fox/gmpatch/memory"
	"gitlab.com/stephen-fox/gmpatch/resource"
)

// ErrNotResolved is returned by workflows invoked before the first
// call to Frame.
var ErrNotResolved = errors.New("resources have not been resolved yet")

// Config configures a Session.
type Config struct {
	// Space is the target's address space.
	Space memory.AddressSpace

	// Allocator reserves swap buffers in the target.
	Allocator memory.Allocator

	// Anchors are the anchors of the target's build.
	Anchors memory.Anchors

	SkipExternal  bool
	SkipSecondary bool

	// OptLogger is an optional logger that, when non-nil, receives
	// stage banners and a message for every pointer found or written.
	OptLogger *log.Logger

	// OptOpenFn opens a saved file with the host's default
	// application. hostio.OpenWithDefault is used when nil.
	OptOpenFn func(path string) error

	// OptResolverFn may adjust the Resolver before it runs.
	OptResolverFn func(*resource.Resolver)
}

// NewSession creates a Session. Nothing is read from the target
// until Frame is called.
func NewSession(config Config) *Session {
	openFn := config.OptOpenFn
	if openFn == nil {
		openFn = hostio.OpenWithDefault
	}

	return &Session{
		config: config,
		openFn: openFn,
		stages: &StageCtl{Logger: config.OptLogger},
	}
}

// Session owns the resource indexes of one target. It resolves them
// on the first Frame and keeps them, including their swap buffers,
// until it is discarded.
//
// A Session is not safe for concurrent use. It is meant to be driven
// from a single loop that calls Frame once per iteration.
type Session struct {
	config Config
	openFn func(string) error
	stages *StageCtl

	resolved bool
	audio    *resource.Index
	strings  *resource.Index
	texts    []string
	diags    []resource.Diag
	search   Searcher
}

// Frame is called once per iteration of the host's loop. The first
// call resolves every resource table. Later calls do nothing.
func (o *Session) Frame() error {
	if o.resolved {
		return nil
	}

	o.stages.Next("resolving pointers")

	resolver := resource.NewResolver(o.config.Space, o.config.Anchors)
	resolver.SkipExternal = o.config.SkipExternal
	resolver.SkipSecondary = o.config.SkipSecondary
	resolver.OptLogger = o.config.OptLogger
	if o.config.OptResolverFn != nil {
		o.config.OptResolverFn(resolver)
	}

	catalog := resolver.Resolve()

	o.stages.Done()

	o.audio = resource.NewIndex(o.config.Space, o.config.Allocator, catalog.Audio)
	o.audio.OptLogger = o.config.OptLogger

	o.strings = resource.NewIndex(o.config.Space, o.config.Allocator, catalog.Strings)
	o.strings.OptLogger = o.config.OptLogger

	o.texts = make([]string, len(catalog.Strings))
	for i, entry := range catalog.Strings {
		o.texts[i] = entry.Text
	}

	o.diags = catalog.Diags
	o.resolved = true

	for _, d := range o.diags {
		o.logf("%s", d)
	}

	o.logf("resolved %d audio entries, %d strings, %d secondary pointers",
		len(catalog.Audio), len(catalog.Strings), len(catalog.Secondary))

	return nil
}

// Resolved reports whether Frame has resolved the resource tables.
func (o *Session) Resolved() bool {
	return o.resolved
}

// Diags returns the diagnostics produced by resolution.
func (o *Session) Diags() []resource.Diag {
	return o.diags
}

// Audio returns the audio index.
func (o *Session) Audio() (*resource.Index, error) {
	if !o.resolved {
		return nil, ErrNotResolved
	}
	return o.audio, nil
}

// Strings returns the string index.
func (o *Session) Strings() (*resource.Index, error) {
	if !o.resolved {
		return nil, ErrNotResolved
	}
	return o.strings, nil
}

// RestoreAll restores every swapped audio and string entry.
//
// Discarding a Session does not restore anything. Swap buffers live
// in the target and stay in use after the Session is gone.
func (o *Session) RestoreAll() error {
	if !o.resolved {
		return ErrNotResolved
	}

	o.stages.Next("restoring swapped entries")
	defer o.stages.Done()

	_, audioErr := o.audio.RestoreAll()
	_, stringsErr := o.RestoreAllStrings()

	return errors.Join(audioErr, stringsErr)
}

func (o *Session) logf(format string, args ...any) {
	if o.config.OptLogger != nil {
		o.config.OptLogger.Printf(format, args...)
	}
}

func (o *Session) gameIDAddr() (memory.Addr, error) {
	addr, hasIt := o.config.Anchors.Lookup(resource.AnchorGameID)
	if !hasIt {
		return 0, fmt.Errorf("build '%s' has no %s anchor", o.config.Anchors.Build(), resource.AnchorGameID)
	}
	return addr, nil
}

// GameID reads the target's game id field.
func (o *Session) GameID() (int32, error) {
	addr, err := o.gameIDAddr()
	if err != nil {
		return 0, err
	}

	v, err := memory.ReadUint32(o.config.Space, addr)
	if err != nil {
		return 0, fmt.Errorf("failed to read game id - %w", err)
	}

	return int32(v), nil
}

// SetGameID writes the target's game id field.
func (o *Session) SetGameID(id int32) error {
	addr, err := o.gameIDAddr()
	if err != nil {
		return err
	}

	err = memory.WriteUint32(o.config.Space, addr, uint32(id))
	if err != nil {
		return fmt.Errorf("failed to write game id - %w", err)
	}

	o.logf("game id at %s set to %d", addr, id)

	return nil
}
