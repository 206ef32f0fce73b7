package resource

import (
	"fmt"

	"gitlab.com/stephen-fox/gmpatch/memory"
)

// DiagKind classifies a Diag.
type DiagKind string

const (
	DiagTagMismatch DiagKind = "tag_mismatch"
	DiagEmpty       DiagKind = "empty"
	DiagUnresolved  DiagKind = "unresolved"
	DiagUnreadable  DiagKind = "unreadable"
	DiagSurplus     DiagKind = "surplus"
)

// Diag records a non-fatal issue encountered while resolving
// or importing resources.
type Diag struct {
	Addr memory.Addr
	Kind DiagKind
	Msg  string
}

func (o Diag) String() string {
	return fmt.Sprintf("[%s] %s: %s", o.Kind, o.Addr, o.Msg)
}

// Diags accumulates diagnostics. A nil *Diags discards them.
type Diags struct {
	items []Diag
}

// Add records a diagnostic.
func (o *Diags) Add(addr memory.Addr, kind DiagKind, msg string) {
	if o == nil {
		return
	}
	o.items = append(o.items, Diag{Addr: addr, Kind: kind, Msg: msg})
}

func (o *Diags) Addf(addr memory.Addr, kind DiagKind, format string, args ...any) {
	o.Add(addr, kind, fmt.Sprintf(format, args...))
}

// Items returns the recorded diagnostics in the order they were added.
func (o *Diags) Items() []Diag {
	if o == nil {
		return nil
	}
	return o.items
}

func (o *Diags) Len() int { return len(o.Items()) }
