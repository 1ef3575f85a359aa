// Package stub implements the versioned function table handed across
// module boundaries in place of direct symbol linkage. A provider module
// builds a Table once during initialization, publishes it through the
// package registry, and consumers resolve calls through slot indices.
// Because call sites bind to indices, the host and its extensions can be
// compiled independently as long as the table only ever grows.
package stub

import (
	"errors"
	"fmt"
)

// Table binding errors.
var (
	// ErrEpochMismatch indicates the provider's interface epoch differs
	// from the one the consumer was built against. Epochs only change on
	// incompatible redesigns of the table layout.
	ErrEpochMismatch = errors.New("stub table epoch mismatch")

	// ErrRevisionTooOld indicates the table has fewer slots than the
	// consumer requires.
	ErrRevisionTooOld = errors.New("stub table revision too old")

	// ErrSlotRange indicates a slot index outside the table.
	ErrSlotRange = errors.New("stub table slot out of range")

	// ErrSlotType indicates the slot holds a function of a different type
	// than the consumer asked for.
	ErrSlotType = errors.New("stub table slot has unexpected type")
)

// Slot is one entry in a Table: a stable name for diagnostics and the
// function it exposes.
type Slot struct {
	Name string
	Fn   any
}

// Table is an ordered, append-only sequence of function slots plus an
// interface epoch and a revision counter. Slot order and meaning never
// change within an epoch: new capability is added only by appending slots
// (which bumps the revision) or by starting a new epoch.
//
// A Table is built single-threaded during module initialization and must
// not be appended to after it has been published to other modules;
// published tables are read-only and safe for concurrent Lookup.
type Table struct {
	pkg   string
	epoch int
	slots []Slot
}

// NewTable creates an empty table for the named package at the given
// interface epoch.
func NewTable(pkg string, epoch int) *Table {
	return &Table{pkg: pkg, epoch: epoch}
}

// Package returns the package name the table belongs to.
func (t *Table) Package() string { return t.pkg }

// Epoch returns the table's interface epoch.
func (t *Table) Epoch() int { return t.epoch }

// Revision returns the current revision, which equals the slot count.
// A consumer built against revision N works with any table of revision
// >= N at the same epoch.
func (t *Table) Revision() int { return len(t.slots) }

// Len returns the number of slots.
func (t *Table) Len() int { return len(t.slots) }

// Append adds a slot at the end of the table and returns its index.
// There is deliberately no way to remove or reorder slots. Appending a
// nil function is a programming error.
func (t *Table) Append(name string, fn any) int {
	if fn == nil {
		panic(fmt.Sprintf("stub: nil function appended to table %q as %q", t.pkg, name))
	}
	t.slots = append(t.slots, Slot{Name: name, Fn: fn})
	return len(t.slots) - 1
}

// Lookup returns the function in the given slot after validating that the
// table's epoch matches and its revision is at least minRevision. This is
// the version check consumers perform before trusting any slot index.
func (t *Table) Lookup(slot, epoch, minRevision int) (any, error) {
	if epoch != t.epoch {
		return nil, fmt.Errorf("package %q: consumer epoch %d, provider epoch %d: %w",
			t.pkg, epoch, t.epoch, ErrEpochMismatch)
	}
	if len(t.slots) < minRevision {
		return nil, fmt.Errorf("package %q: consumer needs revision %d, provider has %d: %w",
			t.pkg, minRevision, len(t.slots), ErrRevisionTooOld)
	}
	if slot < 0 || slot >= len(t.slots) {
		return nil, fmt.Errorf("package %q: slot %d of %d: %w",
			t.pkg, slot, len(t.slots), ErrSlotRange)
	}
	return t.slots[slot].Fn, nil
}

// Bind resolves a slot and asserts it to the consumer's function type.
func Bind[T any](t *Table, slot, epoch, minRevision int) (T, error) {
	var zero T
	fn, err := t.Lookup(slot, epoch, minRevision)
	if err != nil {
		return zero, err
	}
	typed, ok := fn.(T)
	if !ok {
		return zero, fmt.Errorf("package %q slot %d (%s): have %T: %w",
			t.pkg, slot, t.slots[slot].Name, fn, ErrSlotType)
	}
	return typed, nil
}
