// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package dispatch

import (
	"fmt"
	"sort"
)

type stringSet map[string]struct{}

func (set stringSet) Contains(s string) bool {
	_, ok := set[s]
	return ok
}

func (set stringSet) Add(s string) {
	set[s] = struct{}{}
}

// Table is the immutable set of handlers a contract exposes.
type Table[S any] struct {
	entries      []Entry[S]
	constructors map[Selector]int
	messages     map[Selector]int
}

// NewTable checks entries and indexes them by selector.  Selectors must be
// unique across the whole table, and names unique per kind.  Either
// violation is reported here, before any call is dispatched.
func NewTable[S any](entries ...Entry[S]) (*Table[S], error) {
	t := &Table[S]{
		entries:      make([]Entry[S], len(entries)),
		constructors: make(map[Selector]int),
		messages:     make(map[Selector]int),
	}
	copy(t.entries, entries)

	owners := make(map[Selector]string, len(entries))
	names := map[Kind]stringSet{
		KindConstructor: make(stringSet),
		KindMessage:     make(stringSet),
	}
	for i := range t.entries {
		e := &t.entries[i]
		if e.Label == "" {
			return nil, fmt.Errorf("%w: entry %d", ErrEmptyLabel, i)
		}
		if e.bind == nil {
			return nil, fmt.Errorf("dispatch: entry %q was not built with Message or Constructor", e.Name())
		}
		seen, ok := names[e.Kind]
		if !ok {
			return nil, fmt.Errorf("dispatch: entry %q has unknown kind %s", e.Name(), e.Kind)
		}
		if seen.Contains(e.Name()) {
			return nil, fmt.Errorf("%w: %s %q", ErrDuplicateLabel, e.Kind, e.Name())
		}
		seen.Add(e.Name())
		if prev, dup := owners[e.Selector]; dup {
			return nil, fmt.Errorf("%w: %s used by %q and %q", ErrDuplicateSelector, e.Selector, prev, e.Name())
		}
		owners[e.Selector] = e.Name()

		if e.Kind == KindConstructor {
			t.constructors[e.Selector] = i
		} else {
			t.messages[e.Selector] = i
		}
	}
	return t, nil
}

// MustTable is NewTable for tables fixed at compile time.
func MustTable[S any](entries ...Entry[S]) *Table[S] {
	t, err := NewTable(entries...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table[S]) lookup(kind Kind, sel Selector) (*Entry[S], bool) {
	idx := t.messages
	if kind == KindConstructor {
		idx = t.constructors
	}
	i, ok := idx[sel]
	if !ok {
		return nil, false
	}
	return &t.entries[i], true
}

// Constructor returns the constructor registered under sel.
func (t *Table[S]) Constructor(sel Selector) (*Entry[S], bool) {
	return t.lookup(KindConstructor, sel)
}

// Message returns the message registered under sel.
func (t *Table[S]) Message(sel Selector) (*Entry[S], bool) {
	return t.lookup(KindMessage, sel)
}

// ByName finds an entry of the given kind by its qualified name.
func (t *Table[S]) ByName(kind Kind, name string) (*Entry[S], bool) {
	for i := range t.entries {
		if e := &t.entries[i]; e.Kind == kind && e.Name() == name {
			return e, true
		}
	}
	return nil, false
}

// Entries lists every entry, constructors first, each group in selector
// order.
func (t *Table[S]) Entries() []Entry[S] {
	out := make([]Entry[S], len(t.entries))
	copy(out, t.entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Selector.Uint32() < out[j].Selector.Uint32()
	})
	return out
}

func (t *Table[S]) Len() int {
	return len(t.entries)
}
