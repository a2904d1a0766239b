// Package model provides the attribute-bag models and collections that back
// views. Views do not own models; a model's lifetime is governed by whoever
// created it, and a view merely listens for its destroy signal.
package model

import (
	"maps"
	"reflect"
	"sort"
)

// Model is a bag of attributes with change and destroy signals.
//
// Model is NOT thread-safe. It must only be accessed from the UI goroutine.
type Model struct {
	id        string
	attrs     map[string]any
	change    listeners[func(key string)]
	destroy   listeners[func()]
	destroyed bool
}

// New creates a model with a copy of attrs.
func New(id string, attrs map[string]any) *Model {
	m := &Model{id: id, attrs: make(map[string]any, len(attrs))}
	maps.Copy(m.attrs, attrs)
	return m
}

// ID returns the model's identifier.
func (m *Model) ID() string {
	return m.id
}

// Attributes returns a copy of the attribute map.
func (m *Model) Attributes() map[string]any {
	return maps.Clone(m.attrs)
}

// Get returns the value of attribute key.
func (m *Model) Get(key string) any {
	return m.attrs[key]
}

// Set updates attribute key and notifies change listeners if the value
// changed.
func (m *Model) Set(key string, value any) {
	if old, ok := m.attrs[key]; ok && reflect.DeepEqual(old, value) {
		return
	}
	m.attrs[key] = value
	m.change.each(func(fn func(string)) { fn(key) })
}

// Keys returns the attribute names in sorted order.
func (m *Model) Keys() []string {
	keys := make([]string, 0, len(m.attrs))
	for k := range m.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// OnChange registers fn to run after an attribute changes.
// The returned function unregisters it.
func (m *Model) OnChange(fn func(key string)) func() {
	return m.change.add(fn)
}

// OnDestroy registers fn to run when the model is destroyed.
// The returned function unregisters it.
func (m *Model) OnDestroy(fn func()) func() {
	if m.destroyed {
		fn()
		return func() {}
	}
	return m.destroy.add(fn)
}

// Destroy fires the destroy signal once. Later calls are no-ops.
func (m *Model) Destroy() {
	if m.destroyed {
		return
	}
	m.destroyed = true
	m.destroy.each(func(fn func()) { fn() })
	m.destroy = listeners[func()]{}
	m.change = listeners[func(string)]{}
}

// Destroyed reports whether Destroy has been called.
func (m *Model) Destroyed() bool {
	return m.destroyed
}

// listeners is an ordered set of callbacks that tolerates removal while
// being iterated.
type listeners[F any] struct {
	entries []listenerEntry[F]
	nextID  int
}

type listenerEntry[F any] struct {
	id int
	fn F
}

func (l *listeners[F]) add(fn F) func() {
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, listenerEntry[F]{id: id, fn: fn})
	return func() {
		for i, e := range l.entries {
			if e.id == id {
				l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
				return
			}
		}
	}
}

func (l *listeners[F]) each(call func(F)) {
	snapshot := append([]listenerEntry[F](nil), l.entries...)
	for _, e := range snapshot {
		call(e.fn)
	}
}

func (l *listeners[F]) len() int {
	return len(l.entries)
}
