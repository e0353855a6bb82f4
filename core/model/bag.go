package model

import (
	"github.com/YuminosukeSato/sklite/core/codec"
	scierr "github.com/YuminosukeSato/sklite/pkg/errors"
)

// AttributeBag is the flat, ordered mapping of an object's persisted
// attribute values. It is the serialization unit for reconstructable model
// state: Serialize produces one, Populate consumes one. Entry order follows
// insertion order and survives a JSON round trip.
type AttributeBag struct {
	entries []codec.MapEntry
	index   map[string]int
}

// NewAttributeBag creates an empty bag.
func NewAttributeBag() *AttributeBag {
	return &AttributeBag{index: make(map[string]int)}
}

// Set adds or replaces the value stored under name. A new name is appended;
// an existing name keeps its original position.
func (b *AttributeBag) Set(name string, value codec.TaggedValue) {
	if i, ok := b.index[name]; ok {
		b.entries[i].Value = value
		return
	}
	b.index[name] = len(b.entries)
	b.entries = append(b.entries, codec.MapEntry{Key: name, Value: value})
}

// Get returns the value stored under name.
func (b *AttributeBag) Get(name string) (codec.TaggedValue, bool) {
	i, ok := b.index[name]
	if !ok {
		return codec.TaggedValue{}, false
	}
	return b.entries[i].Value, true
}

// Names returns the attribute names in insertion order.
func (b *AttributeBag) Names() []string {
	names := make([]string, len(b.entries))
	for i, entry := range b.entries {
		names[i] = entry.Key
	}
	return names
}

// Len returns the number of attributes in the bag.
func (b *AttributeBag) Len() int {
	return len(b.entries)
}

// Entries returns the ordered entries. The slice is shared; callers must not
// modify it.
func (b *AttributeBag) Entries() []codec.MapEntry {
	return b.entries
}

// MarshalJSON renders the bag as a JSON object with entries in insertion
// order.
func (b *AttributeBag) MarshalJSON() ([]byte, error) {
	return codec.MappingValue(b.entries).MarshalJSON()
}

// UnmarshalJSON parses a JSON object into the bag, preserving the document's
// key order.
func (b *AttributeBag) UnmarshalJSON(data []byte) error {
	tv, err := codec.UnmarshalValue(data)
	if err != nil {
		return err
	}
	if tv.Kind() != codec.KindMapping {
		return scierr.NewValueError("AttributeBag.UnmarshalJSON", "expected a JSON object, got "+tv.Kind().String())
	}
	b.entries = tv.Entries()
	b.index = make(map[string]int, len(b.entries))
	for i, entry := range b.entries {
		b.index[entry.Key] = i
	}
	return nil
}
