package model

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/sklite/core/codec"
	scierr "github.com/YuminosukeSato/sklite/pkg/errors"
)

// Slot describes one named, typed attribute of a serializable object: how to
// read its current value and how to assign a decoded value back. Objects
// publish a fixed slot list instead of relying on runtime reflection, so the
// set of persisted attributes is explicit and reviewable.
type Slot struct {
	// Name is the persisted attribute name, following scikit-learn's
	// convention of a trailing underscore for learned attributes
	// (for example "coef_").
	Name string

	// Kind is the decode hint for this attribute's value.
	Kind codec.Kind

	// Get returns the attribute's current value for serialization.
	Get func() interface{}

	// Set assigns a decoded value to the attribute during population.
	Set func(value interface{}) error
}

// Serializable is implemented by objects whose state can be captured as an
// attribute bag and restored from one.
type Serializable interface {
	// StateSchema returns the ordered attribute slots that make up the
	// object's serializable state.
	StateSchema() []Slot
}

// Serialize captures the object's attributes into a bag, encoding each slot
// value through the codec in schema order. On any failure nothing is
// returned; encoding never yields a partially filled artifact to the caller.
func Serialize(obj Serializable) (*AttributeBag, error) {
	name := objectName(obj)
	bag := NewAttributeBag()

	for _, slot := range obj.StateSchema() {
		var value interface{}
		err := scierr.SafeExecute(name+".StateSchema."+slot.Name, func() error {
			value = slot.Get()
			return nil
		})
		if err != nil {
			return nil, err
		}

		tv, err := codec.Encode(value)
		if err != nil {
			return nil, scierr.Wrapf(err, "%s: attribute %q", name, slot.Name)
		}
		bag.Set(slot.Name, tv)
	}
	return bag, nil
}

// Populate restores a freshly constructed object of the correct kind from a
// bag. Correspondence is strict in both directions: a bag entry without a
// matching slot and a declared slot missing from the bag both fail with
// MissingTargetAttributeError, and a value that cannot decode to the slot's
// kind fails with TypeMismatchError.
//
// There are no partial-application semantics. When Populate returns an error
// the object may have had some attributes assigned already; callers must
// discard it.
func Populate(obj Serializable, bag *AttributeBag) error {
	name := objectName(obj)
	schema := obj.StateSchema()

	slots := make(map[string]Slot, len(schema))
	for _, slot := range schema {
		slots[slot.Name] = slot
	}

	for _, entryName := range bag.Names() {
		if _, ok := slots[entryName]; !ok {
			return scierr.NewMissingTargetAttributeError(name, entryName, "bag")
		}
	}
	for _, slot := range schema {
		if _, ok := bag.Get(slot.Name); !ok {
			return scierr.NewMissingTargetAttributeError(name, slot.Name, "schema")
		}
	}

	for _, entry := range bag.Entries() {
		slot := slots[entry.Key]

		decoded, err := codec.DecodeAs(entry.Value, slot.Kind)
		if err != nil {
			return scierr.NewTypeMismatchError(name, slot.Name, slot.Kind.String(), entry.Value.Kind().String(), err)
		}

		err = scierr.SafeExecute(name+".StateSchema."+slot.Name, func() error {
			return slot.Set(decoded)
		})
		if err != nil {
			return scierr.Wrapf(err, "%s: attribute %q", name, slot.Name)
		}
	}
	return nil
}

// objectName derives a short model name ("LinearRegression") from the
// object's dynamic type for use in error messages.
func objectName(obj Serializable) string {
	full := fmt.Sprintf("%T", obj)
	full = strings.TrimPrefix(full, "*")
	if i := strings.LastIndex(full, "."); i >= 0 {
		return full[i+1:]
	}
	return full
}
