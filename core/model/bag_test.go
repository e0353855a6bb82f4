package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/sklite/core/codec"
)

func TestAttributeBagInsertionOrder(t *testing.T) {
	bag := NewAttributeBag()
	bag.Set("zeta", codec.IntValue(1))
	bag.Set("alpha", codec.IntValue(2))
	bag.Set("mid", codec.IntValue(3))

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, bag.Names())
	assert.Equal(t, 3, bag.Len())
}

func TestAttributeBagReplaceKeepsPosition(t *testing.T) {
	bag := NewAttributeBag()
	bag.Set("a", codec.IntValue(1))
	bag.Set("b", codec.IntValue(2))
	bag.Set("a", codec.IntValue(99))

	assert.Equal(t, []string{"a", "b"}, bag.Names())
	v, ok := bag.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(99), v.Int())
}

func TestAttributeBagGetMissing(t *testing.T) {
	bag := NewAttributeBag()
	_, ok := bag.Get("nope")
	assert.False(t, ok)
}

func TestAttributeBagJSONRoundTripPreservesOrder(t *testing.T) {
	bag := NewAttributeBag()
	bag.Set("coef_", codec.Float64Value(1.5))
	bag.Set("intercept_", codec.Float64Value(-0.25))
	bag.Set("n_iter_", codec.IntValue(100))

	data, err := bag.MarshalJSON()
	require.NoError(t, err)

	restored := NewAttributeBag()
	require.NoError(t, restored.UnmarshalJSON(data))

	assert.Equal(t, bag.Names(), restored.Names())
	for _, name := range bag.Names() {
		want, _ := bag.Get(name)
		got, ok := restored.Get(name)
		require.True(t, ok, name)
		assert.True(t, want.Equal(got), name)
	}
}

func TestAttributeBagUnmarshalRejectsNonObject(t *testing.T) {
	bag := NewAttributeBag()
	err := bag.UnmarshalJSON([]byte(`[1, 2, 3]`))
	assert.Error(t, err)
}
