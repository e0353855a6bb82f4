package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scierr "github.com/YuminosukeSato/sklite/pkg/errors"
)

func TestStateManagerLifecycle(t *testing.T) {
	sm := NewStateManager()
	assert.False(t, sm.IsFitted())

	sm.SetDimensions(4, 150)
	sm.SetFitted()
	assert.True(t, sm.IsFitted())

	features, samples := sm.GetDimensions()
	assert.Equal(t, 4, features)
	assert.Equal(t, 150, samples)

	sm.Reset()
	assert.False(t, sm.IsFitted())
	features, samples = sm.GetDimensions()
	assert.Zero(t, features)
	assert.Zero(t, samples)
}

func TestStateManagerRequireFitted(t *testing.T) {
	sm := NewStateManager()

	err := sm.RequireFitted("LogisticRegression", "Predict")
	require.Error(t, err)

	var notFitted *scierr.NotFittedError
	require.ErrorAs(t, err, &notFitted)
	assert.Equal(t, "LogisticRegression", notFitted.ModelName)

	sm.SetFitted()
	assert.NoError(t, sm.RequireFitted("LogisticRegression", "Predict"))
}

func TestStateManagerConcurrentAccess(t *testing.T) {
	sm := NewStateManager()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sm.SetFitted()
			sm.SetDimensions(3, 10)
		}()
		go func() {
			defer wg.Done()
			_ = sm.IsFitted()
			_, _ = sm.GetDimensions()
		}()
	}
	wg.Wait()

	assert.True(t, sm.IsFitted())
}
