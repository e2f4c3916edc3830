package utils

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BasicOperations(t *testing.T) {
	registry := NewRegistry[string, int]()
	assert.Equal(t, 0, registry.Size())

	require.NoError(t, registry.Register("key1", 42))

	value, exists := registry.Get("key1")
	assert.True(t, exists)
	assert.Equal(t, 42, value)
	assert.True(t, registry.Has("key1"))
	assert.False(t, registry.Has("nonexistent"))
	assert.Equal(t, 1, registry.Size())
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	registry := NewRegistry[string, int]()
	require.NoError(t, registry.Register("key", 1))

	err := registry.Register("key", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	value, _ := registry.Get("key")
	assert.Equal(t, 1, value)
}

func TestRegistry_ListKeepsRegistrationOrder(t *testing.T) {
	registry := NewRegistry[string, string]()
	for _, key := range []string{"c", "a", "b"} {
		require.NoError(t, registry.Register(key, "value_"+key))
	}

	assert.Equal(t, []string{"c", "a", "b"}, registry.List())

	var visited []string
	registry.ForEach(func(k, v string) {
		visited = append(visited, k+"="+v)
	})
	assert.Equal(t, []string{"c=value_c", "a=value_a", "b=value_b"}, visited)
}

func TestRegistry_RegisterWithValidator(t *testing.T) {
	registry := NewRegistry[string, int]()
	errNegative := errors.New("negative values not allowed")

	validator := func(_ string, value int, _ map[string]int) error {
		if value < 0 {
			return errNegative
		}
		return nil
	}

	require.NoError(t, registry.RegisterWithValidator("ok", 1, validator))
	assert.ErrorIs(t, registry.RegisterWithValidator("bad", -1, validator), errNegative)
	assert.False(t, registry.Has("bad"))

	// overwriting through a permissive validator keeps the original position
	require.NoError(t, registry.RegisterWithValidator("ok", 5, nil))
	assert.Equal(t, []string{"ok"}, registry.List())
	value, _ := registry.Get("ok")
	assert.Equal(t, 5, value)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewRegistry[int, int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = registry.Register(i, i*i)
			registry.Get(i)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, registry.Size())
}
