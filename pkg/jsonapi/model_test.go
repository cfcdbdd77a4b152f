package jsonapi_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
)

func TestEntity_AssignID(t *testing.T) {
	t.Parallel()

	m := &Member{}
	assert.True(t, m.IsNew())
	assert.True(t, m.ID().IsNew())

	require.NoError(t, m.AssignID(jsonapi.NewIntIdentifier(1)))
	assert.False(t, m.IsNew())
	assert.Equal(t, "1", m.ID().String())

	require.NoError(t, m.AssignID(jsonapi.NewIntIdentifier(1)), "reassigning the same id is a no-op")

	err := m.AssignID(jsonapi.NewIntIdentifier(2))
	require.ErrorIs(t, err, jsonapi.ErrIdentityConflict)
	assert.Equal(t, "1", m.ID().String())

	require.ErrorIs(t, m.AssignID(nil), jsonapi.ErrNilArgument)
}

func TestEntity_AssignNewIdentifier(t *testing.T) {
	t.Parallel()

	m := &Member{}
	require.NoError(t, m.AssignID(jsonapi.NewIdentifier()))
	assert.True(t, m.IsNew())
}

func TestEntity_ConcurrentAssignment(t *testing.T) {
	t.Parallel()

	m := &Member{}

	const workers = 16

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	for i := range workers {
		wg.Add(1)

		go func(n int64) {
			defer wg.Done()

			err := m.AssignID(jsonapi.NewIntIdentifier(n))

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				successes++
			case errors.Is(err, jsonapi.ErrIdentityConflict):
				conflicts++
			}
		}(int64(i + 1))
	}

	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
	assert.False(t, m.IsNew())
}

func TestEqual(t *testing.T) {
	t.Parallel()

	a := newMember(t, 1, "a@example.com", 0)
	b := newMember(t, 1, "other@example.com", 10)
	c := newMember(t, 2, "a@example.com", 0)

	assert.True(t, jsonapi.Equal(a, b), "same type and id")
	assert.False(t, jsonapi.Equal(a, c))

	tier := &Tier{}
	require.NoError(t, tier.AssignID(jsonapi.NewIntIdentifier(1)))
	assert.False(t, jsonapi.Equal(a, tier), "different model types")

	n1 := newMember(t, 0, "a@example.com", 0)
	n2 := newMember(t, 0, "a@example.com", 0)
	assert.True(t, jsonapi.Equal(n1, n1))
	assert.False(t, jsonapi.Equal(n1, n2), "unsaved models are equal only to themselves")

	assert.Equal(t, jsonapi.HashKey(a), jsonapi.HashKey(b))
	assert.NotEqual(t, jsonapi.HashKey(a), jsonapi.HashKey(c))
}

func TestResourceTypeOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "members", jsonapi.ResourceTypeOf(&Member{}))
	assert.Equal(t, "tier", jsonapi.ResourceTypeOf(&Tier{}))
	assert.Empty(t, jsonapi.ResourceTypeOf(nil))
}
