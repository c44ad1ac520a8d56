/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitymapper_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitymapper"
	"github.com/suparena/entitymapper/datastore/sqlite"
)

func TestRepositorySetFor(t *testing.T) {
	store, reg := setup(t)
	set := entitymapper.NewRepositorySet(store, reg, quiet())

	people := entitymapper.For[Person](set)
	if people != entitymapper.For[Person](set) {
		t.Error("expected the same repository for the same type")
	}
	entitymapper.For[Ticket](set)

	assert.Equal(t, []string{"entitymapper_test.Person", "entitymapper_test.Ticket"}, set.Types())
	assert.Same(t, reg, set.Registry())

	_, err := people.Insert(context.Background(), &Person{Name: "shared"})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Count("Person"))
	require.NoError(t, set.Close(), "closing a store without connections is a no-op")
}

func TestRepositorySetConcurrentFor(t *testing.T) {
	store, reg := setup(t)
	set := entitymapper.NewRepositorySet(store, reg, quiet())

	const workers = 16
	repos := make([]*entitymapper.Repository[Person], workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			repos[i] = entitymapper.For[Person](set)
		}(i)
	}
	wg.Wait()

	for _, r := range repos {
		if r != repos[0] {
			t.Fatal("concurrent For returned different repositories")
		}
	}
	assert.Len(t, set.Types(), 1)
}

func TestRepositorySetCloseClosesStore(t *testing.T) {
	_, reg := setup(t)
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "set.db"))
	require.NoError(t, err)

	set := entitymapper.NewRepositorySet(store, reg, quiet())
	_, err = entitymapper.For[Person](set).Insert(context.Background(), &Person{Name: "x"})
	require.NoError(t, err)
	require.NoError(t, set.Close())

	_, err = store.Count(context.Background(), "Person")
	assert.Error(t, err, "the store is closed")
}
