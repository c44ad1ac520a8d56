/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitymapper_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitymapper"
	"github.com/suparena/entitymapper/errors"
	"github.com/suparena/entitymapper/storagemodels"
)

func TestStreamWalksAllPages(t *testing.T) {
	ctx := context.Background()
	store, reg := setup(t)
	repo := entitymapper.New[Person](store, reg, quiet())
	people := seedPeople(t, repo, 10)

	var progress []storagemodels.StreamProgress
	var got []Person
	for res := range repo.Stream(ctx, entitymapper.All().OrderBy("Seq"),
		storagemodels.WithPageSize(3),
		storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) {
			progress = append(progress, p)
		}),
	) {
		require.NoError(t, res.Error)
		assert.Equal(t, int64(len(got)), res.Meta.Index)
		require.NotNil(t, res.Document)
		assert.Equal(t, res.Item.ID, res.Document.Key.ID)
		got = append(got, res.Item)
	}

	assert.Equal(t, people, got)
	require.Len(t, progress, 4)
	assert.Equal(t, int64(10), progress[3].ItemsProcessed)
	assert.Equal(t, 4, progress[3].PagesProcessed)
}

func TestStreamRespectsTake(t *testing.T) {
	ctx := context.Background()
	store, reg := setup(t)
	repo := entitymapper.New[Person](store, reg, quiet())
	people := seedPeople(t, repo, 10)

	var got []Person
	for res := range repo.Stream(ctx, entitymapper.All().OrderBy("Seq").Take(5), storagemodels.WithPageSize(3)) {
		require.NoError(t, res.Error)
		got = append(got, res.Item)
	}
	assert.Equal(t, people[:5], got)
}

func TestStreamDecodeErrors(t *testing.T) {
	ctx := context.Background()
	store, reg := setup(t)
	repo := entitymapper.New[Person](store, reg, quiet())
	seedPeople(t, repo, 4)

	bad := storagemodels.NewDocument(storagemodels.Key{Kind: "Person", ID: "broken"})
	bad.Set("age", &types.AttributeValueMemberBOOL{Value: true}, false)
	store.Put(bad)

	t.Run("Continue", func(t *testing.T) {
		var items, failures int
		for res := range repo.Stream(ctx, nil, storagemodels.WithPageSize(2)) {
			if res.Error != nil {
				assert.True(t, errors.IsDecode(res.Error))
				require.NotNil(t, res.Document)
				assert.Equal(t, "broken", res.Document.Key.ID)
				failures++
				continue
			}
			items++
		}
		assert.Equal(t, 4, items)
		assert.Equal(t, 1, failures)
	})

	t.Run("Stop", func(t *testing.T) {
		var failures int
		for res := range repo.Stream(ctx, nil,
			storagemodels.WithPageSize(1),
			storagemodels.WithErrorHandler(func(error) bool { return false }),
		) {
			if res.Error != nil {
				failures++
			}
		}
		assert.Equal(t, 1, failures)
	})
}

func TestStreamReportsQueryErrors(t *testing.T) {
	ctx := context.Background()
	store, reg := setup(t)
	repo := entitymapper.New[Person](store, reg, quiet())

	var results []entitymapper.StreamResult[Person]
	for res := range repo.Stream(ctx, entitymapper.Where("Unknown", storagemodels.Equal, 1)) {
		results = append(results, res)
	}
	require.Len(t, results, 1)
	assert.True(t, errors.IsResolution(results[0].Error))
}

func TestStreamStopsOnCancel(t *testing.T) {
	store, reg := setup(t)
	repo := entitymapper.New[Person](store, reg, quiet())
	seedPeople(t, repo, 10)

	ctx, cancel := context.WithCancel(context.Background())
	ch := repo.Stream(ctx, nil, storagemodels.WithPageSize(1), storagemodels.WithBufferSize(0))
	first := <-ch
	require.NoError(t, first.Error)
	cancel()

	n := 0
	for range ch {
		n++
	}
	assert.LessOrEqual(t, n, 1)
}
