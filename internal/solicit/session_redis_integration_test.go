//go:build integration

package solicit_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wfap/internal/solicit"
	"wfap/pkg/testutil/containers"
)

func TestRedisSessionStoreStableContexts(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))

	store := solicit.NewRedisSessionStore(rc.Client)

	first, err := store.ContextID(ctx, "wells")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := store.ContextID(ctx, "wells")
	require.NoError(t, err)
	assert.Equal(t, first, second, "same peer must keep its context across calls")

	other, err := store.ContextID(ctx, "chase")
	require.NoError(t, err)
	assert.NotEqual(t, first, other, "distinct peers get distinct contexts")
}

func TestRedisSessionStoreConcurrentAgreement(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))

	store := solicit.NewRedisSessionStore(rc.Client)

	const racers = 16
	ids := make([]string, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := store.ContextID(ctx, "contested")
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for i := 1; i < racers; i++ {
		assert.Equal(t, ids[0], ids[i], "all racers must converge on one context id")
	}
}
