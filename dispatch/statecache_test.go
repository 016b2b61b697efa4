package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hookrelay/dispatch/dispatch"
	"github.com/hookrelay/dispatch/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStateRepo struct {
	statuses map[int64]webhook.Status
	getCalls int
	failGet  error
	failSet  error
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{statuses: make(map[int64]webhook.Status)}
}

func (f *fakeStateRepo) GetStatus(ctx context.Context, id int64) (webhook.Status, bool, error) {
	f.getCalls++
	if f.failGet != nil {
		return webhook.Status{}, false, f.failGet
	}
	s, ok := f.statuses[id]
	return s, ok, nil
}

func (f *fakeStateRepo) SetStatus(ctx context.Context, id int64, status webhook.Status) error {
	if f.failSet != nil {
		return f.failSet
	}
	f.statuses[id] = status
	return nil
}

func TestStateCacheGetDefaultsToEnabled(t *testing.T) {
	repo := newFakeStateRepo()
	cache := dispatch.NewStateCache(repo)

	status, err := cache.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, status.IsEnabled())
	assert.Equal(t, 1, repo.getCalls)

	_, err = cache.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.getCalls, "second read should be served from cache")
}

func TestStateCacheSetStatusWritesThroughThenCaches(t *testing.T) {
	repo := newFakeStateRepo()
	cache := dispatch.NewStateCache(repo)

	since := time.Now()
	require.NoError(t, cache.SetStatus(context.Background(), 2, webhook.NewRetrying(since)))

	assert.Equal(t, webhook.Retrying, repo.statuses[2].Kind)

	status, err := cache.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, webhook.Retrying, status.Kind)
	assert.Equal(t, 0, repo.getCalls, "cached write should not require a repo read")
}

func TestStateCacheGetSurfacesRepoErrorAsRepoError(t *testing.T) {
	repo := newFakeStateRepo()
	repo.failGet = errors.New("connection refused")
	cache := dispatch.NewStateCache(repo)

	_, err := cache.Get(context.Background(), 3)
	require.Error(t, err)
	var repoErr webhook.RepoError
	assert.ErrorAs(t, err, &repoErr)
}

func TestStateCacheInvalidateForcesRepoRead(t *testing.T) {
	repo := newFakeStateRepo()
	repo.statuses[4] = webhook.NewDisabled()
	cache := dispatch.NewStateCache(repo)

	_, err := cache.Get(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.getCalls)

	cache.Invalidate(4)

	_, err = cache.Get(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.getCalls)
}
