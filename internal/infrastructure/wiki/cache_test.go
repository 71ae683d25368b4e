package wiki

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WikiCardPoster/internal/domain"
)

type countingSource struct {
	members int
	fetches int
	err     error
}

func (c *countingSource) CategoryMembers(_ context.Context, category domain.Category, limit int) ([]domain.ArticleRef, error) {
	c.members++
	if c.err != nil {
		return nil, c.err
	}
	return []domain.ArticleRef{{ID: int64(limit), Title: string(category)}}, nil
}

func (c *countingSource) FetchContent(_ context.Context, id int64) (domain.ArticleContent, error) {
	c.fetches++
	return domain.ArticleContent{ID: id}, nil
}

func TestMemberCacheReusesListings(t *testing.T) {
	t.Parallel()

	src := &countingSource{}
	cache := NewMemberCache(src, time.Hour)
	ctx := context.Background()

	first, err := cache.CategoryMembers(ctx, "A", 200)
	require.NoError(t, err)
	second, err := cache.CategoryMembers(ctx, "A", 200)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.members)

	_, err = cache.CategoryMembers(ctx, "B", 200)
	require.NoError(t, err)
	_, err = cache.CategoryMembers(ctx, "A", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, src.members)

	_, _ = cache.FetchContent(ctx, 1)
	_, _ = cache.FetchContent(ctx, 1)
	assert.Equal(t, 2, src.fetches)
}

func TestMemberCacheExpires(t *testing.T) {
	t.Parallel()

	src := &countingSource{}
	cache := NewMemberCache(src, 20*time.Millisecond)

	_, err := cache.CategoryMembers(context.Background(), "A", 1)
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = cache.CategoryMembers(context.Background(), "A", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, src.members)
}

func TestMemberCacheDoesNotStoreErrors(t *testing.T) {
	t.Parallel()

	src := &countingSource{err: errors.New("503")}
	cache := NewMemberCache(src, time.Hour)

	_, err := cache.CategoryMembers(context.Background(), "A", 1)
	require.Error(t, err)
	src.err = nil
	refs, err := cache.CategoryMembers(context.Background(), "A", 1)
	require.NoError(t, err)
	assert.Len(t, refs, 1)
	assert.Equal(t, 2, src.members)
}
