package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// takenSet returns an exists check backed by a fixed set, recording every candidate it is asked about.
func takenSet(taken ...string) (SlugExistsFunc, *[]string) {
	set := make(map[string]struct{}, len(taken))
	for _, s := range taken {
		set[s] = struct{}{}
	}
	var checked []string
	return func(_ context.Context, candidate string) (bool, error) {
		checked = append(checked, candidate)
		_, ok := set[candidate]
		return ok, nil
	}, &checked
}

func TestSlugResolverReturnsBaseWhenFree(t *testing.T) {
	exists, checked := takenSet()

	slug, err := NewSlugResolver(10).Resolve(context.Background(), "Hello World", exists)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", slug)
	assert.Equal(t, []string{"hello-world"}, *checked)
}

func TestSlugResolverAppendsFirstCounter(t *testing.T) {
	exists, checked := takenSet("hello-world")

	slug, err := NewSlugResolver(10).Resolve(context.Background(), "Hello World", exists)
	require.NoError(t, err)
	assert.Equal(t, "hello-world-1", slug)
	assert.Equal(t, []string{"hello-world", "hello-world-1"}, *checked)
}

func TestSlugResolverChecksEachCandidateOnce(t *testing.T) {
	exists, checked := takenSet("base", "base-1", "base-2")

	slug, err := NewSlugResolver(0).Resolve(context.Background(), "Base", exists)
	require.NoError(t, err)
	assert.Equal(t, "base-3", slug)
	assert.Equal(t, []string{"base", "base-1", "base-2", "base-3"}, *checked)
}

func TestSlugResolverEmptyText(t *testing.T) {
	exists, checked := takenSet()

	for _, text := range []string{"", "   ", "!!!"} {
		_, err := NewSlugResolver(10).Resolve(context.Background(), text, exists)
		assert.ErrorIs(t, err, ErrEmptySlug)
	}
	assert.Empty(t, *checked)
}

func TestSlugResolverPropagatesStorageErrors(t *testing.T) {
	storageErr := errors.New("connection refused")
	calls := 0
	exists := func(context.Context, string) (bool, error) {
		calls++
		return false, storageErr
	}

	_, err := NewSlugResolver(10).Resolve(context.Background(), "Post", exists)
	assert.Same(t, storageErr, err)
	assert.Equal(t, 1, calls)
}

func TestSlugResolverStopsAtAttemptLimit(t *testing.T) {
	calls := 0
	exists := func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	}

	_, err := NewSlugResolver(5).Resolve(context.Background(), "Crowded", exists)
	require.ErrorIs(t, err, ErrSlugSpaceExhausted)
	assert.Contains(t, err.Error(), `"crowded"`)
	assert.Equal(t, 5, calls)
}

func TestSlugResolverLimitIncludesBase(t *testing.T) {
	exists, _ := takenSet("base", "base-1", "base-2")

	slug, err := NewSlugResolver(4).Resolve(context.Background(), "base", exists)
	require.NoError(t, err)
	assert.Equal(t, "base-3", slug)

	_, err = NewSlugResolver(3).Resolve(context.Background(), "base", exists)
	assert.ErrorIs(t, err, ErrSlugSpaceExhausted)
}

func TestSlugResolverHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	exists := func(context.Context, string) (bool, error) {
		calls++
		cancel()
		return true, nil
	}

	_, err := NewSlugResolver(10).Resolve(ctx, "Cancelled", exists)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestNilSlugResolverUsesDefaultLimit(t *testing.T) {
	var r *SlugResolver
	exists, _ := takenSet()

	slug, err := r.Resolve(context.Background(), "Nil Safe", exists)
	require.NoError(t, err)
	assert.Equal(t, "nil-safe", slug)
}
