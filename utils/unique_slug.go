package utils

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// DefaultSlugMaxAttempts bounds the candidate loop when no limit is configured.
const DefaultSlugMaxAttempts = 1000

var (
	// ErrEmptySlug is returned when the source text has no letter or digit to build a slug from.
	ErrEmptySlug = errors.New("slug: text produces an empty slug")
	// ErrSlugSpaceExhausted is returned when every candidate up to the attempt limit is taken.
	ErrSlugSpaceExhausted = errors.New("slug: no free candidate within the attempt limit")
)

// SlugExistsFunc reports whether a record already uses the candidate slug.
// Implementations that back an update must ignore the record being edited.
type SlugExistsFunc func(ctx context.Context, candidate string) (bool, error)

// SlugResolver finds a collision-free slug by probing base, base-1, base-2, ...
type SlugResolver struct {
	// MaxAttempts is the number of candidates checked before giving up.
	// Zero or negative means DefaultSlugMaxAttempts.
	MaxAttempts int
}

func NewSlugResolver(maxAttempts int) *SlugResolver {
	return &SlugResolver{MaxAttempts: maxAttempts}
}

// Resolve returns the first candidate derived from text that exists reports as free.
// Errors from exists are returned as-is; there is no retry.
func (r *SlugResolver) Resolve(ctx context.Context, text string, exists SlugExistsFunc) (string, error) {
	base := GenerateSlug(text)
	if base == "" {
		return "", ErrEmptySlug
	}

	limit := DefaultSlugMaxAttempts
	if r != nil && r.MaxAttempts > 0 {
		limit = r.MaxAttempts
	}

	candidate := base
	for attempt := 0; attempt < limit; attempt++ {
		if attempt > 0 {
			candidate = base + "-" + strconv.Itoa(attempt)
		}

		if err := ctx.Err(); err != nil {
			return "", err
		}

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %q after %d attempts", ErrSlugSpaceExhausted, base, limit)
}
