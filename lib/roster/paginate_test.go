package roster

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func identity(href string) (string, bool) {
	if href == "" {
		return "", false
	}
	return href, true
}

func TestPaginateStopsOnFirstZeroNewPage(t *testing.T) {
	pages := [][]string{
		{"/a", "/b", "/c"},
		{"/c", "/d"},
		// same links as before: zero new, discovery must stop here
		{"/a", "/d"},
		{"/e"},
	}
	fetched := 0

	links, err := Paginate(context.Background(), 10, identity, func(ctx context.Context, page int) ([]string, error) {
		fetched++
		return pages[page], nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"/a", "/b", "/c", "/d"}, links)
	require.Equal(t, 3, fetched)
}

func TestPaginateDuplicateListing(t *testing.T) {
	// page 2 repeats page 1 exactly: final set equals page 1's unique count
	page := []string{"/a", "/b", "/a"}

	links, err := Paginate(context.Background(), 10, identity, func(ctx context.Context, _ int) ([]string, error) {
		return page, nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"/a", "/b"}, links)
}

func TestPaginateHardCap(t *testing.T) {
	fetched := 0
	links, err := Paginate(context.Background(), 3, identity, func(ctx context.Context, page int) ([]string, error) {
		fetched++
		// every page yields a fresh link, only the cap can stop this
		return []string{strings.Repeat("x", page+1)}, nil
	})
	require.NoError(t, err)
	require.Len(t, links, 3)
	require.Equal(t, 3, fetched)
}

func TestPaginateCanonicalDeduplication(t *testing.T) {
	canonicalize := func(href string) (string, bool) {
		if !strings.HasPrefix(href, "/en/") && !strings.HasPrefix(href, "/fr/") {
			return "", false
		}
		return "/en/" + strings.TrimPrefix(strings.TrimPrefix(href, "/fr/"), "/en/"), true
	}

	links, err := Paginate(context.Background(), 10, canonicalize, func(ctx context.Context, page int) ([]string, error) {
		if page == 0 {
			return []string{"/en/alice", "/fr/alice", "/fr/bob", "/nav"}, nil
		}
		return []string{"/en/alice"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"/en/alice", "/en/bob"}, links)
}

func TestPaginateKeepsPartialOnError(t *testing.T) {
	links, err := Paginate(context.Background(), 10, identity, func(ctx context.Context, page int) ([]string, error) {
		if page == 0 {
			return []string{"/a", "/b"}, nil
		}
		return nil, errors.New("listing unreachable")
	})
	require.Error(t, err)
	require.Equal(t, []string{"/a", "/b"}, links)
}
