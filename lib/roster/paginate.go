package roster

import (
	"context"
	"fmt"
	"log/slog"
)

// PageFetch returns the candidate detail links found on one
// zero-indexed listing page.
type PageFetch func(ctx context.Context, page int) ([]string, error)

// Paginate walks listing pages until the first page that contributes
// zero new links, deduplicating by the canonicalized URL rather than
// display text (bilingual URL variants collapse to one representative
// URL). maxPages is a hard guard against runaway loops. A failed page
// aborts pagination and keeps the links collected so far.
func Paginate(
	ctx context.Context,
	maxPages int,
	canonicalize func(href string) (string, bool),
	fetch PageFetch,
) ([]string, error) {
	seen := map[string]bool{}
	var ordered []string

	for page := 0; page < maxPages; page++ {
		links, err := fetch(ctx, page)
		if err != nil {
			return ordered, fmt.Errorf("listing page %d: %w", page, err)
		}

		newLinks := 0
		for _, href := range links {
			canon, ok := canonicalize(href)
			if !ok || seen[canon] {
				continue
			}
			seen[canon] = true
			ordered = append(ordered, canon)
			newLinks++
		}

		slog.DebugContext(
			ctx, "listing page",
			"page", page,
			"links", len(links),
			"new", newLinks,
			"total", len(ordered),
		)
		if newLinks == 0 {
			break
		}
	}

	return ordered, nil
}
