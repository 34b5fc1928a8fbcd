package roster

import (
	"context"

	"civiroster/lib/fetch"
)

// Stub is the minimal identity discovery yields for one official,
// before enrichment. Seed carries whatever canonical fields the
// listing itself already provided (party, district, a listing-level
// email, ...); those survive even when the detail fetch fails.
type Stub struct {
	Name      string
	PersonID  string
	DetailURL string
	Seed      Record
}

// Detail is the composite document for one entity. Sources that split
// contact data across sub-pages (a "coordonnees" page distinct from
// the profile, a /sidebar/ contact page) return every required page
// keyed by its role.
type Detail struct {
	Pages map[string]*fetch.Document
}

func (d Detail) Page(role string) *fetch.Document {
	return d.Pages[role]
}

// Source is the adapter contract implemented once per government body.
// New sources are added by implementing this interface, never by
// branching inside shared code.
type Source interface {
	// short stable identifier, e.g. "laval"
	Name() string
	// governing body name, e.g. "House of Commons (Federal)"
	Organization() string
	// enumerates all currently-serving officials. A partial slice plus
	// a non-nil error means discovery aborted early and kept what it
	// had.
	Discover(ctx context.Context) ([]Stub, error)
	// retrieves every page needed to extract one official
	FetchDetail(ctx context.Context, stub Stub) (Detail, error)
	// applies the source's fallback chains to produce one record
	Extract(ctx context.Context, stub Stub, detail Detail) (Record, error)
}
