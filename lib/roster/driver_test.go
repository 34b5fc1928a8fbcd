package roster

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	stubs       []Stub
	discoverErr error
	failDetail  map[string]bool
	extract     func(stub Stub) Record
}

func (s *fakeSource) Name() string         { return "fake" }
func (s *fakeSource) Organization() string { return "Fake Council" }

func (s *fakeSource) Discover(ctx context.Context) ([]Stub, error) {
	return s.stubs, s.discoverErr
}

func (s *fakeSource) FetchDetail(ctx context.Context, stub Stub) (Detail, error) {
	if s.failDetail[stub.DetailURL] {
		return Detail{}, fmt.Errorf("connection refused")
	}
	return Detail{}, nil
}

func (s *fakeSource) Extract(ctx context.Context, stub Stub, detail Detail) (Record, error) {
	return s.extract(stub), nil
}

func TestDriverEmitsAllEntities(t *testing.T) {
	source := &fakeSource{
		stubs: []Stub{
			{Name: "Alice Martin", DetailURL: "https://example.org/alice"},
			{Name: "Bob Tremblay", DetailURL: "https://example.org/bob"},
		},
		extract: func(stub Stub) Record {
			return Record{
				Organization: "Fake Council",
				Name:         stub.Name,
				Email:        "found@example.org",
				SourceURL:    stub.DetailURL,
			}
		},
	}

	var progress []int
	driver := Driver{
		Source: source,
		OnProgress: func(i, n int, rec Record, err error) {
			progress = append(progress, i)
			require.Equal(t, 2, n)
		},
	}

	records, err := driver.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, []int{1, 2}, progress)
	require.Equal(t, "found@example.org", records[0].Email)
	require.NotNil(t, records[0].SecondaryRoles.Current)
}

func TestDriverIsolatesDetailFailure(t *testing.T) {
	source := &fakeSource{
		stubs: []Stub{
			{Name: "Alice Martin", DetailURL: "https://example.org/alice"},
			{
				Name:      "Bob Tremblay",
				DetailURL: "https://example.org/bob",
				Seed: Record{
					Name:     "Bob Tremblay",
					Party:    "Green Party",
					District: "Riverside",
				},
			},
		},
		failDetail: map[string]bool{"https://example.org/bob": true},
		extract: func(stub Stub) Record {
			return Record{Name: stub.Name, Email: "found@example.org", SourceURL: stub.DetailURL}
		},
	}

	records, err := Driver{Source: source}.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	// failed entity keeps its discovery seed with extraction fields empty
	bob := records[1]
	require.Equal(t, "Bob Tremblay", bob.Name)
	require.Equal(t, "Green Party", bob.Party)
	require.Equal(t, "Riverside", bob.District)
	require.Equal(t, "Fake Council", bob.Organization)
	require.Equal(t, "https://example.org/bob", bob.SourceURL)
	require.Equal(t, "", bob.Email)
	require.Equal(t, "", bob.Phone)
}

func TestDriverSurfacesDiscoveryFailure(t *testing.T) {
	source := &fakeSource{
		stubs:       []Stub{{Name: "Alice Martin", DetailURL: "https://example.org/alice"}},
		discoverErr: errors.New("listing unreachable"),
		extract: func(stub Stub) Record {
			return Record{Name: stub.Name, SourceURL: stub.DetailURL}
		},
	}

	records, err := Driver{Source: source}.Run(context.Background())
	require.Error(t, err)
	// partial result is kept
	require.Len(t, records, 1)
}

func TestDriverDropsNamelessStubs(t *testing.T) {
	source := &fakeSource{
		stubs: []Stub{
			{Name: "", DetailURL: "https://example.org/ghost"},
			{Name: "Alice Martin", DetailURL: "https://example.org/alice"},
			{Name: "Bob Tremblay", DetailURL: "https://example.org/bob"},
		},
		extract: func(stub Stub) Record {
			return Record{Name: stub.Name, SourceURL: stub.DetailURL}
		},
	}

	// dropped stubs do not count toward the progress total or leave
	// holes in the index sequence
	var indexes, totals []int
	driver := Driver{
		Source: source,
		OnProgress: func(i, n int, rec Record, err error) {
			indexes = append(indexes, i)
			totals = append(totals, n)
		},
	}

	records, err := driver.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Alice Martin", records[0].Name)
	require.Equal(t, []int{1, 2}, indexes)
	require.Equal(t, []int{2, 2}, totals)
}

func TestDriverReportsAmbiguousChiefExecutive(t *testing.T) {
	source := &fakeSource{
		stubs: []Stub{
			{Name: "Alice Martin", DetailURL: "https://example.org/alice"},
			{Name: "Bob Tremblay", DetailURL: "https://example.org/bob"},
		},
		extract: func(stub Stub) Record {
			return Record{
				Organization:  "Fake Council",
				Name:          stub.Name,
				PrimaryRoleEN: "Mayor of Faketown",
				SourceURL:     stub.DetailURL,
			}
		},
	}

	records, err := Driver{Source: source}.Run(context.Background())
	require.Error(t, err)

	var ambiguous *AmbiguousChiefExecError
	require.True(t, errors.As(err, &ambiguous))
	require.Len(t, ambiguous.Names, 2)
	// output still produced
	require.Len(t, records, 2)
}

func TestDriverIdempotent(t *testing.T) {
	source := &fakeSource{
		stubs: []Stub{
			{Name: "Tremblay, Alice", DetailURL: "https://example.org/alice"},
		},
		extract: func(stub Stub) Record {
			return Record{
				Organization: "Fake Council",
				Name:         stub.Name,
				SourceURL:    stub.DetailURL,
			}
		},
	}

	first, err := Driver{Source: source}.Run(context.Background())
	require.NoError(t, err)
	second, err := Driver{Source: source}.Run(context.Background())
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("two runs over identical input differ (-first +second):\n%s", diff)
	}
	require.Equal(t, "Alice Tremblay", first[0].Name)
}
