package montreal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"civiroster/lib/fetch"
	"civiroster/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const profileENFixture = `<html><body>
<h1 class="mb-2">Valérie Plante</h1>
<div class="font-size-lg text-dark mb-4"><div>Mayor of Montréal</div></div>
<div class="list-item list-item-description">
	<div class="list-item-label">Party</div>
	<div class="list-item-content">Projet Montréal</div>
</div>
<div class="list-item list-item-description">
	<div class="list-item-label">Borough</div>
	<div class="list-item-content">Ville-Marie</div>
</div>
<img class="img-fluid rounded-circle" src="https://montreal.ca/photos/plante.jpg">
<section class="sb-block">
	<h2 class="sidebar-title">Contact</h2>
	<div class="list-item-icon">
		<span class="icon-phone"></span>
		<div class="list-item-icon-content">
			<div class="list-item-icon-label">514 872-0311</div>
		</div>
	</div>
	<div class="list-item-icon">
		<span class="icon-location"></span>
		<div class="list-item-icon-content">
			<div>275 Notre-Dame St E
				Montréal, QC H2Y 1C6</div>
		</div>
	</div>
</section>
</body></html>`

const profileFRFixture = `<html><body>
<h1 class="mb-2">Valérie Plante</h1>
<div class="font-size-lg text-dark mb-4"><div>Mairesse de Montréal</div></div>
</body></html>`

func listingFixture(hrefs ...string) string {
	out := "<html><body>"
	for _, href := range hrefs {
		out += fmt.Sprintf(`<a href="%s">profile</a>`, href)
	}
	return out + `<a href="/en/some-other-page">other</a></body></html>`
}

func testSource(t *testing.T) *Source {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/montreal")
	t.Cleanup(cleanup)

	mux := http.NewServeMux()
	mux.HandleFunc("/en/elected-officials", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "":
			// page 0 exposes both language variants of the same official
			w.Write([]byte(listingFixture(
				"/en/elected-officials/valerie-plante-1001",
				"/elus/valerie-plante-1001",
				"/en/elected-officials/alan-desousa-1002",
			)))
		case "1":
			// page 1 repeats page 0: zero new links, discovery stops
			w.Write([]byte(listingFixture(
				"/en/elected-officials/valerie-plante-1001",
			)))
		default:
			t.Errorf("unexpected listing page %q", r.URL.Query().Get("page"))
			w.Write([]byte(listingFixture()))
		}
	})
	mux.HandleFunc("/en/elected-officials/valerie-plante-1001", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(profileENFixture))
	})
	mux.HandleFunc("/elus/valerie-plante-1001", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(profileFRFixture))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := fetch.NewClient(fetch.Options{
		Politeness: time.Millisecond,
		Timeout:    time.Second * 5,
	})
	require.NoError(t, err)

	src := New(client)
	src.BaseURL = server.URL
	return src
}

func TestDiscover(t *testing.T) {
	src := testSource(t)

	stubs, err := src.Discover(context.Background())
	require.NoError(t, err)
	// the french variant deduplicates against the english one
	require.Len(t, stubs, 2)
	require.Equal(t, src.BaseURL+"/en/elected-officials/valerie-plante-1001", stubs[0].DetailURL)
	require.Equal(t, src.BaseURL+"/en/elected-officials/alan-desousa-1002", stubs[1].DetailURL)
	require.Equal(t, "Valerie Plante", stubs[0].Name)
}

func TestExtract(t *testing.T) {
	src := testSource(t)
	ctx := context.Background()

	stubs, err := src.Discover(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, stubs)

	detail, err := src.FetchDetail(ctx, stubs[0])
	require.NoError(t, err)

	rec, err := src.Extract(ctx, stubs[0], detail)
	require.NoError(t, err)

	require.Equal(t, "Valérie Plante", rec.Name)
	require.Equal(t, "Mayor of Montréal", rec.PrimaryRoleEN)
	require.Equal(t, "Mairesse de Montréal", rec.PrimaryRoleFR)
	require.Equal(t, "Projet Montréal", rec.Party)
	// no District list item: the borough fills in
	require.Equal(t, "Ville-Marie", rec.District)
	require.Equal(t, "https://montreal.ca/photos/plante.jpg", rec.PhotoURL)
	require.Equal(t, "514 872-0311", rec.Phone)
	require.Equal(t, "275 Notre-Dame St E Montréal, QC H2Y 1C6", rec.Address)
	// no mailto anywhere on the page: the first.last convention kicks in
	require.Equal(t, "valerie.plante@montreal.ca", rec.Email)
}
