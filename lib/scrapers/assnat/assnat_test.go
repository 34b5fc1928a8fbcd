package assnat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"civiroster/lib/fetch"
	"civiroster/lib/roster"
	"civiroster/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const listingFixture = `<html><body>
<table id="ListeDeputes">
	<tbody>
		<tr>
			<td><a href="/en/deputes/legault-francois-4131/index.html">Legault, François</a></td>
			<td>L'Assomption</td>
			<td>Coalition avenir Québec</td>
			<td><a href="mailto:francois.legault.lass@assnat.qc.ca">Email</a></td>
		</tr>
		<tr>
			<td>no link here</td>
			<td>Nowhere</td>
			<td>None</td>
			<td></td>
		</tr>
	</tbody>
</table>
</body></html>`

const coordonneesFixture = `<html><body>
<h1>François Legault</h1>
<ul>
	<li>Member for L'Assomption</li>
	<li>Coalition avenir Québec</li>
	<li>Premier</li>
	<li>Responsible for the Abitibi-Témiscamingue Region</li>
</ul>
<img class="photoDepute" src="/media/deputes/legault.jpg">
<h2>Electoral division</h2>
<address>
	831, boulevard de l'Ange-Gardien Nord<br>
	Bureau 208<br>
	L'Assomption (Quebec) J5W 1P5<br>
	Telephone: 450-589-0226<br>
	Fax: 450-589-2775
</address>
<p><strong>Website:</strong> <a href="https://www.quebec.ca/premier-ministre">Premier's site</a></p>
</body></html>`

func testSource(t *testing.T) *Source {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/assnat")
	t.Cleanup(cleanup)

	mux := http.NewServeMux()
	mux.HandleFunc("/en/deputes/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingFixture))
	})
	mux.HandleFunc("/en/deputes/legault-francois-4131/coordonnees.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(coordonneesFixture))
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
	require.Len(t, stubs, 1)

	stub := stubs[0]
	require.Equal(t, "Legault, François", stub.Name)
	require.Equal(t, src.BaseURL+"/en/deputes/legault-francois-4131/coordonnees.html", stub.DetailURL)
	require.Equal(t, src.BaseURL+"/en/deputes/legault-francois-4131", stub.Seed.SourceURL)
	require.Equal(t, "Coalition avenir Québec", stub.Seed.Party)
	require.Equal(t, "L'Assomption", stub.Seed.District)
	require.Equal(t, "francois.legault.lass@assnat.qc.ca", stub.Seed.Email)
}

func TestExtract(t *testing.T) {
	src := testSource(t)
	ctx := context.Background()

	stubs, err := src.Discover(ctx)
	require.NoError(t, err)
	require.Len(t, stubs, 1)

	detail, err := src.FetchDetail(ctx, stubs[0])
	require.NoError(t, err)

	rec, err := src.Extract(ctx, stubs[0], detail)
	require.NoError(t, err)

	// the membership statement and the party line are not roles
	require.Equal(t,
		[]string{"Premier", "Responsible for the Abitibi-Témiscamingue Region"},
		rec.SecondaryRoles.Current)
	require.Equal(t, src.BaseURL+"/media/deputes/legault.jpg", rec.PhotoURL)
	require.Equal(t, "450-589-0226", rec.Phone)
	require.Equal(t,
		"831, boulevard de l'Ange-Gardien Nord, Bureau 208, L'Assomption (Quebec) J5W 1P5",
		rec.Address)
	require.Equal(t, "https://www.quebec.ca/premier-ministre", rec.Website)
}

func TestNormalizedName(t *testing.T) {
	rec := roster.Normalize(roster.Record{Name: "Legault, François"})
	require.Equal(t, "François Legault", rec.Name)
}
