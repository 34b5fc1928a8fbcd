package laval

import (
	"context"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"civiroster/lib/fetch"
	"civiroster/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func obfuscate(key byte, email string) string {
	out := []byte{key}
	for i := 0; i < len(email); i++ {
		out = append(out, email[i]^key)
	}
	return hex.EncodeToString(out)
}

const listingFixture = `<html><body>
<div class="listing--municipal-councilor">
	<article class="municipal-councilor-item">
		<h3 class="municipal-councilor-item__title">Stéphane Boyer, Maire de Laval</h3>
		<img data-src="/photos/boyer.jpg" src="data:image/svg+xml;base64,PHN2Zz4=">
		<a class="municipal-councilor-item__link" href="BASE/membres/stephane-boyer/"></a>
	</article>
	<article class="municipal-councilor-item">
		<h3 class="municipal-councilor-item__title">Flavia Alexandra De Cotis, District 13 – Saint-Bruno</h3>
		<span class="municipal-councilor-item__phone">450 978-3939</span>
		<img src="data:image/svg+xml;base64,PHN2Zz4=">
		<a class="municipal-councilor-item__link" href="BASE/membres/flavia-de-cotis/"></a>
	</article>
	<article class="municipal-councilor-item">
		<h3 class="municipal-councilor-item__title">Aline Dib, District 02 – Saint-Martin</h3>
		<a class="municipal-councilor-item__email" href="mailto:a.dib@laval.ca">a.dib@laval.ca</a>
		<a class="municipal-councilor-item__link" href="BASE/membres/aline-dib/"></a>
	</article>
</div>
</body></html>`

const boyerProfileFixture = `<html><body>
<span data-cfemail="CFEMAIL">[email protected]</span>
<img class="wp-post-image" data-lazy-src="/photos/boyer-large.jpg">
<p><strong>Hôtel de ville</strong><br>
<a href="https://maps.google.com/?q=laval">3131, boulevard Saint-Martin Ouest</a><br>
Case postale 422<br>
Laval (Québec) H7V 3Z4</p>
</body></html>`

const plainProfileFixture = `<html><body><p>no contact info on this one</p></body></html>`

func testSource(t *testing.T) *Source {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/laval")
	t.Cleanup(cleanup)

	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/vie-democratique/hotel-de-ville-personnes-elues/membres-conseil-municipal/",
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(strings.ReplaceAll(listingFixture, "BASE", server.URL)))
		})
	mux.HandleFunc("/membres/stephane-boyer/", func(w http.ResponseWriter, r *http.Request) {
		page := strings.Replace(boyerProfileFixture, "CFEMAIL", obfuscate(0x42, "s.boyer@laval.ca"), 1)
		w.Write([]byte(page))
	})
	mux.HandleFunc("/membres/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(plainProfileFixture))
	})
	server = httptest.NewServer(mux)
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
	require.Len(t, stubs, 3)

	mayor := stubs[0].Seed
	require.Equal(t, "Stéphane Boyer", mayor.Name)
	require.Equal(t, "Mayor of Laval", mayor.PrimaryRoleEN)
	require.Equal(t, "Maire de Laval", mayor.PrimaryRoleFR)
	require.Equal(t, "Laval", mayor.District)
	// the svg placeholder is rejected in favor of the lazy-load attr
	require.Equal(t, "/photos/boyer.jpg", mayor.PhotoURL)

	councillor := stubs[1].Seed
	require.Equal(t, "Flavia Alexandra De Cotis", councillor.Name)
	require.Equal(t, "Councillor", councillor.PrimaryRoleEN)
	require.Equal(t, "Saint-Bruno", councillor.District)
	require.Equal(t, "450 978-3939", councillor.Phone)
	require.Equal(t, "", councillor.PhotoURL)

	require.Equal(t, "a.dib@laval.ca", stubs[2].Seed.Email)
}

func TestExtractDecodesObfuscatedEmail(t *testing.T) {
	src := testSource(t)
	ctx := context.Background()

	stubs, err := src.Discover(ctx)
	require.NoError(t, err)

	detail, err := src.FetchDetail(ctx, stubs[0])
	require.NoError(t, err)

	rec, err := src.Extract(ctx, stubs[0], detail)
	require.NoError(t, err)

	require.Equal(t, "s.boyer@laval.ca", rec.Email)
	require.Equal(t, "/photos/boyer-large.jpg", rec.PhotoURL)
	require.Equal(t,
		"3131, boulevard Saint-Martin Ouest, Case postale 422, Laval (Québec) H7V 3Z4",
		rec.Address)
}

func TestExtractInfersEmailFromName(t *testing.T) {
	src := testSource(t)
	ctx := context.Background()

	stubs, err := src.Discover(ctx)
	require.NoError(t, err)

	detail, err := src.FetchDetail(ctx, stubs[1])
	require.NoError(t, err)

	rec, err := src.Extract(ctx, stubs[1], detail)
	require.NoError(t, err)

	// no mailto, no obfuscated marker: the particle-aware inference
	// produces initials "fa" and surname "decotis"
	require.Equal(t, "fa.decotis@laval.ca", rec.Email)
	// no address paragraph: every councillor shares the city hall
	require.Equal(t, cityHallAddress, rec.Address)
}

func TestExtractKeepsListingEmail(t *testing.T) {
	src := testSource(t)
	ctx := context.Background()

	stubs, err := src.Discover(ctx)
	require.NoError(t, err)

	detail, err := src.FetchDetail(ctx, stubs[2])
	require.NoError(t, err)

	rec, err := src.Extract(ctx, stubs[2], detail)
	require.NoError(t, err)
	require.Equal(t, "a.dib@laval.ca", rec.Email)
}
