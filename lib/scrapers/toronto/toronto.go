// Package toronto scrapes Toronto City Council. Councillors come from
// the members-of-council table (with an href-pattern fallback when the
// table is missing); the mayor has two dedicated pages. Contact data
// lives on a /sidebar/ sub-page rather than the profile itself.
package toronto

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"civiroster/lib/extract"
	"civiroster/lib/fetch"
	"civiroster/lib/htmlutil"
	"civiroster/lib/roster"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("civiroster.lib.scrapers.toronto")

const organization = "Toronto City Council"

const (
	councilPath    = "/city-government/council/members-of-council/"
	mayorPath      = "/city-government/council/office-of-the-mayor/"
	mayorAboutPath = "/city-government/council/office-of-the-mayor/about-mayor/"
)

type Source struct {
	Client  *fetch.Client
	BaseURL string
}

func New(client *fetch.Client) *Source {
	return &Source{
		Client:  client,
		BaseURL: "https://www.toronto.ca",
	}
}

func (s *Source) Name() string         { return "toronto" }
func (s *Source) Organization() string { return organization }

var wardLinkPattern = regexp.MustCompile(`councillor-ward-(\d+)`)
var councillorPrefix = regexp.MustCompile(`^Councillor\s+`)

func (s *Source) Discover(ctx context.Context) ([]roster.Stub, error) {
	ctx, span := tracer.Start(ctx, "Discover")
	defer span.End()

	// the mayor is not in the councillor table; name and photo resolve
	// from the about page during extraction
	stubs := []roster.Stub{{
		Name:      "Mayor of Toronto",
		DetailURL: s.BaseURL + mayorPath,
		Seed: roster.Record{
			Organization:  organization,
			District:      "Toronto",
			PrimaryRoleEN: "Mayor of Toronto",
			SourceURL:     s.BaseURL + mayorPath,
		},
	}}

	page, err := s.Client.Get(ctx, s.BaseURL+councilPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return stubs, fmt.Errorf("fetch council listing: %w", err)
	}
	doc, err := page.HTML()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return stubs, fmt.Errorf("parse council listing: %w", err)
	}

	councillors := councillorsFromTable(doc)
	if len(councillors) == 0 {
		councillors = councillorsFromLinks(doc)
	}
	stubs = append(stubs, councillors...)

	span.SetAttributes(attribute.Int("members", len(stubs)))
	return stubs, nil
}

func councillorsFromTable(doc *goquery.Document) []roster.Stub {
	var stubs []roster.Stub
	seen := map[string]bool{}
	doc.Find("table#js_map--data tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		href, ok := cells.Eq(1).Find("a[href]").First().Attr("href")
		if !ok || seen[href] {
			return
		}
		seen[href] = true
		stubs = append(stubs, councillorStub(href, strings.TrimSpace(cells.Eq(0).Text())))
	})
	return stubs
}

// councillorsFromLinks is the fallback when the table is absent: every
// link whose href carries a ward number, ordered by ward.
func councillorsFromLinks(doc *goquery.Document) []roster.Stub {
	var stubs []roster.Stub
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !wardLinkPattern.MatchString(href) || seen[href] {
			return
		}
		seen[href] = true
		stubs = append(stubs, councillorStub(href, ""))
	})
	sort.Slice(stubs, func(i, j int) bool {
		return wardNumber(stubs[i].DetailURL) < wardNumber(stubs[j].DetailURL)
	})
	return stubs
}

func wardNumber(href string) int {
	m := wardLinkPattern.FindStringSubmatch(href)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func councillorStub(href, ward string) roster.Stub {
	return roster.Stub{
		// the profile h1 carries the real name; the ward is enough to
		// keep the stub identifiable until then
		Name:      ward,
		DetailURL: href,
		Seed: roster.Record{
			Organization:  organization,
			District:      ward,
			PrimaryRoleEN: "City Councillor",
			SourceURL:     href,
		},
	}
}

func sidebarURL(pageURL string) string {
	return strings.TrimSuffix(pageURL, "/") + "/sidebar/"
}

func (s *Source) isMayor(stub roster.Stub) bool {
	return stub.Seed.PrimaryRoleEN == "Mayor of Toronto"
}

func (s *Source) FetchDetail(ctx context.Context, stub roster.Stub) (roster.Detail, error) {
	pages := map[string]*fetch.Document{}

	if s.isMayor(stub) {
		sidebar, err := s.Client.Get(ctx, sidebarURL(stub.DetailURL))
		if err != nil {
			return roster.Detail{}, err
		}
		about, err := s.Client.Get(ctx, s.BaseURL+mayorAboutPath)
		if err != nil {
			return roster.Detail{}, err
		}
		pages["sidebar"] = sidebar
		pages["about"] = about
		return roster.Detail{Pages: pages}, nil
	}

	profile, err := s.Client.Get(ctx, stub.DetailURL)
	if err != nil {
		return roster.Detail{}, err
	}
	pages["profile"] = profile

	// contact data lives on a separate sidebar document; a missing
	// sidebar only costs the contact fields
	sidebar, err := s.Client.Get(ctx, sidebarURL(stub.DetailURL))
	if err == nil {
		pages["sidebar"] = sidebar
	}
	return roster.Detail{Pages: pages}, nil
}

func (s *Source) Extract(ctx context.Context, stub roster.Stub, detail roster.Detail) (roster.Record, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()

	if s.isMayor(stub) {
		rec, err := s.extractMayor(stub, detail)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return rec, err
	}

	rec := stub.Seed

	page := detail.Page("profile")
	if page == nil {
		return rec, fmt.Errorf("missing profile page for ward %q", stub.Seed.District)
	}
	doc, err := page.HTML()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return rec, fmt.Errorf("parse councillor profile: %w", err)
	}

	if name := strings.TrimSpace(doc.Find("h1#page-header--title").First().Text()); name != "" {
		rec.Name = councillorPrefix.ReplaceAllString(name, "")
	}

	content := doc.Find("div#page-content")
	if district := strings.TrimSpace(content.Find("h2").First().Text()); district != "" {
		rec.District = district
	}
	if src, ok := content.Find("img").First().Attr("src"); ok {
		rec.PhotoURL = src
	}

	if sidebar := detail.Page("sidebar"); sidebar != nil {
		sidebarDoc, err := sidebar.HTML()
		if err == nil {
			s.extractContact(sidebarDoc, &rec, "Constituency Office", 2)
		}
	}

	span.SetAttributes(attribute.String("member", rec.Name))
	return rec, nil
}

func (s *Source) extractMayor(stub roster.Stub, detail roster.Detail) (roster.Record, error) {
	rec := stub.Seed

	if sidebar := detail.Page("sidebar"); sidebar != nil {
		sidebarDoc, err := sidebar.HTML()
		if err == nil {
			s.extractContact(sidebarDoc, &rec, "Office of the Mayor", 3)
		}
	}

	about := detail.Page("about")
	if about == nil {
		return rec, fmt.Errorf("missing mayor about page")
	}
	doc, err := about.HTML()
	if err != nil {
		return rec, fmt.Errorf("parse mayor about page: %w", err)
	}

	if heading := htmlutil.FindHeading(doc, "h3", func(text string) bool {
		return strings.Contains(text, "Mayor of Toronto")
	}); heading != nil {
		name, _, _ := strings.Cut(strings.TrimSpace(heading.Text()), ",")
		rec.Name = strings.TrimSpace(name)
	}

	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if strings.Contains(img.AttrOr("alt", ""), "Mayor") {
			rec.PhotoURL = img.AttrOr("src", "")
			return false
		}
		return true
	})

	return rec, nil
}

// extractContact reads the preferred office block out of the sidebar's
// contact paragraphs. The constituency office is the public-facing one
// and wins over the City Hall block when both exist; the first address
// lines after the office label form the address, stopping at phone,
// fax, email or hours lines.
func (s *Source) extractContact(doc *goquery.Document, rec *roster.Record, preferred string, maxLines int) {
	paragraphs := doc.Find("p.contact-information")
	if paragraphs.Length() == 0 {
		return
	}

	block := paragraphs.FilterFunction(func(_ int, p *goquery.Selection) bool {
		return strings.Contains(p.Text(), preferred)
	}).First()
	if block.Length() == 0 {
		block = paragraphs.FilterFunction(func(_ int, p *goquery.Selection) bool {
			return strings.Contains(p.Text(), "City Hall")
		}).First()
	}
	if block.Length() == 0 {
		block = paragraphs.First()
	}

	lines := htmlutil.SegmentedText(block)
	if len(lines) == 0 {
		return
	}
	var addressLines []string
	for _, line := range lines[1:] { // lines[0] is the office label
		if extract.IsAddressStop(line) {
			break
		}
		addressLines = append(addressLines, line)
		if len(addressLines) == maxLines {
			break
		}
	}
	rec.Address = strings.Join(addressLines, ", ")

	if phone := strings.TrimSpace(block.Find("a.phonelink").First().Text()); phone != "" {
		rec.Phone = phone
	} else {
		rec.Phone = extract.LabeledPhone(strings.Join(lines, "|"))
	}

	// the email can sit in any contact paragraph, not just the chosen
	// office block
	rec.Email = extract.Mailto(paragraphs)
}
