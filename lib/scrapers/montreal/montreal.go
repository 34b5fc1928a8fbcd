// Package montreal scrapes the Conseil municipal de Montréal roster
// from the paginated montreal.ca listing. Profiles exist under both a
// French and an English path; discovery canonicalizes to the English
// one, and extraction reads both language versions of each profile.
package montreal

import (
	"context"
	"fmt"
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

var tracer = otel.Tracer("civiroster.lib.scrapers.montreal")

const organization = "Conseil municipal de Montréal"

// listing pages past this index have never existed; the guard only
// protects against a pager that keeps echoing old links
const maxListingPages = 12

const (
	englishPrefix = "/en/elected-officials/"
	frenchPrefix  = "/elus/"
)

type Source struct {
	Client  *fetch.Client
	BaseURL string
}

func New(client *fetch.Client) *Source {
	return &Source{
		Client:  client,
		BaseURL: "https://montreal.ca",
	}
}

func (s *Source) Name() string         { return "montreal" }
func (s *Source) Organization() string { return organization }

// canonicalLink maps a profile href to its English representative, so
// the French and English variants of one official deduplicate to a
// single entry.
func canonicalLink(href string) (string, bool) {
	if slug := strings.TrimPrefix(href, englishPrefix); slug != href && slug != "" {
		return href, true
	}
	if slug := strings.TrimPrefix(href, frenchPrefix); slug != href && slug != "" {
		return englishPrefix + slug, true
	}
	return "", false
}

func (s *Source) listingURL(page int) string {
	if page == 0 {
		return s.BaseURL + "/en/elected-officials"
	}
	return fmt.Sprintf("%s/en/elected-officials?page=%d", s.BaseURL, page)
}

func (s *Source) Discover(ctx context.Context) ([]roster.Stub, error) {
	ctx, span := tracer.Start(ctx, "Discover")
	defer span.End()

	paths, err := roster.Paginate(ctx, maxListingPages, canonicalLink,
		func(ctx context.Context, page int) ([]string, error) {
			doc, err := s.Client.Get(ctx, s.listingURL(page))
			if err != nil {
				return nil, err
			}
			parsed, err := doc.HTML()
			if err != nil {
				return nil, err
			}

			anchors := htmlutil.GetAnchors(ctx, parsed.Find("a[href]"))
			hrefs := make([]string, 0, len(anchors))
			for _, anchor := range anchors {
				hrefs = append(hrefs, anchor.Href)
			}
			return hrefs, nil
		})

	stubs := make([]roster.Stub, 0, len(paths))
	for _, path := range paths {
		profile := s.BaseURL + path
		stubs = append(stubs, roster.Stub{
			// the profile page carries the display name; discovery
			// only knows the URL slug
			Name:      nameFromSlug(path),
			DetailURL: profile,
			Seed: roster.Record{
				Organization: organization,
				SourceURL:    profile,
			},
		})
	}

	span.SetAttributes(attribute.Int("officials", len(stubs)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return stubs, fmt.Errorf("discover montreal officials: %w", err)
	}
	return stubs, nil
}

// nameFromSlug recovers a provisional display name from a profile path
// like /en/elected-officials/valerie-plante-12345. The extracted page
// h1 replaces it whenever the detail fetch succeeds.
func nameFromSlug(path string) string {
	slug := strings.TrimPrefix(path, englishPrefix)
	slug = strings.TrimSuffix(slug, "/")
	parts := strings.Split(slug, "-")
	var words []string
	for _, part := range parts {
		if part == "" || strings.IndexFunc(part, isDigit) >= 0 {
			continue
		}
		words = append(words, strings.ToUpper(part[:1])+part[1:])
	}
	return strings.Join(words, " ")
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func frenchURL(englishURL string) string {
	return strings.Replace(englishURL, englishPrefix, frenchPrefix, 1)
}

func (s *Source) FetchDetail(ctx context.Context, stub roster.Stub) (roster.Detail, error) {
	en, err := s.Client.Get(ctx, stub.DetailURL)
	if err != nil {
		return roster.Detail{}, err
	}
	fr, err := s.Client.Get(ctx, frenchURL(stub.DetailURL))
	if err != nil {
		return roster.Detail{}, err
	}
	return roster.Detail{Pages: map[string]*fetch.Document{"en": en, "fr": fr}}, nil
}

func (s *Source) Extract(ctx context.Context, stub roster.Stub, detail roster.Detail) (roster.Record, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()

	rec := stub.Seed

	en := detail.Page("en")
	if en == nil {
		return rec, fmt.Errorf("missing profile page for %q", stub.DetailURL)
	}
	doc, err := en.HTML()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return rec, fmt.Errorf("parse profile %q: %w", stub.DetailURL, err)
	}

	if name := strings.TrimSpace(doc.Find("h1.mb-2").First().Text()); name != "" {
		rec.Name = name
	} else {
		rec.Name = stub.Name
	}
	rec.PrimaryRoleEN = primaryRole(doc)

	borough := ""
	doc.Find("div.list-item.list-item-description").Each(func(_ int, item *goquery.Selection) {
		label := strings.TrimSpace(item.Find("div.list-item-label").First().Text())
		content := strings.TrimSpace(item.Find("div.list-item-content").Last().Text())
		switch label {
		case "Party":
			rec.Party = content
		case "Borough":
			borough = content
		case "District":
			rec.District = content
		}
	})
	rec.District = roster.FallbackDistrict(rec.District, borough)

	if src, ok := doc.Find("img.img-fluid.rounded-circle").First().Attr("src"); ok {
		rec.PhotoURL = src
	}

	rec.Email, _ = extract.First(
		extract.Step{Name: "mailto", Run: func() string {
			return extract.Mailto(doc.Selection)
		}},
		extract.Step{Name: "inferred", Run: func() string {
			if local := extract.InferFirstDotLast(rec.Name); local != "" {
				return local + "@montreal.ca"
			}
			return ""
		}},
	)

	s.extractContactSidebar(doc, &rec)

	if fr := detail.Page("fr"); fr != nil {
		frDoc, err := fr.HTML()
		if err == nil {
			rec.PrimaryRoleFR = primaryRole(frDoc)
		}
	}

	span.SetAttributes(attribute.String("official", rec.Name))
	return rec, nil
}

func primaryRole(doc *goquery.Document) string {
	return strings.TrimSpace(
		doc.Find("div.font-size-lg.text-dark.mb-4").First().Find("div").First().Text())
}

// extractContactSidebar reads phone and address from the Contact
// sidebar block, falling back to the first sidebar block on older page
// layouts without a titled Contact section.
func (s *Source) extractContactSidebar(doc *goquery.Document, rec *roster.Record) {
	blocks := doc.Find("section.sb-block")
	contact := blocks.FilterFunction(func(_ int, section *goquery.Selection) bool {
		return strings.Contains(section.Find(".sidebar-title").First().Text(), "Contact")
	}).First()
	if contact.Length() == 0 {
		contact = blocks.First()
	}
	if contact.Length() == 0 {
		return
	}

	contact.Find("div.list-item-icon").Each(func(_ int, item *goquery.Selection) {
		if item.Find("span.icon-phone").Length() > 0 {
			rec.Phone = strings.TrimSpace(
				item.Find("div.list-item-icon-content div.list-item-icon-label").First().Text())
		}
		if item.Find("span.icon-location").Length() > 0 {
			addr := item.Find("div.list-item-icon-content div").First()
			rec.Address = strings.Join(strings.Fields(addr.Text()), " ")
		}
	})
}
