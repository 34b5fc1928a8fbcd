// Package laval scrapes the Conseil municipal de Laval roster. The
// single listing page carries councillor cards (the first card is the
// mayor); profile pages sit behind Cloudflare, which obfuscates email
// addresses and lazy-loads photos.
package laval

import (
	"context"
	"fmt"
	"regexp"
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

var tracer = otel.Tracer("civiroster.lib.scrapers.laval")

const organization = "Conseil Municipal de Laval"

const emailDomain = "laval.ca"

// printed on every profile page that does not carry its own office
// address
const cityHallAddress = "3131, boulevard Saint-Martin Ouest, Case postale 422, " +
	"Succursale Saint-Martin, Laval (Québec) H7V 3Z4"

type Source struct {
	Client  *fetch.Client
	BaseURL string
}

func New(client *fetch.Client) *Source {
	return &Source{
		Client:  client,
		BaseURL: "https://www.laval.ca",
	}
}

func (s *Source) Name() string         { return "laval" }
func (s *Source) Organization() string { return organization }

// card titles read "Name, District 01 – Saint-François"
var districtPattern = regexp.MustCompile(`District\s+\d+\s+[–-]\s+(.+)`)

func (s *Source) Discover(ctx context.Context) ([]roster.Stub, error) {
	ctx, span := tracer.Start(ctx, "Discover")
	defer span.End()

	page, err := s.Client.Get(ctx,
		s.BaseURL+"/vie-democratique/hotel-de-ville-personnes-elues/membres-conseil-municipal/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetch councillor listing: %w", err)
	}
	doc, err := page.HTML()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("parse councillor listing: %w", err)
	}

	var stubs []roster.Stub
	doc.Find("div.listing--municipal-councilor article.municipal-councilor-item").
		Each(func(idx int, card *goquery.Selection) {
			title := strings.TrimSpace(card.Find("h3.municipal-councilor-item__title").First().Text())
			if title == "" {
				return
			}

			seed := roster.Record{Organization: organization}

			name, roleDistrict, hasComma := strings.Cut(title, ",")
			seed.Name = strings.TrimSpace(name)
			if idx == 0 {
				// the first card is always the mayor
				seed.District = "Laval"
				seed.PrimaryRoleEN = "Mayor of Laval"
				seed.PrimaryRoleFR = "Maire de Laval"
			} else {
				seed.PrimaryRoleEN = "Councillor"
				seed.PrimaryRoleFR = "Conseiller"
				if hasComma {
					roleDistrict = strings.TrimSpace(roleDistrict)
					if m := districtPattern.FindStringSubmatch(roleDistrict); m != nil {
						seed.District = strings.TrimSpace(m[1])
					} else {
						seed.District = roleDistrict
					}
				}
			}

			seed.Email = cardEmail(card)
			seed.Phone = strings.TrimSpace(
				card.Find("span.municipal-councilor-item__phone").First().Text())
			seed.PhotoURL = extract.PhotoFromImg(card.Find("img").First())

			profile, _ := card.Find("a.municipal-councilor-item__link").First().Attr("href")
			seed.SourceURL = profile

			stubs = append(stubs, roster.Stub{
				Name:      seed.Name,
				DetailURL: profile,
				Seed:      seed,
			})
		})

	span.SetAttributes(attribute.Int("councillors", len(stubs)))
	return stubs, nil
}

// cardEmail reads what the listing card exposes: a plain mailto when
// Cloudflare left it alone, or visible text containing "@".
func cardEmail(card *goquery.Selection) string {
	link := card.Find("a.municipal-councilor-item__email").First()
	if link.Length() == 0 {
		return ""
	}
	if email := extract.Mailto(card); email != "" {
		return email
	}
	if text := strings.TrimSpace(link.Text()); strings.Contains(text, "@") {
		return text
	}
	return ""
}

func (s *Source) FetchDetail(ctx context.Context, stub roster.Stub) (roster.Detail, error) {
	if stub.DetailURL == "" {
		return roster.Detail{}, nil
	}
	doc, err := s.Client.Get(ctx, stub.DetailURL)
	if err != nil {
		return roster.Detail{}, err
	}
	return roster.Detail{Pages: map[string]*fetch.Document{"profile": doc}}, nil
}

func (s *Source) Extract(ctx context.Context, stub roster.Stub, detail roster.Detail) (roster.Record, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()

	rec := stub.Seed

	page := detail.Page("profile")
	if page == nil {
		// cards without a profile link still get the inferred email
		rec.Email = s.email(rec, nil)
		return rec, nil
	}
	doc, err := page.HTML()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return rec, fmt.Errorf("parse profile for %q: %w", stub.Name, err)
	}

	rec.Email = s.email(rec, doc)

	if rec.PhotoURL == "" {
		img := doc.Find("img.attachment-medium-large").First()
		if img.Length() == 0 {
			img = doc.Find("img.wp-post-image").First()
		}
		rec.PhotoURL = extract.PhotoFromImg(img)
	}

	rec.Address = s.address(doc)

	span.SetAttributes(attribute.String("councillor", stub.Name))
	return rec, nil
}

// email applies the full fallback chain: listing value, profile
// mailto, Cloudflare decode, then name inference.
func (s *Source) email(rec roster.Record, doc *goquery.Document) string {
	email, _ := extract.First(
		extract.Step{Name: "listing", Run: func() string {
			return rec.Email
		}},
		extract.Step{Name: "mailto", Run: func() string {
			if doc == nil {
				return ""
			}
			return extract.Mailto(doc.Find("a.municipal-councilor-item__email"))
		}},
		extract.Step{Name: "cfemail", Run: func() string {
			if doc == nil {
				return ""
			}
			decoded, err := extract.DecodeObfuscated(extract.ObfuscatedMarker(doc.Selection))
			if err != nil {
				return ""
			}
			return decoded
		}},
		extract.Step{Name: "inferred", Run: func() string {
			if local := extract.InferLocalPart(rec.Name); local != "" {
				return local + "@" + emailDomain
			}
			return ""
		}},
	)
	return email
}

// address parses the "Hôtel de ville" paragraph, collecting the maps
// link text and the br-separated lines after it. Profiles without the
// paragraph all share the city hall address.
func (s *Source) address(doc *goquery.Document) string {
	var address string
	doc.Find("strong").EachWithBreak(func(_ int, label *goquery.Selection) bool {
		if !strings.Contains(label.Text(), "Hôtel de ville") {
			return true
		}
		paragraph := label.ParentsFiltered("p").First()
		if paragraph.Length() == 0 {
			return true
		}

		var parts []string
		mapsLink := paragraph.Find("a[href*='maps']").First()
		if mapsLink.Length() > 0 {
			parts = append(parts, strings.TrimSpace(mapsLink.Text()))
		}
		for _, line := range htmlutil.SegmentedText(paragraph) {
			if strings.Contains(line, "Hôtel de ville") || strings.HasPrefix(line, "http") {
				continue
			}
			if len(parts) > 0 && line == parts[0] {
				continue
			}
			parts = append(parts, line)
		}
		address = strings.Join(parts, ", ")
		return false
	})

	if address == "" {
		return cityHallAddress
	}
	return address
}
