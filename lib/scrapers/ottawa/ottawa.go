// Package ottawa scrapes Ottawa City Council from the single
// mayor-and-city-councillors listing. Cards carry nearly everything;
// only the structured Drupal address block requires the detail page.
package ottawa

import (
	"context"
	"fmt"
	"strings"

	"civiroster/lib/extract"
	"civiroster/lib/fetch"
	"civiroster/lib/roster"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("civiroster.lib.scrapers.ottawa")

const organization = "Ottawa City Council"

type Source struct {
	Client  *fetch.Client
	BaseURL string
}

func New(client *fetch.Client) *Source {
	return &Source{
		Client:  client,
		BaseURL: "https://ottawa.ca",
	}
}

func (s *Source) Name() string         { return "ottawa" }
func (s *Source) Organization() string { return organization }

func (s *Source) absolute(href string) string {
	if strings.HasPrefix(href, "/") {
		return s.BaseURL + href
	}
	return href
}

func (s *Source) Discover(ctx context.Context) ([]roster.Stub, error) {
	ctx, span := tracer.Start(ctx, "Discover")
	defer span.End()

	page, err := s.Client.Get(ctx, s.BaseURL+"/en/city-hall/mayor-and-city-councillors")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetch council listing: %w", err)
	}
	doc, err := page.HTML()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("parse council listing: %w", err)
	}

	var stubs []roster.Stub
	doc.Find("div.views-row").Each(func(_ int, card *goquery.Selection) {
		title := card.Find("h3.card-title").First()
		if title.Length() == 0 {
			return
		}

		seed := roster.Record{Organization: organization}

		link := title.Find("a").First()
		if link.Length() > 0 {
			seed.Name = strings.TrimSpace(link.Text())
			seed.SourceURL = s.absolute(link.AttrOr("href", ""))
		} else {
			seed.Name = strings.TrimSpace(title.Text())
		}

		subtitle := strings.TrimSpace(card.Find("h4.card-subtitle-title").First().Text())
		if strings.EqualFold(subtitle, "Mayor") {
			seed.PrimaryRoleEN = "Mayor of Ottawa"
			seed.District = "Ottawa"
		} else {
			seed.PrimaryRoleEN = "City Councillor"
			seed.District = strings.TrimSpace(card.Find("div.mb-2").First().Text())
		}

		seed.Phone = strings.TrimSpace(card.Find("a[href^='tel:']").First().Text())
		seed.Email = strings.TrimSpace(card.Find("a[href^='mailto:']").First().Text())

		if photo := extract.PhotoFromPicture(card.Find("picture").First()); photo != "" {
			seed.PhotoURL = s.absolute(photo)
		}

		stubs = append(stubs, roster.Stub{
			Name:      seed.Name,
			DetailURL: seed.SourceURL,
			Seed:      seed,
		})
	})

	span.SetAttributes(attribute.Int("members", len(stubs)))
	return stubs, nil
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
		return rec, nil
	}
	doc, err := page.HTML()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return rec, fmt.Errorf("parse profile for %q: %w", stub.Name, err)
	}

	rec.Address = structuredAddress(doc)

	span.SetAttributes(attribute.String("member", stub.Name))
	return rec, nil
}

// structuredAddress assembles the Drupal address field: street lines,
// then locality, province and postal code on one line.
func structuredAddress(doc *goquery.Document) string {
	field := doc.Find("div.field--name-field-address").First()
	if field.Length() == 0 {
		return ""
	}

	text := func(class string) string {
		return strings.TrimSpace(field.Find("span." + class).First().Text())
	}

	var parts []string
	for _, class := range []string{"address-line1", "address-line2"} {
		if v := text(class); v != "" {
			parts = append(parts, v)
		}
	}

	var cityLine []string
	for _, class := range []string{"locality", "administrative-area", "postal-code"} {
		if v := text(class); v != "" {
			cityLine = append(cityLine, v)
		}
	}
	if len(cityLine) > 0 {
		parts = append(parts, strings.Join(cityLine, " "))
	}

	return strings.Join(parts, ", ")
}
