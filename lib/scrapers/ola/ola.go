// Package ola scrapes the Legislative Assembly of Ontario roster from
// the current-members listing. The Premier designation only appears as
// a role list item on the profile page, never as the card title.
package ola

import (
	"context"
	"fmt"
	"net/url"
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

var tracer = otel.Tracer("civiroster.lib.scrapers.ola")

const organization = "Legislative Assembly of Ontario"

type Source struct {
	Client  *fetch.Client
	BaseURL string
}

func New(client *fetch.Client) *Source {
	return &Source{
		Client:  client,
		BaseURL: "https://www.ola.org",
	}
}

func (s *Source) Name() string         { return "ola" }
func (s *Source) Organization() string { return organization }

func (s *Source) resolve(href string) string {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func (s *Source) Discover(ctx context.Context) ([]roster.Stub, error) {
	ctx, span := tracer.Start(ctx, "Discover")
	defer span.End()

	page, err := s.Client.Get(ctx, s.BaseURL+"/en/members/current")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetch member listing: %w", err)
	}
	doc, err := page.HTML()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("parse member listing: %w", err)
	}

	var stubs []roster.Stub
	doc.Find("div.member-list-row").Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Find("a.mpp-card-link").First().Attr("href")
		if !ok {
			return
		}
		grid := card.Find("div.memberGridView").First()
		if grid.Length() == 0 {
			return
		}

		name := strings.TrimSpace(grid.Find("h3").First().Text())
		profile := s.resolve(href)

		photo, _ := grid.Find("img").First().Attr("src")
		if strings.HasPrefix(photo, "/") {
			photo = s.resolve(photo)
		}

		stubs = append(stubs, roster.Stub{
			Name:      name,
			DetailURL: profile,
			Seed: roster.Record{
				Organization:  organization,
				Party:         strings.TrimSpace(grid.Find("p.current-members-party").First().Text()),
				District:      strings.TrimSpace(grid.Find("p.current-members-riding").First().Text()),
				Name:          name,
				PrimaryRoleEN: "Member of Provincial Parliament",
				PhotoURL:      photo,
				SourceURL:     profile,
			},
		})
	})

	span.SetAttributes(attribute.Int("members", len(stubs)))
	return stubs, nil
}

func (s *Source) FetchDetail(ctx context.Context, stub roster.Stub) (roster.Detail, error) {
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
		return rec, fmt.Errorf("missing profile page for %q", stub.Name)
	}
	doc, err := page.HTML()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return rec, fmt.Errorf("parse profile for %q: %w", stub.Name, err)
	}

	// exact match only: "Parliamentary Assistant to the Premier" is an
	// ordinary member role. nested spans inside the item double the
	// text to "PremierPremier".
	doc.Find("li").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		text := strings.TrimSpace(item.Text())
		if text == "Premier" || text == "PremierPremier" {
			rec.PrimaryRoleEN = "Premier of Ontario"
			return false
		}
		return true
	})

	rec.Email = extract.Mailto(doc.Selection)

	if heading := htmlutil.FindHeading(doc, "h3", func(text string) bool {
		return text == "Constituency office"
	}); heading != nil {
		content := heading.NextAllFiltered("div.views-field-nothing").First().
			Find("span.field-content").First()
		if content.Length() > 0 {
			lines := htmlutil.SegmentedText(content)
			rec.Phone = extract.LabeledPhone(strings.Join(lines, "|"))
			rec.Address = extract.AssembleAddress(lines)
		}
	}

	span.SetAttributes(attribute.String("member", stub.Name))
	return rec, nil
}
