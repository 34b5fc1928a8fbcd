// Package assnat scrapes the Assemblée nationale du Québec member
// roster. The English listing table carries name, district, party and
// email; the per-member coordonnees page carries photo, secondary
// roles, website and the electoral-division office contact block.
package assnat

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

var tracer = otel.Tracer("civiroster.lib.scrapers.assnat")

const organization = "Assemblée nationale du Québec"

type Source struct {
	Client  *fetch.Client
	BaseURL string
}

func New(client *fetch.Client) *Source {
	return &Source{
		Client:  client,
		BaseURL: "https://www.assnat.qc.ca",
	}
}

func (s *Source) Name() string         { return "assnat" }
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

	page, err := s.Client.Get(ctx, s.BaseURL+"/en/deputes/index.html")
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
	doc.Find("table#ListeDeputes tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		nameLink := cells.Eq(0).Find("a[href]").First()
		href, ok := nameLink.Attr("href")
		if !ok {
			return
		}
		name := strings.TrimSpace(nameLink.Text())
		if name == "" {
			return
		}

		profile := s.resolve(href)
		sourceURL := strings.TrimSuffix(strings.TrimSuffix(profile, "index.html"), "/")

		stubs = append(stubs, roster.Stub{
			Name:      name,
			DetailURL: coordonneesURL(profile),
			Seed: roster.Record{
				Organization:  organization,
				Party:         strings.TrimSpace(cells.Eq(2).Text()),
				District:      strings.TrimSpace(cells.Eq(1).Text()),
				Name:          name,
				PrimaryRoleEN: "Member of National Assembly",
				PrimaryRoleFR: "Membre de l'Assemblée nationale",
				Email:         extract.Mailto(cells.Eq(3)),
				SourceURL:     sourceURL,
			},
		})
	})

	span.SetAttributes(attribute.Int("members", len(stubs)))
	return stubs, nil
}

func coordonneesURL(profile string) string {
	if strings.HasSuffix(profile, "index.html") {
		return strings.TrimSuffix(profile, "index.html") + "coordonnees.html"
	}
	return strings.TrimSuffix(profile, "/") + "/coordonnees.html"
}

func (s *Source) FetchDetail(ctx context.Context, stub roster.Stub) (roster.Detail, error) {
	doc, err := s.Client.Get(ctx, stub.DetailURL)
	if err != nil {
		return roster.Detail{}, err
	}
	return roster.Detail{Pages: map[string]*fetch.Document{"coordonnees": doc}}, nil
}

func (s *Source) Extract(ctx context.Context, stub roster.Stub, detail roster.Detail) (roster.Record, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()

	rec := stub.Seed

	page := detail.Page("coordonnees")
	if page == nil {
		return rec, fmt.Errorf("missing coordonnees page for %q", stub.Name)
	}
	doc, err := page.HTML()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return rec, fmt.Errorf("parse coordonnees for %q: %w", stub.Name, err)
	}

	if src, ok := doc.Find("img.photoDepute").First().Attr("src"); ok {
		rec.PhotoURL = s.resolve(src)
	}

	// role bullets sit in the first list after the name heading
	roleList := doc.Find("h1").First().NextAllFiltered("ul").First()
	if roleList.Length() == 0 {
		roleList = doc.Find("h1").First().Parent().Find("ul").First()
	}
	rec.SecondaryRoles.Current = extract.CurrentSecondaryRoles(
		htmlutil.SegmentedText(roleList), rec.Party)

	s.extractOfficeContact(doc, &rec)
	s.extractWebsite(doc, &rec)

	span.SetAttributes(attribute.String("member", stub.Name))
	return rec, nil
}

// extractOfficeContact reads the Electoral division office block. The
// coordonnees page also lists Department offices; only the
// electoral-division one is the public-facing office.
func (s *Source) extractOfficeContact(doc *goquery.Document, rec *roster.Record) {
	heading := htmlutil.FindHeading(doc, "h2,h3", func(text string) bool {
		return strings.HasPrefix(strings.ToLower(text), "electoral division")
	})
	if heading == nil {
		return
	}
	block := heading.Next()
	if block.Length() == 0 {
		return
	}

	lines := htmlutil.SegmentedText(block)
	rec.Phone = extract.LabeledPhone(strings.Join(lines, "|"))
	rec.Address = extract.AssembleAddress(lines)
}

func (s *Source) extractWebsite(doc *goquery.Document, rec *roster.Record) {
	doc.Find("strong,b").EachWithBreak(func(_ int, label *goquery.Selection) bool {
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(label.Text())), "website") {
			return true
		}
		a := label.Parent().Find("a[href]").First()
		if a.Length() == 0 {
			a = label.NextAllFiltered("a[href]").First()
		}
		if href, ok := a.Attr("href"); ok {
			rec.Website = strings.TrimSpace(href)
			return false
		}
		return true
	})
}
