// Package commons scrapes the House of Commons member roster. Discovery
// comes from the official XML member feed rather than rendered HTML;
// contact details come from each member's profile page.
package commons

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"civiroster/lib/extract"
	"civiroster/lib/fetch"
	"civiroster/lib/htmlutil"
	"civiroster/lib/roster"
	"civiroster/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("civiroster.lib.scrapers.commons")

const organization = "House of Commons (Federal)"

type Source struct {
	Client  *fetch.Client
	BaseURL string
}

func New(client *fetch.Client) *Source {
	return &Source{
		Client:  client,
		BaseURL: "https://www.ourcommons.ca",
	}
}

func (s *Source) Name() string         { return "commons" }
func (s *Source) Organization() string { return organization }

type memberFeed struct {
	Members []feedMember `xml:"MemberOfParliament"`
}

type feedMember struct {
	PersonID     string    `xml:"PersonId"`
	FirstName    string    `xml:"PersonOfficialFirstName"`
	LastName     string    `xml:"PersonOfficialLastName"`
	Constituency string    `xml:"ConstituencyName"`
	Caucus       string    `xml:"CaucusShortName"`
	ToDate       *nilValue `xml:"ToDateTime"`
}

// nilValue models an element that marks "no value" with xsi:nil rather
// than by being absent.
type nilValue struct {
	Nil   bool   `xml:"http://www.w3.org/2001/XMLSchema-instance nil,attr"`
	Value string `xml:",chardata"`
}

// active reports whether the member currently holds the seat: the feed
// closes a term by filling ToDateTime.
func (m feedMember) active() bool {
	return m.ToDate == nil || m.ToDate.Nil
}

func (s *Source) Discover(ctx context.Context) ([]roster.Stub, error) {
	ctx, span := tracer.Start(ctx, "Discover")
	defer span.End()

	doc, err := s.Client.Get(ctx, s.BaseURL+"/Members/en/search/XML")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetch member feed: %w", err)
	}

	var feed memberFeed
	err = doc.XML(&feed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("decode member feed: %w", err)
	}

	var stubs []roster.Stub
	for _, m := range feed.Members {
		if m.PersonID == "" || m.FirstName == "" || m.LastName == "" {
			continue
		}
		if !m.active() {
			continue
		}

		name := m.FirstName + " " + m.LastName
		profile := fmt.Sprintf("%s/Members/en/%s(%s)", s.BaseURL, textutil.Slugify(name), m.PersonID)
		stubs = append(stubs, roster.Stub{
			Name:      name,
			PersonID:  m.PersonID,
			DetailURL: profile,
			Seed: roster.Record{
				Organization:  organization,
				Party:         m.Caucus,
				District:      m.Constituency,
				Name:          name,
				PrimaryRoleEN: "Member of Parliament",
				PrimaryRoleFR: "Député",
				SourceURL:     profile,
				PersonID:      m.PersonID,
			},
		})
	}

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

var photoPattern = regexp.MustCompile(`/Content/Parliamentarians/Images/OfficialMPPhotos/\d+/[^"']+\.jpg`)
var mainOfficePrefix = regexp.MustCompile(`(?i)^Main office\s*-\s*`)

func (s *Source) Extract(ctx context.Context, stub roster.Stub, detail roster.Detail) (roster.Record, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()

	rec := stub.Seed

	page := detail.Page("profile")
	if page == nil {
		return rec, fmt.Errorf("missing profile page for %q", stub.Name)
	}

	// official photos move between markup variants more often than
	// their path scheme changes, so match the path over the raw bytes
	if m := photoPattern.FindString(string(page.Body)); m != "" {
		rec.PhotoURL = s.BaseURL + m
	}

	doc, err := page.HTML()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return rec, fmt.Errorf("parse profile for %q: %w", stub.Name, err)
	}

	contact := doc.Find("div#contact")
	if contact.Length() == 0 {
		return rec, nil
	}

	if sec := sectionAfterHeading(contact, "Email"); sec != nil {
		rec.Email = extract.Mailto(sec)
	}
	if sec := sectionAfterHeading(contact, "Website"); sec != nil {
		if href, ok := sec.Find("a[href]").First().Attr("href"); ok {
			rec.Website = strings.TrimSpace(href)
		} else {
			rec.Website = strings.TrimSpace(sec.Text())
		}
	}

	if heading := findHeading(contact, "Constituency Office"); heading != nil {
		office := heading.NextAllFiltered("div.ce-mip-contact-constituency-office-container").
			First().Find("div.ce-mip-contact-constituency-office").First()
		if office.Length() > 0 {
			rec.Phone = extract.LabeledPhone(
				strings.Join(htmlutil.SegmentedText(office), "|"))

			lines := htmlutil.SegmentedText(office.Find("p").First())
			if len(lines) > 0 {
				lines[0] = mainOfficePrefix.ReplaceAllString(lines[0], "")
			}
			rec.Address = extract.AssembleAddress(lines)
		}
	}

	span.SetAttributes(attribute.String("member", stub.Name))
	return rec, nil
}

func findHeading(sel *goquery.Selection, title string) *goquery.Selection {
	var found *goquery.Selection
	sel.Find("h4").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.TrimSpace(h.Text()) == title {
			found = h
			return false
		}
		return true
	})
	return found
}

// sectionAfterHeading returns the paragraph following the named h4, the
// layout every contact sub-section on the profile page uses.
func sectionAfterHeading(sel *goquery.Selection, title string) *goquery.Selection {
	heading := findHeading(sel, title)
	if heading == nil {
		return nil
	}
	p := heading.NextAllFiltered("p").First()
	if p.Length() == 0 {
		p = heading.Parent().Find("p").First()
	}
	if p.Length() == 0 {
		return nil
	}
	return p
}
