package htmlutil

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("civiroster.lib.htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

type Anchor struct {
	Name string
	Href string
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

func GetAnchors(ctx context.Context, sel *goquery.Selection) []Anchor {
	ctx, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}

		link, err := url.Parse(href)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing url")
			continue
		}

		name := GetText(n)
		name = removeNonPrintable(name)
		name = strings.Trim(name, " \t\n")
		name = innerWhitespace.ReplaceAllString(name, " ")

		linkStr := link.String()
		anchors = append(anchors, Anchor{
			Name: name,
			Href: linkStr,
		})
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", name),
			attribute.String("url", linkStr),
		))
	}

	return anchors
}

// SegmentedText walks the selection and returns the trimmed text of
// each segment, splitting on block-ish boundaries (<br>, <p>, <li>,
// <div>). Contact blocks on government pages interleave address lines,
// phone labels and emails within a single element; downstream parsing
// wants them as separate lines.
func SegmentedText(sel *goquery.Selection) []string {
	var segments []string
	var buffer bytes.Buffer

	flush := func() {
		text := strings.TrimSpace(innerWhitespace.ReplaceAllString(buffer.String(), " "))
		buffer.Reset()
		if text != "" {
			segments = append(segments, text)
		}
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.TextNode {
			buffer.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "br":
				flush()
				return
			case "p", "li", "div", "h1", "h2", "h3", "h4", "tr":
				flush()
				defer flush()
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}

	for _, n := range sel.Nodes {
		walk(n)
	}
	flush()

	return segments
}

// FindHeading returns the first heading among the given tag names whose
// trimmed text satisfies the predicate, or nil.
func FindHeading(doc *goquery.Document, tags string, match func(text string) bool) *goquery.Selection {
	var found *goquery.Selection
	doc.Find(tags).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if match(strings.TrimSpace(s.Text())) {
			found = s
			return false
		}
		return true
	})
	return found
}
