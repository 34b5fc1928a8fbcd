package htmlutil

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func docFromString(t *testing.T, markup string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestSegmentedText(t *testing.T) {
	doc := docFromString(t, `<p>
		123 Main St<br>
		Suite 200<br/>
		Laval (Québec)  H7V 3Z4
	</p>`)

	segments := SegmentedText(doc.Find("p"))
	require.Equal(t, []string{
		"123 Main St",
		"Suite 200",
		"Laval (Québec) H7V 3Z4",
	}, segments)
}

func TestSegmentedTextNestedBlocks(t *testing.T) {
	doc := docFromString(t, `<ul>
		<li>Member for L'Assomption</li>
		<li>Coalition avenir Québec</li>
		<li>Premier</li>
	</ul>`)

	segments := SegmentedText(doc.Find("ul"))
	require.Equal(t, []string{
		"Member for L'Assomption",
		"Coalition avenir Québec",
		"Premier",
	}, segments)
}

func TestGetAnchors(t *testing.T) {
	doc := docFromString(t, `<div>
		<a href="/en/elected-officials/john-doe-123">John   Doe</a>
		<a href="/elus/jane-roe-456">Jane Roe</a>
	</div>`)

	anchors := GetAnchors(context.Background(), doc.Find("a"))
	require.Len(t, anchors, 2)
	require.Equal(t, "John Doe", anchors[0].Name)
	require.Equal(t, "/en/elected-officials/john-doe-123", anchors[0].Href)
}

func TestFindHeading(t *testing.T) {
	doc := docFromString(t, `<div>
		<h3>Department</h3>
		<h3>Electoral division</h3>
	</div>`)

	heading := FindHeading(doc, "h2,h3", func(text string) bool {
		return strings.HasPrefix(strings.ToLower(text), "electoral division")
	})
	require.NotNil(t, heading)
	require.Equal(t, "Electoral division", heading.Text())
}
