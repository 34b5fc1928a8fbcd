package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const svgPlaceholderPrefix = "data:image/svg"

// PhotoFromPicture prefers the highest-resolution declared source in a
// responsive image's srcset over the rendered <img> fallback.
func PhotoFromPicture(picture *goquery.Selection) string {
	if srcset, ok := picture.Find("source").First().Attr("srcset"); ok {
		candidate, _, _ := strings.Cut(srcset, ",")
		fields := strings.Fields(candidate)
		if len(fields) > 0 && !strings.HasPrefix(fields[0], svgPlaceholderPrefix) {
			return fields[0]
		}
	}
	return PhotoFromImg(picture.Find("img").First())
}

// PhotoFromImg picks the first declared source of a possibly
// lazy-loaded <img>, checking the lazy-load attributes before src. A
// placeholder data-URI yields "".
func PhotoFromImg(img *goquery.Selection) string {
	candidate := ""
	for _, attr := range []string{"data-src", "data-lazy-src"} {
		if v, ok := img.Attr(attr); ok && v != "" {
			candidate = v
			break
		}
	}
	if candidate == "" {
		if srcset, ok := img.Attr("data-srcset"); ok && srcset != "" {
			first, _, _ := strings.Cut(srcset, ",")
			fields := strings.Fields(first)
			if len(fields) > 0 {
				candidate = fields[0]
			}
		}
	}
	if candidate == "" {
		candidate, _ = img.Attr("src")
	}

	if strings.HasPrefix(candidate, svgPlaceholderPrefix) {
		return ""
	}
	return candidate
}
