package ingest

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var blockTagRe = regexp.MustCompile(`(?i)</(p|div|tr|table|h[1-6]|li|ul|ol|br)>|<br\s*/?>`)

// HTMLToText converts an EDGAR filing document to plaintext suitable for
// section parsing. Script, style and XBRL header elements are dropped; block
// element boundaries become newlines so item headers stay on their own lines.
func HTMLToText(html string) string {
	// Insert newlines at block boundaries before parsing, otherwise goquery's
	// Text() runs adjacent blocks together and header patterns anchored on
	// line starts stop matching.
	html = blockTagRe.ReplaceAllString(html, "$0\n")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Fall back to a crude tag strip.
		return stripTags(html)
	}

	doc.Find("script, style, head, ix\\:header").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	return doc.Text()
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

func stripTags(html string) string {
	return tagRe.ReplaceAllString(html, " ")
}
