package jobs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// UnknownDeadline is the display value used when no deadline span is
// found on the page.
const UnknownDeadline = "Unknown Deadline"

// deadlinePattern captures the span after the first "Deadline:" up to
// the first "]", newline, or end of text. Case sensitive.
var deadlinePattern = regexp.MustCompile(`Deadline:\s*([^\]\n]*)`)

// ParsePage extracts the deadline text and the candidate PDF link from
// a notice page. It is a pure transformation: no network, no store.
//
// Link selection walks every anchor in document order. An anchor whose
// text contains "advertisement" (case insensitive) always takes the
// slot, so the last such anchor wins. An href ending in ".pdf" only
// fills the slot while it is still empty.
func ParsePage(html string) (PageDetails, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return PageDetails{}, fmt.Errorf("parse html: %w", err)
	}

	details := PageDetails{DeadlineText: UnknownDeadline}

	if m := deadlinePattern.FindStringSubmatch(doc.Find("body").Text()); m != nil {
		details.DeadlineText = strings.TrimSpace(m[1])
	}

	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		text := strings.ToLower(sel.Text())
		if strings.Contains(text, "advertisement") {
			details.PDFLink = href
			return
		}
		if details.PDFLink == "" && strings.HasSuffix(strings.ToLower(href), ".pdf") {
			details.PDFLink = href
		}
	})

	return details, nil
}
