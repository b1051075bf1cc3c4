package jobs

import (
	"fmt"
	"net/url"
	"strings"
)

// ResolveLink makes a possibly-relative candidate link absolute against
// the origin of the page it was found on. Links that already carry a
// scheme pass through unchanged; an empty link resolves to "".
func ResolveLink(link, pageURL string) (string, error) {
	if link == "" || strings.HasPrefix(link, "http") {
		return link, nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	origin := base.Scheme + "://" + base.Host
	if strings.HasPrefix(link, "/") {
		return origin + link, nil
	}
	return origin + "/" + link, nil
}
