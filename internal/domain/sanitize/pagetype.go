package sanitize

import (
	"net/url"
	"strings"
)

// PageType buckets a page URL for redaction policy lookup.
type PageType string

const (
	PageCheckout  PageType = "checkout"
	PageDashboard PageType = "dashboard"
	PageSettings  PageType = "settings"
	PageProduct   PageType = "product"
	PageMarketing PageType = "marketing"
	PageDefault   PageType = "default"
)

type pathRule struct {
	pageType PageType
	prefixes []string
}

// Ordered: first match wins.
var pathRules = []pathRule{
	{PageCheckout, []string{"/checkout", "/cart"}},
	{PageDashboard, []string{"/dashboard", "/sales", "/analytics"}},
	{PageSettings, []string{"/settings", "/account"}},
	{PageProduct, []string{"/p/", "/products"}},
	{PageMarketing, []string{"/discover"}},
}

// DetectPageType maps a page URL to its redaction bucket. Unparsable URLs
// fall back to the default bucket.
func DetectPageType(pageURL string) PageType {
	trimmed := strings.TrimSpace(pageURL)
	if trimmed == "" {
		return PageDefault
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return PageDefault
	}

	path := parsed.Path
	if path == "" || path == "/" {
		// Bare origin is the marketing home page.
		if parsed.Host != "" || trimmed == "/" {
			return PageMarketing
		}
		return PageDefault
	}

	for _, rule := range pathRules {
		for _, prefix := range rule.prefixes {
			if strings.Contains(path, prefix) {
				return rule.pageType
			}
		}
	}
	return PageDefault
}
