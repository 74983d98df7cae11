package page

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// MaxChildLinks is a hard ceiling on links followed from one listing.
	MaxChildLinks = 5
	// candidateScanLimit stops selector scanning once this many candidates survive.
	candidateScanLimit = 20
)

// linkSelectors are tried in priority order.
var linkSelectors = []string{
	"article a[href]",
	".post a[href]",
	".entry a[href]",
	".item a[href]",
	".card a[href]",
	".result a[href]",
	"h2 a[href]",
	"h3 a[href]",
	".title a[href]",
	`[class*="article"] a[href]`,
	`[class*="post"] a[href]`,
}

// excludedLinkPatterns reject auth, navigation, interaction and binary URLs.
var excludedLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/(login|signin|signup|register|auth)`),
	regexp.MustCompile(`(?i)/(search|filter|sort|category|tag)`),
	regexp.MustCompile(`(?i)/(about|contact|privacy|terms|help|faq)`),
	regexp.MustCompile(`(?i)/(comment|reply|share)`),
	regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|pdf|zip|mp3|mp4)$`),
	regexp.MustCompile(`#`),
	regexp.MustCompile(`(?i)^javascript:`),
	regexp.MustCompile(`(?i)^mailto:`),
}

// ExtractChildLinks harvests up to MaxChildLinks unique same-site article links from a
// listing page, in discovery order.
func ExtractChildLinks(baseURL string, doc *goquery.Document) []string {
	base, err := url.Parse(baseURL)
	if err != nil || base.Hostname() == "" {
		return nil
	}
	baseHost := strings.ToLower(base.Hostname())

	seen := make(map[string]struct{})
	var links []string

	for _, selector := range linkSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			abs, ok := resolveCandidate(base, baseHost, href)
			if !ok {
				return
			}
			if _, dup := seen[abs]; dup {
				return
			}
			seen[abs] = struct{}{}
			links = append(links, abs)
		})

		if len(links) >= candidateScanLimit {
			break
		}
	}

	if len(links) > MaxChildLinks {
		links = links[:MaxChildLinks]
	}
	return links
}

func resolveCandidate(base *url.URL, baseHost, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	abs := resolved.String()

	for _, pattern := range excludedLinkPatterns {
		if pattern.MatchString(abs) {
			return "", false
		}
	}

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if !sameSite(baseHost, strings.ToLower(resolved.Hostname())) {
		return "", false
	}

	return abs, true
}

// sameSite tolerates subdomain variants in either direction.
func sameSite(baseHost, linkHost string) bool {
	if linkHost == "" {
		return false
	}
	return strings.Contains(linkHost, baseHost) || strings.Contains(baseHost, linkHost)
}
