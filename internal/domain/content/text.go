package content

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	mdLinkRe     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdMarkRe     = regexp.MustCompile(`[#*_>` + "`" + `]+`)
	wsRe         = regexp.MustCompile(`\s+`)
	nonSlugRe    = regexp.MustCompile(`[^a-z0-9]+`)
	trackingKeys = map[string]bool{
		"utm_source": true, "utm_medium": true, "utm_campaign": true,
		"utm_term": true, "utm_content": true, "gclid": true, "fbclid": true,
		"ref": true, "mc_cid": true, "mc_eid": true,
	}
)

// StripMarkup removes HTML tags and markdown decoration, leaving plain text.
func StripMarkup(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = mdLinkRe.ReplaceAllString(s, "$1")
	s = mdMarkRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}

// CountWords counts whitespace-delimited tokens.
func CountWords(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	return len(strings.Fields(s))
}

// ReadingTimeMinutes assumes 200 wpm with a floor of 1 minute.
func ReadingTimeMinutes(wordCount int) int {
	if wordCount <= 0 {
		return 1
	}
	mins := (wordCount + 199) / 200
	if mins < 1 {
		mins = 1
	}
	return mins
}

// Slugify lowercases and collapses non-alphanumerics to single hyphens.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NormalizeURL lowercases the scheme and host, drops a leading "www.",
// removes tracking params and fragments, and trims a trailing slash.
// It is idempotent: NormalizeURL(NormalizeURL(u)) == NormalizeURL(u).
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.ToLower(raw), "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	u.Host = host
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		if trackingKeys[strings.ToLower(k)] {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()

	out := u.String()
	return strings.TrimRight(out, "/")
}
