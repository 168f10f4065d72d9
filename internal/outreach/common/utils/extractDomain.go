package utils

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

var knownSchemes = []string{"http://", "https://", "ftp://"}

// ExtractDomain returns the canonical host of a URL-like string:
// - Lowercased, ASCII (punycode) form
// - No scheme, port, path or leading "www."
// - At least one dot, otherwise it is not treated as a domain
//
// Bare hosts such as "www.example.com" are accepted. Anything that cannot be
// parsed yields ("", false); callers treat that as "cannot be blocklisted".
func ExtractDomain(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	if !hasKnownScheme(input) {
		input = "https://" + input
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", false
	}
	// Hostname drops the port and IPv6 brackets.
	host := strings.ToLower(u.Hostname())
	if ascii, err := idna.Punycode.ToASCII(host); err == nil {
		host = ascii
	}
	host = strings.TrimPrefix(host, "www.")
	if !strings.Contains(host, ".") {
		return "", false
	}
	return host, true
}

func hasKnownScheme(s string) bool {
	lower := strings.ToLower(s)
	for _, scheme := range knownSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}
