package utils

import (
	"net/url"
	"strings"
)

// GetDomain extracts the host (including port, if any) from a URL.
func GetDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// GetBaseDomain extracts the host from a URL with only the "www" prefix
// removed. For example: "www.example.com" -> "example.com",
// "docs.example.com" -> "docs.example.com".
func GetBaseDomain(rawURL string) string {
	host := GetDomain(rawURL)
	if host == "" {
		return ""
	}

	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	if strings.HasPrefix(strings.ToLower(host), "www.") {
		return host[4:]
	}

	return host
}

// extractRootDomain extracts the root domain (domain + TLD) without any
// subdomains. For example: "docs.example.com" -> "example.com",
// "www.example.com" -> "example.com".
func extractRootDomain(rawURL string) string {
	host := GetDomain(rawURL)
	if host == "" {
		return ""
	}

	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	parts := strings.Split(strings.ToLower(host), ".")
	if len(parts) < 2 {
		return host
	}

	// Takes the last 2 labels, which covers common TLDs (.com, .org,
	// .net) but not compound ones like .co.uk.
	return strings.Join(parts[len(parts)-2:], ".")
}

// IsSameBaseDomain reports whether two URLs share the same base domain,
// ignoring subdomains: "docs.example.com" and "api.example.com" match.
func IsSameBaseDomain(url1, url2 string) bool {
	return extractRootDomain(url1) == extractRootDomain(url2)
}

// IsHTTPURL reports whether a URL parses with an http or https scheme.
func IsHTTPURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
