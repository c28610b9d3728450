package selector

import "net/url"

// Absolutize resolves ref against base, returning ref unchanged if
// either fails to parse or ref is already absolute.
func Absolutize(base, ref string) string {
	if ref == "" {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
