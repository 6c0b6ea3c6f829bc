package util

import (
	"net/url"
	"strings"
)

// trackingParams are removed from every job link so the same offer keeps one key across searches.
var trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content"}

// NormalizeURL resolves rawURL against base, drops the fragment and the given
// query parameters plus utm tracking, and trims a trailing slash from the path.
// An empty rawURL stays empty.
func NormalizeURL(rawURL string, base *url.URL, stripParams ...string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", nil
	}
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, err
	}
	if base != nil {
		parsedURL = base.ResolveReference(parsedURL)
	}

	parsedURL.Fragment = ""
	parsedURL.RawFragment = ""
	if len(parsedURL.Path) > 1 && strings.HasSuffix(parsedURL.Path, "/") {
		parsedURL.Path = parsedURL.Path[:len(parsedURL.Path)-1]
		// Clear RawPath to ensure String() regenerates the URL path without the trailing slash
		parsedURL.RawPath = ""
	}

	if parsedURL.RawQuery != "" {
		queryParams := parsedURL.Query()
		for _, param := range append(trackingParams, stripParams...) {
			queryParams.Del(param)
		}
		parsedURL.RawQuery = queryParams.Encode()
	}
	return parsedURL.String(), nil
}
