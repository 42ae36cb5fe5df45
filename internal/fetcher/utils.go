package fetcher

import (
	"regexp"
	"slices"
)

var urlRegex = regexp.MustCompile(`https?://[a-zA-Z0-9\p{L}\p{N}\-._~:/?#\[\]@!$&'()*+,;=%]+[a-zA-Z0-9\p{L}\p{N}\-_~/#@$&*+=%]`)

// ExtractURLs returns the distinct http(s) URLs in text in order of first
// appearance. Trailing punctuation is not part of a URL.
func ExtractURLs(text string) []string {
	var urls []string
	for _, u := range urlRegex.FindAllString(text, -1) {
		if !slices.Contains(urls, u) {
			urls = append(urls, u)
		}
	}
	return urls
}
