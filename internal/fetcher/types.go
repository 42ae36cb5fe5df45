// Package fetcher loads web pages linked in prompts and reduces them to
// plain text the AI can read.
package fetcher

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
)

const FetcherNameDefault = "default"

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

var UserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:138.0) Gecko/20100101 Firefox/138.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36",
}

func RandomUserAgent() string {
	return UserAgents[rand.Intn(len(UserAgents))]
}

type Fetcher interface {
	Handle(ctx context.Context, request Request) (Response, error)
	CanHandle(url string) bool
	GetName() string
}

type Request struct {
	url     string
	headers map[string]string
}

// NewRequest validates urlString. Only absolute http(s) URLs are accepted.
func NewRequest(urlString string, headers map[string]string) (Request, error) {
	if strings.TrimSpace(urlString) == "" {
		return Request{}, ErrCannotBeEmpty
	}
	parsedURL, err := url.ParseRequestURI(urlString)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return Request{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, parsedURL.Scheme)
	}
	return Request{url: urlString, headers: headers}, nil
}

func (r Request) URL() string {
	return r.url
}

func (r Request) Headers() map[string]string {
	return r.headers
}

type Response struct {
	URL   string
	Title string
	Text  string
	// Truncated is set when Text was cut to the fetcher's limit.
	Truncated bool
}
