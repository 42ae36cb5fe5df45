package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/muratoffalex/emotebot/internal/logger"
)

const maxBodyBytes = 2 << 20

var whitespace = regexp.MustCompile(`\s+`)

type BaseFetcher struct {
	name    string
	client  HTTPClient
	pattern *regexp.Regexp
	logger  logger.Logger
}

// NewBaseFetcher compiles pattern up front. An empty pattern matches every
// URL.
func NewBaseFetcher(name string, pattern string, httpClient HTTPClient, l logger.Logger) (BaseFetcher, error) {
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return BaseFetcher{}, fmt.Errorf("fetcher %s: invalid pattern: %w", name, err)
	}
	return BaseFetcher{
		name:    name,
		client:  httpClient,
		pattern: compiled,
		logger:  l.WithField("fetcher", name),
	}, nil
}

func (f BaseFetcher) CanHandle(url string) bool {
	return f.pattern.MatchString(url)
}

func (f BaseFetcher) GetName() string {
	return f.name
}

func (f BaseFetcher) cleanDoc(doc *goquery.Document) {
	doc.Find("script, style, noscript, svg, footer, nav, aside, form, .cookie-consent, .sidebar, .hidden").Remove()
}

func (f BaseFetcher) cleanText(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// fetch returns the response headers and the body decoded to UTF-8.
func (f BaseFetcher) fetch(ctx context.Context, payload Request) (*http.Response, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, payload.URL(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", RandomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")
	for k, v := range payload.Headers() {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, "", fmt.Errorf("connection reset by peer (EOF) - possible server issue with %s", payload.URL())
		}
		return nil, "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", fmt.Errorf("%s returned %d %s", payload.URL(), resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	utf8Reader, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return resp, "", nil
		}
		return nil, "", fmt.Errorf("charset detection failed: %w", err)
	}

	bodyBytes, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, "", fmt.Errorf("reading body failed: %w", err)
	}

	return resp, string(bodyBytes), nil
}

func (f BaseFetcher) getGoqueryDoc(body string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

func (f BaseFetcher) isHTMLContent(resp *http.Response, body string) bool {
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") || strings.Contains(contentType, "application/xhtml+xml") {
		return true
	}

	trimmed := strings.TrimSpace(body)
	return strings.HasPrefix(trimmed, "<!DOCTYPE") ||
		strings.HasPrefix(trimmed, "<html") ||
		strings.Contains(trimmed, "<head>") ||
		strings.Contains(trimmed, "<body>")
}

func (f BaseFetcher) isTextContent(resp *http.Response) bool {
	contentType := resp.Header.Get("Content-Type")
	return contentType == "" ||
		strings.HasPrefix(contentType, "text/") ||
		strings.Contains(contentType, "json") ||
		strings.Contains(contentType, "xml")
}
