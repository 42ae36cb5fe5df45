package fetcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/muratoffalex/emotebot/internal/logger"
)

// PageFetcher reduces any HTML or text page to its visible text.
type PageFetcher struct {
	BaseFetcher
	maxChars int
}

func NewPageFetcher(l logger.Logger, httpClient HTTPClient, maxChars int) (*PageFetcher, error) {
	base, err := NewBaseFetcher(FetcherNameDefault, "", httpClient, l)
	if err != nil {
		return nil, err
	}
	return &PageFetcher{BaseFetcher: base, maxChars: maxChars}, nil
}

func (f *PageFetcher) Handle(ctx context.Context, request Request) (Response, error) {
	resp, body, err := f.fetch(ctx, request)
	if err != nil {
		return Response{}, err
	}

	result := Response{URL: request.URL()}

	switch {
	case f.isHTMLContent(resp, body):
		doc, err := f.getGoqueryDoc(body)
		if err != nil {
			return Response{}, err
		}
		result.Title = f.cleanText(doc.Find("title").First().Text())
		f.cleanDoc(doc)
		root := doc.Find("main, article").First()
		if root.Length() == 0 {
			root = doc.Find("body")
		}
		result.Text = f.cleanText(root.Text())
	case f.isTextContent(resp):
		result.Text = f.cleanText(body)
	default:
		return Response{}, fmt.Errorf("%w: unsupported content type %q", ErrNotHandle, resp.Header.Get("Content-Type"))
	}

	result.Text, result.Truncated = truncate(result.Text, f.maxChars)
	f.logger.WithFields(logger.Fields{
		"url":       request.URL(),
		"chars":     len([]rune(result.Text)),
		"truncated": result.Truncated,
	}).Debug("Page fetched")

	return result, nil
}

func truncate(text string, maxChars int) (string, bool) {
	if maxChars <= 0 {
		return text, false
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text, false
	}
	return strings.TrimSpace(string(runes[:maxChars])), true
}
