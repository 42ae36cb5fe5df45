package ask

import (
	"context"
	"net/url"
	"strings"

	"github.com/muratoffalex/emotebot/internal/fetcher"
	"github.com/muratoffalex/emotebot/internal/logger"
)

// fetchLinks loads the pages linked in prompt. Pages that fail to load are
// skipped; the question is still worth answering without them.
func (c *Command) fetchLinks(ctx context.Context, prompt string) []fetcher.Response {
	opts := c.cmdCfg.Fetcher
	if c.links == nil || !opts.Enabled {
		return nil
	}

	var pages []fetcher.Response
	for _, link := range fetcher.ExtractURLs(prompt) {
		if len(pages) >= opts.MaxLinks {
			break
		}
		if !allowedLink(link, opts.Whitelist, opts.Blacklist) {
			c.Logger.WithField("url", link).Debug("Link filtered out")
			continue
		}

		page, err := c.links.Fetch(ctx, link)
		if err != nil {
			c.Logger.WithError(err).WithField("url", link).Warn("Failed to fetch link")
			continue
		}
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		c.Logger.WithFields(logger.Fields{
			"url":       link,
			"truncated": page.Truncated,
		}).Debug("Link fetched")
		pages = append(pages, page)
	}
	return pages
}

// allowedLink matches the link's host against domain lists. A domain also
// covers its subdomains. A non-empty whitelist admits only its domains.
func allowedLink(link string, whitelist, blacklist []string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())

	for _, domain := range blacklist {
		if matchDomain(host, domain) {
			return false
		}
	}
	if len(whitelist) == 0 {
		return true
	}
	for _, domain := range whitelist {
		if matchDomain(host, domain) {
			return true
		}
	}
	return false
}

func matchDomain(host, domain string) bool {
	domain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "."))
	if domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}
