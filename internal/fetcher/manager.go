package fetcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/muratoffalex/emotebot/internal/logger"
)

type Manager struct {
	fetchers       []Fetcher
	fetcherMap     map[string]Fetcher
	defaultFetcher Fetcher
	logger         logger.Logger
}

func NewManager(logger logger.Logger) *Manager {
	return &Manager{
		fetchers:   make([]Fetcher, 0),
		fetcherMap: make(map[string]Fetcher),
		logger:     logger.WithComponent("fetcher"),
	}
}

// Fetch tries the registered fetchers in order and falls back to the
// default one. A fetcher returning ErrNotHandle passes the URL on.
func (f *Manager) Fetch(ctx context.Context, rawURL string) (Response, error) {
	request, err := NewRequest(rawURL, nil)
	if err != nil {
		return Response{}, err
	}

	for _, item := range f.fetchers {
		if !item.CanHandle(rawURL) {
			continue
		}

		log := f.logger.WithField("fetcher", item.GetName())
		log.Debug("Matched fetcher")
		resp, err := item.Handle(ctx, request)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, ErrNotHandle) {
			log.WithError(err).Warn("fetcher not handling url, skip")
			continue
		}
		return resp, err
	}

	if f.defaultFetcher != nil {
		return f.defaultFetcher.Handle(ctx, request)
	}

	return Response{}, fmt.Errorf("%w for URL: %s", ErrNoFetcher, rawURL)
}

func (f *Manager) SetDefaultFetcher(fetcher Fetcher) {
	f.defaultFetcher = fetcher
}

func (f *Manager) RegisterFetcher(fetcher Fetcher) {
	if f.ContainsFetcher(fetcher) {
		return
	}
	f.fetchers = append(f.fetchers, fetcher)
	f.fetcherMap[fetcher.GetName()] = fetcher
}

func (f *Manager) ContainsFetcher(fetcher Fetcher) bool {
	_, exists := f.fetcherMap[fetcher.GetName()]
	return exists
}
