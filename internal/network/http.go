package network

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/muratoffalex/emotebot/internal/config"
	"github.com/muratoffalex/emotebot/internal/logger"
)

const LogProxyNotConfigured = "Proxy not configured, using direct connection"

type HTTPClientConfig struct {
	ProxyURL              string
	NoProxy               []string
	Timeout               time.Duration
	DisableKeepAlives     bool
	MaxIdleConns          int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration
	ForceAttemptHTTP2     bool
}

func NewDefaultHTTPClientConfig(cfg config.HTTPConfig) HTTPClientConfig {
	return HTTPClientConfig{
		ProxyURL:              cfg.GetProxy(),
		NoProxy:               cfg.GetNoProxy(),
		Timeout:               time.Minute,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
}

// NewAIHTTPClientConfig allows for slow generations; timeout overrides the
// default when positive.
func NewAIHTTPClientConfig(cfg config.HTTPConfig, timeout time.Duration) HTTPClientConfig {
	conf := NewDefaultHTTPClientConfig(cfg)
	if timeout > 0 {
		conf.Timeout = timeout
	}
	conf.MaxIdleConns = 10
	return conf
}

// NewHTTPClientConfigForFetcher is tuned for one-off page loads.
func NewHTTPClientConfigForFetcher(cfg config.HTTPConfig) HTTPClientConfig {
	conf := NewDefaultHTTPClientConfig(cfg)
	conf.Timeout = 30 * time.Second
	conf.MaxIdleConns = 10
	conf.IdleConnTimeout = 10 * time.Second
	conf.DisableKeepAlives = true
	return conf
}

func SetupHTTPClient(cfg HTTPClientConfig, log logger.Logger) (*http.Client, error) {
	transport := &http.Transport{
		ForceAttemptHTTP2:     cfg.ForceAttemptHTTP2,
		MaxIdleConns:          cfg.MaxIdleConns,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		DisableKeepAlives:     cfg.DisableKeepAlives,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout: cfg.ExpectContinueTimeout,
	}

	if cfg.ProxyURL != "" {
		if err := configureProxy(transport, cfg.ProxyURL, cfg.NoProxy, log); err != nil {
			return nil, fmt.Errorf("failed to configure proxy: %w", err)
		}
	} else {
		log.Info(LogProxyNotConfigured)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}, nil
}

// ProxyFunc returns the proxy selector for a websocket dialer, or nil when
// no HTTP proxy is configured.
func ProxyFunc(cfg HTTPClientConfig) func(*http.Request) (*url.URL, error) {
	if cfg.ProxyURL == "" {
		return nil
	}
	parsed, err := url.Parse(cfg.ProxyURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil
	}
	return createProxyFunc(parsed, cfg.NoProxy)
}

func configureProxy(transport *http.Transport, proxyURL string, noProxy []string, log logger.Logger) error {
	parsedURL, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("failed to parse proxy URL: %w", err)
	}

	switch parsedURL.Scheme {
	case "socks5", "socks5h":
		dialContext, err := createSOCKS5ProxyDialer(parsedURL, noProxy, log)
		if err != nil {
			return fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.DialContext = dialContext
	case "http", "https":
		transport.Proxy = createProxyFunc(parsedURL, noProxy)
		log.Info(fmt.Sprintf("Proxy configured: %s, no_proxy: %v", parsedURL.Redacted(), noProxy))
	default:
		return fmt.Errorf("unsupported proxy scheme: %s", parsedURL.Scheme)
	}

	return nil
}

func createProxyFunc(proxyURL *url.URL, noProxy []string) func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		if bypassProxy(req.URL.Hostname(), noProxy) {
			return nil, nil
		}
		return proxyURL, nil
	}
}

func bypassProxy(host string, noProxy []string) bool {
	for _, exclusion := range noProxy {
		if matchHost(host, exclusion) {
			return true
		}
	}
	return false
}

// matchHost supports exact hosts, "*" wildcards and leading-dot domain
// suffixes such as ".example.com".
func matchHost(host, pattern string) bool {
	host = strings.ToLower(host)
	pattern = strings.ToLower(strings.TrimSpace(pattern))

	switch {
	case pattern == "":
		return false
	case strings.Contains(pattern, "*"):
		expr := strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*")
		matched, _ := regexp.MatchString("^"+expr+"$", host)
		return matched
	case strings.HasPrefix(pattern, "."):
		return strings.HasSuffix(host, pattern) || host == pattern[1:]
	default:
		return host == pattern
	}
}

func createSimpleDialer() *net.Dialer {
	return &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
}

func createSOCKS5ProxyDialer(proxyURL *url.URL, noProxy []string, log logger.Logger) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	directDialer := createSimpleDialer()

	proxyDialer, err := proxy.FromURL(proxyURL, directDialer)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy dialer: %w", err)
	}
	log.Info(fmt.Sprintf("Proxy configured: %s, no_proxy: %v", proxyURL.Redacted(), noProxy))

	contextDialer, hasContext := proxyDialer.(proxy.ContextDialer)
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		if bypassProxy(host, noProxy) {
			return directDialer.DialContext(ctx, network, addr)
		}
		if hasContext {
			return contextDialer.DialContext(ctx, network, addr)
		}
		return proxyDialer.Dial(network, addr)
	}, nil
}
