package search

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/proxy"

	_ "github.com/bdandy/go-socks4" // registers the socks4 proxy scheme
)

// newHTTPClient builds the client used for all YouTube traffic. An empty
// proxyStr means a direct connection; unusable proxy settings fall back to
// direct with a warning rather than failing startup.
func newHTTPClient(proxyStr string, timeout time.Duration) *http.Client {
	if proxyStr == "" {
		return &http.Client{Timeout: timeout}
	}

	proxyURL, err := url.Parse(proxyStr)
	if err != nil {
		zlog.Warn().Err(err).Str("proxy", proxyStr).Msg("invalid proxy format, going direct")
		return &http.Client{Timeout: timeout}
	}

	var transport *http.Transport

	switch proxyURL.Scheme {
	case "http", "https":
		transport = &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
		}
	case "socks5":
		auth := &proxy.Auth{}
		if proxyURL.User != nil {
			auth.User = proxyURL.User.Username()
			if pass, ok := proxyURL.User.Password(); ok {
				auth.Password = pass
			}
		}
		dialer, err := proxy.SOCKS5("tcp", proxyURL.Host, auth, &net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 10 * time.Second,
		})
		if err != nil {
			zlog.Warn().Err(err).Msg("socks5 dialer error, going direct")
			break
		}
		transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}
	case "socks4":
		dialer, err := proxy.FromURL(proxyURL, &net.Dialer{
			Timeout: 10 * time.Second,
		})
		if err != nil {
			zlog.Warn().Err(err).Msg("socks4 dialer error, going direct")
			break
		}
		transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}
	default:
		zlog.Warn().Str("scheme", proxyURL.Scheme).Msg("unsupported proxy scheme, going direct")
	}

	if transport == nil {
		return &http.Client{Timeout: timeout}
	}

	zlog.Info().Str("proxy", proxyStr).Msg("using proxy for YouTube traffic")
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
