// Package provider hands out one independent HTTP client per account
// worker, either direct or routed through a proxy from a configured pool.
package provider

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/proxy"
)

const (
	requestTimeout = 60 * time.Second
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

// ClientProvider hands out resty clients for loot workers. Provided
// clients are independent instances; no release protocol exists.
type ClientProvider interface {
	Provide() *resty.Client
	AvailableClientCount() int
}

// LocalProvider serves direct clients from the machine's own address.
// Steam rate limits per address, so a single client is all it offers.
type LocalProvider struct{}

func (LocalProvider) Provide() *resty.Client {
	return newClient(nil)
}

func (LocalProvider) AvailableClientCount() int { return 1 }

// ProxyProvider rotates through a loaded proxy list round-robin, building
// one client per handout.
type ProxyProvider struct {
	proxies []*url.URL
	next    atomic.Int64
}

// LoadProxyProvider reads one proxy url per line from the given file.
// Supported schemes: http, https, socks5. A line without a scheme is
// treated as http. Blank lines are skipped; a malformed line is an error,
// not a warning, since a silently dropped proxy would skew the thread
// clamp.
func LoadProxyProvider(path string) (*ProxyProvider, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading proxies file: %w", err)
	}

	p := &ProxyProvider{}
	for i, line := range strings.Split(string(contents), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.Contains(line, "://") {
			line = "http://" + line
		}

		u, err := url.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy on line %d: %w", i+1, err)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return nil, fmt.Errorf("invalid proxy on line %d: unsupported scheme %q", i+1, u.Scheme)
		}

		p.proxies = append(p.proxies, u)
	}

	return p, nil
}

func (p *ProxyProvider) Provide() *resty.Client {
	index := (p.next.Add(1) - 1) % int64(len(p.proxies))
	return newClient(p.proxies[index])
}

func (p *ProxyProvider) AvailableClientCount() int { return len(p.proxies) }

func newClient(proxyURL *url.URL) *resty.Client {
	client := resty.New().
		SetTimeout(requestTimeout).
		SetHeader("User-Agent", userAgent)

	if proxyURL == nil {
		return client
	}

	switch proxyURL.Scheme {
	case "http", "https":
		client.SetTransport(&http.Transport{Proxy: http.ProxyURL(proxyURL)})
	case "socks5":
		var auth *proxy.Auth
		if user := proxyURL.User; user != nil {
			password, _ := user.Password()
			auth = &proxy.Auth{User: user.Username(), Password: password}
		}

		// Dialer construction only fails for an unreachable scheme, which
		// LoadProxyProvider already rejected.
		dialer, err := proxy.SOCKS5("tcp", proxyURL.Host, auth, proxy.Direct)
		if err == nil {
			client.SetTransport(&http.Transport{
				Dial: dialer.Dial,
			})
		}
	}

	return client
}
