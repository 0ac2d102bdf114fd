package httpfetch

import (
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// DefaultUserAgents are rotated when no user agents are configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// Agents handles the rotation of proxies and user agents.
type Agents struct {
	proxies    []*url.URL
	userAgents []string
	mu         sync.Mutex
	proxyIndex int
	rnd        *rand.Rand
}

// NewAgents creates a rotation over proxies and userAgents. Invalid proxy
// URLs are skipped.
func NewAgents(proxies, userAgents []string) *Agents {
	if len(userAgents) == 0 {
		userAgents = DefaultUserAgents
	}
	a := &Agents{
		userAgents: userAgents,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, p := range proxies {
		if u, err := url.Parse(p); err == nil && u.Host != "" {
			a.proxies = append(a.proxies, u)
		}
	}
	return a
}

// Proxy returns a proxy URL from the list, rotating sequentially. It has the
// signature of http.Transport.Proxy.
func (a *Agents) Proxy(*http.Request) (*url.URL, error) {
	if len(a.proxies) == 0 {
		return nil, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	proxy := a.proxies[a.proxyIndex]
	a.proxyIndex = (a.proxyIndex + 1) % len(a.proxies)
	return proxy, nil
}

// UserAgent returns a random user agent string.
func (a *Agents) UserAgent() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userAgents[a.rnd.Intn(len(a.userAgents))]
}

// NewClient returns an HTTP client using the proxy rotation.
func (a *Agents) NewClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = a.Proxy
	return &http.Client{Transport: transport, Timeout: timeout}
}
