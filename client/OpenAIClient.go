package client

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dougong-game/aichat-client/utils"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// NewOpenAIHttpClient creates the single long-lived HTTP client shared by heartbeat and chat calls.
// The client has no overall timeout, every call is bounded by its own context deadline so that
// long streaming responses are not cut off. proxyURL, when set, routes all requests through that proxy.
func NewOpenAIHttpClient(proxyURL string) (*http.Client, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       utils.GetSecureTLSConfig(),
		TLSHandshakeTimeout:   10 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   4,
		ForceAttemptHTTP2:     true,
	}

	if proxy := strings.TrimSpace(proxyURL); proxy != "" {
		parsed, err := url.Parse(proxy)
		if err != nil || parsed.Host == "" {
			return nil, errors.Errorf("invalid proxy url '%s'", proxy)
		}
		transport.Proxy = http.ProxyURL(parsed)
		log.Infof("AI chat HTTP client uses proxy %s", parsed.Redacted())
	}

	return &http.Client{Transport: transport}, nil
}
