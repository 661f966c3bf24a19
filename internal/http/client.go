// Package http builds the transport used to talk to the survey backend:
// proxy modes, HTTP/2, and the persisted session cookie jar.
package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"
	"strings"

	"golang.org/x/net/http2"

	"github.com/surveyops/surveyctl/internal/config"
)

// NewClient returns a proxy-aware client that carries the session cookie in
// jar. jar may be nil for one-shot calls that need no session (submit).
//
// HTTP/2 is enabled for direct connections and disabled behind a proxy, where
// multiplexing tends to cause stream errors. DISABLE_HTTP2=true forces HTTP/1.1.
func NewClient(cfg *config.Config, jar nethttp.CookieJar) (*nethttp.Client, error) {
	client, err := ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	client.Jar = jar

	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		// Wrapped by the NTLM negotiator; leave it alone.
		return client, nil
	}

	if proxyActive(cfg) || os.Getenv("DISABLE_HTTP2") == "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
		return client, nil
	}

	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)
	return client, nil
}

func proxyActive(cfg *config.Config) bool {
	switch strings.ToLower(cfg.HTTP.ProxyMode) {
	case config.ProxyModeNone, "":
		return false
	case config.ProxyModeSystem:
		return os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
			os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	default:
		return cfg.HTTP.ProxyHost != ""
	}
}
