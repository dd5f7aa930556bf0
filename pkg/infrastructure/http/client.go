package http

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"
)

// maxRedirects bounds how many redirects a probe follows
const maxRedirects = 10

// NewTransport creates the transport used for probing. Certificates are not
// verified since misconfigured hosts are exactly what is being probed.
func NewTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 0,
		}).DialContext,
		TLSHandshakeTimeout:   timeout,
		IdleConnTimeout:       timeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: timeout,
		DisableKeepAlives:     true,
		MaxIdleConns:          0,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
	}
}

// NewClient creates an HTTP client with the probe timeout
func NewClient(timeout time.Duration, transport http.RoundTripper) *http.Client {
	if transport == nil {
		transport = NewTransport(timeout)
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}

// NewHostClient creates the client for spoofed Host probes. Redirects are
// not followed: the spoofed Host would be replaced by the redirect target,
// so the redirect response itself is what gets judged.
func NewHostClient(timeout time.Duration, transport http.RoundTripper) *http.Client {
	client := NewClient(timeout, transport)
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return client
}
