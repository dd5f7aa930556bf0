package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/WangYihang/Exposure-Crawler/pkg/common"
	"github.com/WangYihang/Exposure-Crawler/pkg/domain/entity"
	"github.com/WangYihang/Exposure-Crawler/pkg/domain/service"
	"golang.org/x/time/rate"
)

// Reasons a probe yields no finding
const (
	ReasonRequestFailed = "request failed"
	ReasonStatus        = "non-2xx status"
	ReasonHTML          = "html response"
	ReasonEmptyBody     = "empty body"
	ReasonTerminate     = "termination token"
)

// DefaultMaxResponseSize bounds how much of a body is read
const DefaultMaxResponseSize = 10 << 20

// Prober implements service.Prober
type Prober struct {
	client          *http.Client
	hostClient      *http.Client
	maxResponseSize int64
	userAgent       string
	limiter         *rate.Limiter
}

// Config holds HTTP prober configuration
type Config struct {
	Timeout         time.Duration
	MaxResponseSize int64
	UserAgent       string
	// RateLimit caps requests per second across all workers, 0 disables it
	RateLimit int
	// Transport overrides the default probing transport when set
	Transport http.RoundTripper
}

// NewProber creates a new HTTP prober
func NewProber(config Config) *Prober {
	if config.MaxResponseSize <= 0 {
		config.MaxResponseSize = DefaultMaxResponseSize
	}
	p := &Prober{
		client:          NewClient(config.Timeout, config.Transport),
		hostClient:      NewHostClient(config.Timeout, config.Transport),
		maxResponseSize: config.MaxResponseSize,
		userAgent:       config.UserAgent,
	}
	if config.RateLimit > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimit)
	}
	return p
}

// Probe implements service.Prober
func (p *Prober) Probe(ctx context.Context, task *entity.Task) *service.ProbeResult {
	start := time.Now()
	var result *service.ProbeResult

	switch task.Kind() {
	case entity.KindGet:
		result = p.probeFile(ctx, task, http.MethodGet)
	case entity.KindHead:
		result = p.probeFile(ctx, task, http.MethodHead)
	case entity.KindPost:
		result = p.probeFile(ctx, task, http.MethodPost)
	case entity.KindHostSpoof:
		result = p.probeHost(ctx, task)
	case entity.KindTerminate:
		result = &service.ProbeResult{Task: task, Reason: ReasonTerminate}
	default:
		result = &service.ProbeResult{
			Task:   task,
			Reason: ReasonRequestFailed,
			Err:    fmt.Errorf("unsupported task kind %s", task.Kind()),
		}
	}

	result.Duration = time.Since(start)
	return result
}

// probeFile looks for an exposed file. Catch-all error pages answer 200
// with HTML, so HTML responses never count.
func (p *Prober) probeFile(ctx context.Context, task *entity.Task, method string) *service.ProbeResult {
	result := &service.ProbeResult{Task: task}

	resp, err := p.do(ctx, method, task.URL(), "")
	if err != nil {
		result.Reason = ReasonRequestFailed
		result.Err = err
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")

	if !isSuccess(resp.StatusCode) {
		result.Reason = ReasonStatus
		return result
	}

	if isHTML(result.ContentType) {
		result.Reason = ReasonHTML
		return result
	}

	if method != http.MethodHead {
		n, err := io.Copy(io.Discard, io.LimitReader(resp.Body, p.maxResponseSize))
		if err != nil {
			result.Reason = ReasonRequestFailed
			result.Err = err
			return result
		}
		if n == 0 {
			result.Reason = ReasonEmptyBody
			return result
		}
	}

	result.Found = true
	return result
}

// probeHost checks whether the site answers for a foreign virtual host
func (p *Prober) probeHost(ctx context.Context, task *entity.Task) *service.ProbeResult {
	result := &service.ProbeResult{Task: task}

	resp, err := p.do(ctx, http.MethodGet, task.URL(), task.Param(entity.ParamHostName))
	if err != nil {
		result.Reason = ReasonRequestFailed
		result.Err = err
		return result
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, p.maxResponseSize))

	result.StatusCode = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")

	if !isSuccess(resp.StatusCode) {
		result.Reason = ReasonStatus
		return result
	}

	result.Found = true
	return result
}

func (p *Prober) do(ctx context.Context, method, url, host string) (*http.Response, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	if host != "" {
		req.Host = host
	}
	if ua := common.ResolveUserAgent(p.userAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	client := p.client
	if host != "" {
		client = p.hostClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func isSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

func isHTML(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "text/html")
}

// IsTimeout reports whether a probe error was caused by the request timeout
func IsTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
