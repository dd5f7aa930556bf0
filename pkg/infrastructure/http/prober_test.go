package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/WangYihang/Exposure-Crawler/pkg/domain/entity"
	"github.com/WangYihang/Exposure-Crawler/pkg/testutil"
)

func newTestProber(handler http.HandlerFunc) *Prober {
	return NewProber(Config{
		Timeout:   time.Second,
		UserAgent: "ExposureCrawler/test",
		Transport: testutil.NewHandlerTransport(handler),
	})
}

func fileHandler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/.git/config":
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "[core]\n\trepositoryformatversion = 0\n")
	case "/soft404":
		w.Header().Set("Content-Type", "TEXT/HTML; charset=utf-8")
		_, _ = io.WriteString(w, "<html>not found</html>")
	case "/empty":
		w.Header().Set("Content-Type", "application/octet-stream")
	case "/backup.zip":
		w.Header().Set("Content-Type", "application/zip")
		_, _ = io.WriteString(w, "PK")
	case "/ua":
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, r.Header.Get("User-Agent"))
	case "/server-error":
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "boom")
	default:
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "missing")
	}
}

func TestProber_Files(t *testing.T) {
	prober := newTestProber(fileHandler)

	tests := []struct {
		name   string
		kind   entity.TaskKind
		url    string
		found  bool
		reason string
	}{
		{"exposed file", entity.KindGet, "https://ex.test/.git/config", true, ""},
		{"not found", entity.KindGet, "https://ex.test/robots.txt", false, ReasonStatus},
		{"server error", entity.KindGet, "https://ex.test/server-error", false, ReasonStatus},
		{"html catch-all page", entity.KindGet, "https://ex.test/soft404", false, ReasonHTML},
		{"empty body", entity.KindGet, "https://ex.test/empty", false, ReasonEmptyBody},
		{"head without body", entity.KindHead, "https://ex.test/empty", true, ""},
		{"post", entity.KindPost, "https://ex.test/backup.zip", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := entity.NewTask(tt.kind, tt.url, nil)
			if err != nil {
				t.Fatal(err)
			}
			result := prober.Probe(context.Background(), task)
			if result.Found != tt.found {
				t.Errorf("Probe(%s).Found = %v, want %v (reason %q, err %v)", task, result.Found, tt.found, result.Reason, result.Err)
			}
			if result.Reason != tt.reason {
				t.Errorf("Probe(%s).Reason = %q, want %q", task, result.Reason, tt.reason)
			}
		})
	}
}

func TestProber_UserAgent(t *testing.T) {
	var seen string
	prober := newTestProber(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("User-Agent")
		fileHandler(w, r)
	})

	task, _ := entity.NewGetTask("https://ex.test/ua")
	prober.Probe(context.Background(), task)

	if seen != "ExposureCrawler/test" {
		t.Errorf("User-Agent = %q", seen)
	}
}

func TestProber_HostSpoof(t *testing.T) {
	prober := newTestProber(func(w http.ResponseWriter, r *http.Request) {
		if r.Host != "admin.ex.test" {
			w.WriteHeader(http.StatusMisdirectedRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<h1>admin</h1>")
	})

	hit, _ := entity.NewHostSpoofTask("https://ex.test/", "admin.ex.test")
	result := prober.Probe(context.Background(), hit)
	if !result.Found {
		t.Errorf("spoofed host should be a finding even with an HTML body: %+v", result)
	}

	miss, _ := entity.NewHostSpoofTask("https://ex.test/", "dev.ex.test")
	result = prober.Probe(context.Background(), miss)
	if result.Found || result.StatusCode != http.StatusMisdirectedRequest {
		t.Errorf("unrouted host should not be a finding: %+v", result)
	}
}

func TestProber_HostSpoofRedirectIsNotFinding(t *testing.T) {
	transport := testutil.NewHandlerTransport(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Host != "ex.test" {
			http.Redirect(w, r, "https://ex.test/", http.StatusMovedPermanently)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<h1>public site</h1>")
	}))
	prober := NewProber(Config{Timeout: time.Second, Transport: transport})

	task, _ := entity.NewHostSpoofTask("https://ex.test/", "admin.ex.test")
	result := prober.Probe(context.Background(), task)
	if result.Found {
		t.Fatalf("redirect of a foreign host to the public site reported as finding: %+v", result)
	}
	if result.StatusCode != http.StatusMovedPermanently || result.Reason != ReasonStatus {
		t.Errorf("result = %+v, want 301 judged as non-2xx", result)
	}
	if requests := transport.Requests(); len(requests) != 1 {
		t.Errorf("requests = %v, want the redirect not followed", requests)
	}
}

func TestProber_FileProbeFollowsRedirect(t *testing.T) {
	prober := newTestProber(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old/.env" {
			http.Redirect(w, r, "/.env", http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "SECRET=1\n")
	})

	task, _ := entity.NewGetTask("https://ex.test/old/.env")
	if result := prober.Probe(context.Background(), task); !result.Found || result.StatusCode != http.StatusOK {
		t.Errorf("redirected file probe = %+v, want finding", result)
	}
}

func TestProber_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	prober := NewProber(Config{Timeout: 50 * time.Millisecond})
	task, err := entity.NewGetTask(server.URL + "/slow")
	if err != nil {
		t.Fatal(err)
	}

	result := prober.Probe(context.Background(), task)
	if result.Found {
		t.Error("a timed out probe must not be a finding")
	}
	if result.Err == nil || !IsTimeout(result.Err) {
		t.Errorf("expected a timeout error, got %v", result.Err)
	}
}

func TestProber_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(fileHandler))
	url := server.URL
	server.Close()

	prober := NewProber(Config{Timeout: time.Second})
	task, _ := entity.NewGetTask(url + "/.git/config")

	result := prober.Probe(context.Background(), task)
	if result.Found || result.Err == nil || result.Reason != ReasonRequestFailed {
		t.Errorf("closed server should fail the probe: %+v", result)
	}
}

func TestProber_Terminate(t *testing.T) {
	prober := newTestProber(func(w http.ResponseWriter, r *http.Request) {
		t.Error("termination tokens must not issue requests")
	})

	result := prober.Probe(context.Background(), entity.NewTerminateTask())
	if result.Found || result.Reason != ReasonTerminate {
		t.Errorf("Probe(terminate) = %+v", result)
	}
}

func TestIsHTML(t *testing.T) {
	for contentType, want := range map[string]bool{
		"text/html":                true,
		"text/html; charset=UTF-8": true,
		" Text/HTML":               true,
		"text/plain":               false,
		"application/xhtml+xml":    false,
		"":                         false,
		"application/octet-stream": false,
	} {
		if got := isHTML(contentType); got != want {
			t.Errorf("isHTML(%q) = %v, want %v", contentType, got, want)
		}
	}
}

func TestProber_RateLimit(t *testing.T) {
	prober := NewProber(Config{
		Timeout:   time.Second,
		RateLimit: 1,
		Transport: testutil.NewHandlerTransport(http.HandlerFunc(fileHandler)),
	})
	task, _ := entity.NewGetTask("https://ex.test/.git/config")

	// The burst allows the first request straight away
	if result := prober.Probe(context.Background(), task); !result.Found {
		t.Fatalf("first probe: %+v", result)
	}

	// The second one would wait a full second, longer than the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	result := prober.Probe(ctx, task)
	if result.Found || result.Err == nil || result.Reason != ReasonRequestFailed {
		t.Errorf("rate limited probe = %+v, want request failure", result)
	}
}
