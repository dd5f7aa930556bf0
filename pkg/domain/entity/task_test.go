package entity

import (
	"errors"
	"testing"
)

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"bare https", "https://example.com", "example.com"},
		{"trailing slash", "https://example.com/", "example.com"},
		{"plain http", "http://www.example.com/", "www.example.com"},
		{"with path", "https://example.com/.git/config", "example.com"},
		{"with query", "https://example.com/?a=b", "example.com"},
		{"query without path", "https://example.com?a=b", "example.com"},
		{"with port", "https://example.com:8443/admin", "example.com"},
		{"dashes", "https://my-site.co.uk/x", "my-site.co.uk"},
		{"underscores", "https://in_ternal.example.com/", "in_ternal.example.com"},
		{"unicode labels", "https://münchen.de/", "münchen.de"},
		{"unicode subdomain", "https://bücher.例え.jp:8080/x", "bücher.例え.jp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			domain, err := ExtractDomain(tt.url)
			if err != nil {
				t.Fatalf("ExtractDomain(%s) returned error: %v", tt.url, err)
			}
			if domain != tt.expected {
				t.Errorf("ExtractDomain(%s) = %s, want %s", tt.url, domain, tt.expected)
			}
		})
	}
}

func TestExtractDomain_Invalid(t *testing.T) {
	for _, url := range []string{
		"",
		"example.com",
		"ftp://example.com/",
		"https://localhost/",
		"https://-bad.com/",
		"https://example.com:port/",
		"https://bad host.com/",
	} {
		if _, err := ExtractDomain(url); !errors.Is(err, ErrNoDomain) {
			t.Errorf("ExtractDomain(%q) error = %v, want ErrNoDomain", url, err)
		}
	}
}

func TestTask_String(t *testing.T) {
	get, err := NewGetTask("https://x.test/robots.txt")
	if err != nil {
		t.Fatal(err)
	}
	if got := get.String(); got != "GET https://x.test/robots.txt" {
		t.Errorf("String() = %q", got)
	}

	spoof, err := NewHostSpoofTask("https://x.test/", "evil.x.test")
	if err != nil {
		t.Fatal(err)
	}
	if got := spoof.String(); got != "GET https://x.test/ with host evil.x.test" {
		t.Errorf("String() = %q", got)
	}

	head, err := NewTask(KindHead, "https://x.test/backup.zip", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := head.String(); got != "HEAD https://x.test/backup.zip" {
		t.Errorf("String() = %q", got)
	}
}

func TestTask_Immutable(t *testing.T) {
	params := map[string]string{ParamHostName: "a.x.test"}
	task, err := NewTask(KindHostSpoof, "https://x.test/", params)
	if err != nil {
		t.Fatal(err)
	}

	params[ParamHostName] = "changed"
	task.Params()[ParamHostName] = "changed again"

	if got := task.Param(ParamHostName); got != "a.x.test" {
		t.Errorf("Param(host_name) = %q, want a.x.test", got)
	}
	if task.Domain() != "x.test" {
		t.Errorf("Domain() = %q, want x.test", task.Domain())
	}
}

func TestTerminateTask(t *testing.T) {
	task, err := NewTask(KindTerminate, "not a url", nil)
	if err != nil {
		t.Fatalf("terminate task should not need a url: %v", err)
	}
	if !task.IsTerminate() {
		t.Error("IsTerminate() = false")
	}
	if task.Domain() != "" {
		t.Errorf("terminate task has domain %q", task.Domain())
	}
}

func TestMetrics_Progress(t *testing.T) {
	if p := (Metrics{}).Progress(); p != 1 {
		t.Errorf("Progress() with no tasks = %v, want 1", p)
	}
	if p := (Metrics{TasksTotal: 4, TasksProcessed: 1}).Progress(); p != 0.25 {
		t.Errorf("Progress() = %v, want 0.25", p)
	}
}
