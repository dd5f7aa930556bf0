package entity

import (
	"fmt"
	"maps"
)

// TaskKind tags the probe a task performs
type TaskKind int

const (
	KindGet TaskKind = iota
	KindHead
	KindPost
	KindHostSpoof
	KindTerminate
)

// ParamHostName is the auxiliary parameter holding the spoofed Host header
const ParamHostName = "host_name"

func (k TaskKind) String() string {
	switch k {
	case KindGet:
		return "GET"
	case KindHead:
		return "HEAD"
	case KindPost:
		return "POST"
	case KindHostSpoof:
		return "HOST_SPOOF"
	case KindTerminate:
		return "TERMINATE"
	}
	return fmt.Sprintf("TaskKind(%d)", int(k))
}

// Task describes one probe. Tasks are immutable once created.
type Task struct {
	kind   TaskKind
	url    string
	params map[string]string
	domain string
}

// NewTask creates a probe task and extracts its domain from url
func NewTask(kind TaskKind, url string, params map[string]string) (*Task, error) {
	if kind == KindTerminate {
		return NewTerminateTask(), nil
	}
	domain, err := ExtractDomain(url)
	if err != nil {
		return nil, err
	}
	return &Task{
		kind:   kind,
		url:    url,
		params: maps.Clone(params),
		domain: domain,
	}, nil
}

// NewGetTask creates a plain GET probe
func NewGetTask(url string) (*Task, error) {
	return NewTask(KindGet, url, nil)
}

// NewHostSpoofTask creates a GET probe sending hostName as Host header
func NewHostSpoofTask(url, hostName string) (*Task, error) {
	return NewTask(KindHostSpoof, url, map[string]string{ParamHostName: hostName})
}

// NewTerminateTask creates a termination token
func NewTerminateTask() *Task {
	return &Task{kind: KindTerminate}
}

// Kind returns the task kind
func (t *Task) Kind() TaskKind {
	return t.kind
}

// URL returns the target url
func (t *Task) URL() string {
	return t.url
}

// Domain returns the domain the findings of this task are aggregated under
func (t *Task) Domain() string {
	return t.domain
}

// Param returns an auxiliary parameter
func (t *Task) Param(key string) string {
	return t.params[key]
}

// Params returns a copy of the auxiliary parameters
func (t *Task) Params() map[string]string {
	return maps.Clone(t.params)
}

// IsTerminate reports whether the task is a termination token
func (t *Task) IsTerminate() bool {
	return t.kind == KindTerminate
}

// String renders the task the way it is recorded as a finding
func (t *Task) String() string {
	switch t.kind {
	case KindHostSpoof:
		return fmt.Sprintf("GET %s with host %s", t.url, t.params[ParamHostName])
	case KindTerminate:
		return "TERMINATE"
	default:
		return fmt.Sprintf("%s %s", t.kind, t.url)
	}
}
