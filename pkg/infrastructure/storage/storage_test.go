package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/WangYihang/Exposure-Crawler/pkg/domain/entity"
	"gopkg.in/yaml.v3"
)

func mustGetTask(t *testing.T, url string) *entity.Task {
	t.Helper()
	task, err := entity.NewGetTask(url)
	if err != nil {
		t.Fatalf("NewGetTask(%s): %v", url, err)
	}
	return task
}

func TestTaskQueue_FIFO(t *testing.T) {
	queue := NewTaskQueue()

	if queue.Len() != 0 {
		t.Errorf("New queue should be empty, got length %d", queue.Len())
	}

	first := mustGetTask(t, "https://example.com/a")
	second := mustGetTask(t, "https://example.com/b")
	for _, task := range []*entity.Task{first, second, entity.NewTerminateTask()} {
		if err := queue.Enqueue(task); err != nil {
			t.Fatalf("Enqueue should succeed: %v", err)
		}
	}

	if queue.Len() != 3 {
		t.Errorf("Queue length should be 3, got %d", queue.Len())
	}

	ctx := context.Background()
	for _, want := range []string{first.String(), second.String(), "TERMINATE"} {
		task, err := queue.Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue should succeed: %v", err)
		}
		if task.String() != want {
			t.Errorf("Dequeue() = %s, want %s", task, want)
		}
	}

	if queue.Len() != 0 {
		t.Errorf("Queue should be empty after dequeue, got length %d", queue.Len())
	}
}

func TestTaskQueue_DequeueBlocks(t *testing.T) {
	queue := NewTaskQueue()
	got := make(chan *entity.Task, 1)

	go func() {
		task, err := queue.Dequeue(context.Background())
		if err == nil {
			got <- task
		}
	}()

	select {
	case <-got:
		t.Fatal("Dequeue returned before anything was enqueued")
	case <-time.After(50 * time.Millisecond):
	}

	if err := queue.Enqueue(mustGetTask(t, "https://example.com/late")); err != nil {
		t.Fatal(err)
	}

	select {
	case task := <-got:
		if task.URL() != "https://example.com/late" {
			t.Errorf("Dequeue() = %s", task)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Dequeue did not wake up after Enqueue")
	}
}

func TestTaskQueue_DequeueCanceled(t *testing.T) {
	queue := NewTaskQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := queue.Dequeue(ctx); err == nil {
		t.Error("Dequeue on an empty queue should fail once ctx is done")
	}
}

func TestTaskQueue_RejectsNil(t *testing.T) {
	if err := NewTaskQueue().Enqueue(nil); err == nil {
		t.Error("Enqueue(nil) should fail")
	}
}

func TestResultStore_Seeding(t *testing.T) {
	store := NewResultStore()
	store.Seed("b.com")
	store.Seed("a.com")

	if err := store.Add("a.com", "GET https://a.com/x"); err != nil {
		t.Fatalf("Add should succeed on a seeded domain: %v", err)
	}
	store.Seed("a.com")

	if err := store.Add("evil.com", "GET https://evil.com/"); !errors.Is(err, ErrUnknownDomain) {
		t.Errorf("Add on unknown domain error = %v, want ErrUnknownDomain", err)
	}

	snapshot := store.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("Snapshot should hold 2 domains, got %v", snapshot)
	}
	if got := snapshot["a.com"]; len(got) != 1 || got[0] != "GET https://a.com/x" {
		t.Errorf("a.com findings = %v", got)
	}
	if got, ok := snapshot["b.com"]; !ok || len(got) != 0 {
		t.Errorf("b.com should be present and empty, got %v (present %v)", got, ok)
	}

	if domains := store.Domains(); strings.Join(domains, ",") != "a.com,b.com" {
		t.Errorf("Domains() = %v", domains)
	}
}

func TestResultStore_SnapshotIsCopy(t *testing.T) {
	store := NewResultStore()
	store.Seed("a.com")
	_ = store.Add("a.com", "one")

	snapshot := store.Snapshot()
	snapshot["a.com"][0] = "mutated"
	snapshot["b.com"] = []string{"x"}

	again := store.Snapshot()
	if again["a.com"][0] != "one" {
		t.Error("mutating a snapshot changed the store")
	}
	if _, ok := again["b.com"]; ok {
		t.Error("adding to a snapshot changed the store")
	}
}

func TestResultStore_ConcurrentAdd(t *testing.T) {
	store := NewResultStore()
	store.Seed("a.com")

	const workers, perWorker = 16, 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_ = store.Add("a.com", fmt.Sprintf("%d-%d", w, i))
			}
		}(w)
	}
	wg.Wait()

	if got := len(store.Snapshot()["a.com"]); got != workers*perWorker {
		t.Errorf("lost updates: got %d findings, want %d", got, workers*perWorker)
	}
}

func TestEncode_ExplicitStart(t *testing.T) {
	data, err := Encode(map[string][]string{
		"ex.test": {"GET https://ex.test/.git/config"},
		"b.test":  {},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("---\n")) {
		t.Errorf("document should start with ---, got %q", data)
	}

	var decoded map[string][]string
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if len(decoded["ex.test"]) != 1 || decoded["ex.test"][0] != "GET https://ex.test/.git/config" {
		t.Errorf("decoded = %v", decoded)
	}
	if list, ok := decoded["b.test"]; !ok || len(list) != 0 {
		t.Errorf("empty domain should round-trip as an empty list, got %v", decoded)
	}
}

func TestCheckpointer_RewritesFileInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	f, err := OpenSink(path)
	if err != nil {
		t.Fatal(err)
	}

	store := NewResultStore()
	store.Seed("a.com")
	for i := 0; i < 20; i++ {
		_ = store.Add("a.com", fmt.Sprintf("GET https://a.com/file-%02d", i))
	}

	checkpointer := NewCheckpointer(store, f)
	if !checkpointer.Rewindable() {
		t.Fatal("a regular file should be rewindable")
	}
	if err := checkpointer.Save(); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	// A shorter document must not leave trailing bytes behind
	small := NewResultStore()
	small.Seed("a.com")
	checkpointer.(*Checkpointer).store = small
	if err := checkpointer.Save(); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if err := checkpointer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "---\na.com: []\n" {
		t.Errorf("file content = %q", data)
	}
	if strings.Count(string(data), "---") != 1 {
		t.Errorf("file should contain exactly one document: %q", data)
	}
}

func TestCheckpointer_StreamSink(t *testing.T) {
	var buf bytes.Buffer
	store := NewResultStore()
	store.Seed("ex.test")
	_ = store.Add("ex.test", "GET https://ex.test/ with host admin.ex.test")

	checkpointer := NewCheckpointer(store, &buf)
	if checkpointer.Rewindable() {
		t.Error("a buffer should not be rewindable")
	}
	if err := checkpointer.Save(); err != nil {
		t.Fatal(err)
	}
	if err := checkpointer.Close(); err != nil {
		t.Fatal(err)
	}

	want := "---\nex.test:\n  - GET https://ex.test/ with host admin.ex.test\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestCheckpointer_WriteError(t *testing.T) {
	store := NewResultStore()
	store.Seed("a.com")

	if err := NewCheckpointer(store, failingWriter{}).Save(); err == nil {
		t.Error("Save should report sink errors")
	}
}
