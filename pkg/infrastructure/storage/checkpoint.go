package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/WangYihang/Exposure-Crawler/pkg/domain/repository"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"
)

// documentStart is written before every snapshot
const documentStart = "---\n"

// Checkpointer implements repository.Checkpointer writing YAML documents
type Checkpointer struct {
	store      repository.ResultStore
	sink       io.Writer
	file       *os.File
	rewindable bool
	closer     io.Closer
	mu         sync.Mutex
}

// NewCheckpointer creates a checkpointer that dumps store into sink. Only
// regular files that are not terminals are rewritten in place.
func NewCheckpointer(store repository.ResultStore, sink io.Writer) repository.Checkpointer {
	c := &Checkpointer{
		store: store,
		sink:  sink,
	}

	if f, ok := sink.(*os.File); ok {
		c.file = f
		c.rewindable = isRewindable(f)
		if f != os.Stdout && f != os.Stderr {
			c.closer = f
		}
	} else if closer, ok := sink.(io.Closer); ok {
		c.closer = closer
	}

	return c
}

// OpenSink opens the output path for writing, "-" means stdout
func OpenSink(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdout, nil
	}
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
}

func isRewindable(f *os.File) bool {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Encode renders a findings snapshot as a YAML document with explicit start
func Encode(snapshot map[string][]string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(documentStart)

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(snapshot); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the full result store to the sink
func (c *Checkpointer) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := Encode(c.store.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	if !c.rewindable {
		if _, err := c.sink.Write(data); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
		return nil
	}

	if _, err := c.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind %s: %w", c.file.Name(), err)
	}
	if _, err := c.file.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.file.Name(), err)
	}
	if err := c.file.Truncate(int64(len(data))); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", c.file.Name(), err)
	}
	return nil
}

// Rewindable reports whether the sink may be rewritten mid-run
func (c *Checkpointer) Rewindable() bool {
	return c.rewindable
}

// Close closes the sink unless it is a standard stream
func (c *Checkpointer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
