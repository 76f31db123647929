package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// stdoutPublisher streams one JSON document per line.
type stdoutPublisher struct {
	id       string
	envelope bool
	mu       sync.Mutex
	enc      *json.Encoder
}

func newStdoutPublisher(_ context.Context, cfg PublisherConfig, _ Logger) (Publisher, error) {
	envelope := cfg.Stdout != nil && cfg.Stdout.Envelope
	return newWriterPublisher(cfg.ID, os.Stdout, envelope), nil
}

func newWriterPublisher(id string, w io.Writer, envelope bool) *stdoutPublisher {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &stdoutPublisher{id: id, envelope: envelope, enc: enc}
}

func (s *stdoutPublisher) ID() string   { return s.id }
func (s *stdoutPublisher) Type() string { return TypeStdout }

func (s *stdoutPublisher) Publish(_ context.Context, evt Event) error {
	var doc any = evt.Item
	if s.envelope {
		doc = evt
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(doc); err != nil {
		return fmt.Errorf("write item: %w", err)
	}
	return nil
}
