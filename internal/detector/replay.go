package detector

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// ReplaySource yields frames recorded as JSON lines, one Frame per line.
// Blank lines are skipped.
type ReplaySource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

// NewReplaySource creates a ReplaySource reading from r.
func NewReplaySource(r io.Reader) *ReplaySource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	src := &ReplaySource{scanner: scanner}
	if c, ok := r.(io.Closer); ok {
		src.closer = c
	}
	return src
}

// OpenReplay opens a JSONL recording from disk.
func OpenReplay(path string) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	return NewReplaySource(f), nil
}

// Next returns the next recorded frame, or ErrEndOfStream once exhausted.
func (s *ReplaySource) Next(ctx context.Context) (*Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, fmt.Errorf("read replay: %w", err)
			}
			return nil, ErrEndOfStream
		}
		s.line++

		data := s.scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("replay line %d: %w", s.line, err)
		}
		return &frame, nil
	}
}

// Close closes the underlying reader if it is closable.
func (s *ReplaySource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Recorder writes frames as JSON lines so sessions can be replayed later.
type Recorder struct {
	mu  sync.Mutex
	w   *bufio.Writer
	f   io.Closer
	enc *json.Encoder
}

// NewRecorder creates a Recorder writing to w.
func NewRecorder(w io.Writer) *Recorder {
	bw := bufio.NewWriter(w)
	rec := &Recorder{w: bw, enc: json.NewEncoder(bw)}
	if c, ok := w.(io.Closer); ok {
		rec.f = c
	}
	return rec
}

// CreateRecording creates (or truncates) a JSONL recording on disk.
func CreateRecording(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}
	return NewRecorder(f), nil
}

// Write appends one frame.
func (r *Recorder) Write(frame *Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(frame); err != nil {
		return fmt.Errorf("record frame: %w", err)
	}
	return nil
}

// Close flushes buffered frames and closes the underlying writer.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.w.Flush(); err != nil {
		return fmt.Errorf("flush recording: %w", err)
	}
	if r.f != nil {
		return r.f.Close()
	}
	return nil
}
