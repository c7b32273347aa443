// Package voice records voice notes from an audio source.
package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultMimeType  = "audio/webm"
	defaultChunkSize = 4096
)

var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrInvalidState     = errors.New("invalid recorder state")
)

type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// SourceOpener opens the capture device. Closing the returned reader must
// unblock a pending Read.
type SourceOpener func(ctx context.Context) (io.ReadCloser, error)

// Recording is a finished voice note.
type Recording struct {
	Data     []byte
	Duration time.Duration
	MimeType string
}

type Option func(*Recorder)

func WithMimeType(mimeType string) Option {
	return func(r *Recorder) { r.mimeType = mimeType }
}

func WithChunkSize(size int) Option {
	return func(r *Recorder) {
		if size > 0 {
			r.chunkSize = size
		}
	}
}

// WithClock replaces time.Now for measuring duration.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// Recorder captures audio with start/pause/resume/stop/cancel. Audio read
// while paused is discarded and paused time does not count towards the
// duration.
type Recorder struct {
	open      SourceOpener
	mimeType  string
	chunkSize int
	now       func() time.Time

	mu        sync.Mutex
	state     State
	opening   bool
	src       io.ReadCloser
	closing   bool
	buf       bytes.Buffer
	started   time.Time
	elapsed   time.Duration
	processed int
	readErr   error
	done      chan struct{}
}

func NewRecorder(open SourceOpener, opts ...Option) *Recorder {
	r := &Recorder{
		open:      open,
		mimeType:  DefaultMimeType,
		chunkSize: defaultChunkSize,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start opens the source and begins capturing. It is allowed from idle and
// after a previous recording was stopped. The source is opened without
// holding the recorder lock; a second Start while it opens fails with
// ErrAlreadyRecording.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.opening || r.state == StateRecording || r.state == StatePaused {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	r.opening = true
	r.mu.Unlock()

	src, err := r.open(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.opening = false
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}

	if r.state == StateRecording || r.state == StatePaused {
		src.Close()
		return ErrAlreadyRecording
	}

	r.src = src
	r.closing = false
	r.buf.Reset()
	r.started = r.now()
	r.elapsed = 0
	r.processed = 0
	r.readErr = nil
	r.done = make(chan struct{})
	r.state = StateRecording

	go r.capture(src, r.done)

	slog.Debug("[VOICE] Recording started", "mimeType", r.mimeType)
	return nil
}

func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return fmt.Errorf("%w: pause while %s", ErrInvalidState, r.state)
	}

	r.elapsed += r.now().Sub(r.started)
	r.state = StatePaused
	return nil
}

func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePaused {
		return fmt.Errorf("%w: resume while %s", ErrInvalidState, r.state)
	}

	r.started = r.now()
	r.state = StateRecording
	return nil
}

// Stop ends the recording and waits for the capture to drain before
// returning the audio. If ctx ends first, the recording is lost.
func (r *Recorder) Stop(ctx context.Context) (Recording, error) {
	done, err := r.finish(StateStopped)
	if err != nil {
		return Recording{}, err
	}

	select {
	case <-done:
	case <-ctx.Done():
		return Recording{}, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.readErr != nil {
		return Recording{}, fmt.Errorf("capture: %w", r.readErr)
	}

	rec := Recording{
		Data:     bytes.Clone(r.buf.Bytes()),
		Duration: r.elapsed,
		MimeType: r.mimeType,
	}
	r.buf.Reset()

	slog.Debug("[VOICE] Recording stopped", "bytes", len(rec.Data), "duration", rec.Duration)
	return rec, nil
}

// Cancel discards the current recording and returns to idle.
func (r *Recorder) Cancel() error {
	done, err := r.finish(StateIdle)
	if err != nil {
		return err
	}

	<-done

	r.mu.Lock()
	r.buf.Reset()
	r.elapsed = 0
	r.mu.Unlock()

	slog.Debug("[VOICE] Recording cancelled")
	return nil
}

func (r *Recorder) finish(next State) (chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateRecording:
		r.elapsed += r.now().Sub(r.started)
	case StatePaused:
	default:
		return nil, fmt.Errorf("%w: finish while %s", ErrInvalidState, r.state)
	}

	r.state = next
	r.closing = true
	if err := r.src.Close(); err != nil {
		slog.Warn("[VOICE] Failed to close source", "error", err)
	}

	return r.done, nil
}

func (r *Recorder) capture(src io.Reader, done chan struct{}) {
	defer close(done)

	p := make([]byte, r.chunkSize)
	for {
		n, err := src.Read(p)

		r.mu.Lock()
		current := r.done == done
		if n > 0 && current {
			r.processed++
			if r.state == StateRecording {
				r.buf.Write(p[:n])
			}
		}
		if err != nil && current && !r.closing && !errors.Is(err, io.EOF) {
			r.readErr = err
			slog.Error("[VOICE] Capture failed", "error", err)
		}
		r.mu.Unlock()

		if err != nil {
			return
		}
	}
}
