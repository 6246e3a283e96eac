// Package streaming delivers long reverse searches as server-sent events:
// a meta event, progress while years are scanned, the matches in chunks, and
// a final done or error event.
package streaming

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of streaming event.
type EventType string

const (
	EventMeta      EventType = "meta"
	EventProgress  EventType = "progress"
	EventChunk     EventType = "chunk"
	EventDone      EventType = "done"
	EventError     EventType = "error"
	EventHeartbeat EventType = "heartbeat"
)

// Event is a single streaming event.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

// MetaData opens a stream and describes what is being searched.
type MetaData struct {
	StreamID   string      `json:"streamId"`
	Targets    interface{} `json:"targets,omitempty"`
	Range      interface{} `json:"range,omitempty"`
	Consistent bool        `json:"consistent"`
	ChunkSize  int         `json:"chunkSize"`
}

// ChunkData carries a batch of matches.
type ChunkData struct {
	Sequence int         `json:"sequence"`
	Items    interface{} `json:"items"`
	Count    int         `json:"count"`
	HasMore  bool        `json:"hasMore"`
}

// ProgressData reports scanned years.
type ProgressData struct {
	Phase      string  `json:"phase"`
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// DoneData signals stream completion.
type DoneData struct {
	TotalItems int   `json:"totalItems"`
	ElapsedMs  int64 `json:"elapsedMs"`
	Truncated  bool  `json:"truncated"`
}

// ErrorData contains error information.
type ErrorData struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Remediation string `json:"remediation,omitempty"`
}

// HeartbeatData keeps the connection alive.
type HeartbeatData struct {
	Sequence int `json:"seq"`
}

// Stream is an active streaming session. Producers call the Send methods;
// a single consumer drains Events.
type Stream struct {
	ID        string
	StartedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc

	events chan Event

	chunkSize       int
	heartbeatPeriod time.Duration

	mu           sync.Mutex
	sequence     int
	totalSent    int
	closed       bool
	heartbeatSeq int
}

// StreamConfig configures stream behavior.
type StreamConfig struct {
	ChunkSize       int           // matches per chunk (default: 50)
	MaxBuffer       int           // buffered events (default: 64)
	HeartbeatPeriod time.Duration // default: 15s
}

// DefaultConfig returns default streaming configuration.
func DefaultConfig() StreamConfig {
	return StreamConfig{
		ChunkSize:       50,
		MaxBuffer:       64,
		HeartbeatPeriod: 15 * time.Second,
	}
}

// NewStream creates a streaming session bound to ctx.
func NewStream(ctx context.Context, config StreamConfig) *Stream {
	def := DefaultConfig()
	if config.ChunkSize <= 0 {
		config.ChunkSize = def.ChunkSize
	}
	if config.MaxBuffer <= 0 {
		config.MaxBuffer = def.MaxBuffer
	}
	if config.HeartbeatPeriod <= 0 {
		config.HeartbeatPeriod = def.HeartbeatPeriod
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		ID:              uuid.NewString(),
		StartedAt:       time.Now(),
		ctx:             ctx,
		cancel:          cancel,
		events:          make(chan Event, config.MaxBuffer),
		chunkSize:       config.ChunkSize,
		heartbeatPeriod: config.HeartbeatPeriod,
	}
	go s.heartbeatLoop()
	return s
}

// Events returns the event channel. It is closed by Close.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Context returns the stream's context.
func (s *Stream) Context() context.Context {
	return s.ctx
}

// ChunkSize returns the configured chunk size.
func (s *Stream) ChunkSize() int {
	return s.chunkSize
}

// SendMeta sends stream metadata.
func (s *Stream) SendMeta(meta MetaData) error {
	meta.StreamID = s.ID
	meta.ChunkSize = s.chunkSize
	return s.send(Event{Type: EventMeta, Data: meta})
}

// SendChunk sends a chunk of items.
func (s *Stream) SendChunk(items interface{}, count int, hasMore bool) error {
	s.mu.Lock()
	s.sequence++
	seq := s.sequence
	s.totalSent += count
	s.mu.Unlock()

	return s.send(Event{
		Type: EventChunk,
		Data: ChunkData{Sequence: seq, Items: items, Count: count, HasMore: hasMore},
	})
}

// SendProgress sends a progress update.
func (s *Stream) SendProgress(phase string, current, total int) error {
	var pct float64
	if total > 0 {
		pct = float64(current) / float64(total) * 100
	}
	return s.send(Event{
		Type: EventProgress,
		Data: ProgressData{Phase: phase, Current: current, Total: total, Percentage: pct},
	})
}

// SendDone signals completion and closes the stream.
func (s *Stream) SendDone(truncated bool) error {
	s.mu.Lock()
	total := s.totalSent
	s.mu.Unlock()

	err := s.send(Event{
		Type: EventDone,
		Data: DoneData{
			TotalItems: total,
			ElapsedMs:  time.Since(s.StartedAt).Milliseconds(),
			Truncated:  truncated,
		},
	})
	s.Close()
	return err
}

// SendError signals a fatal error and closes the stream.
func (s *Stream) SendError(code, message, remediation string) error {
	err := s.send(Event{
		Type: EventError,
		Data: ErrorData{Code: code, Message: message, Remediation: remediation},
	})
	s.Close()
	return err
}

// Close cancels the stream's context and closes the event channel. Events
// already buffered stay readable. Safe to call more than once.
func (s *Stream) Close() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}

// IsClosed returns true if the stream is closed.
func (s *Stream) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// send holds the lock across the channel send so Close cannot close the
// channel underneath it; a full buffer unblocks when the context ends.
func (s *Stream) send(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("stream closed")
	}
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.events <- event:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

func (s *Stream) heartbeatLoop() {
	ticker := time.NewTicker(s.heartbeatPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return
			}
			s.heartbeatSeq++
			select {
			case s.events <- Event{Type: EventHeartbeat, Data: HeartbeatData{Sequence: s.heartbeatSeq}}:
			default:
				// buffer full, skip
			}
			s.mu.Unlock()
		}
	}
}
