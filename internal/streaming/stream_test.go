package streaming

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func collect(s *Stream) []Event {
	var events []Event
	for ev := range s.Events() {
		if ev.Type != EventHeartbeat {
			events = append(events, ev)
		}
	}
	return events
}

func TestNewStream(t *testing.T) {
	t.Parallel()

	stream := NewStream(context.Background(), StreamConfig{})
	defer stream.Close()

	if stream.ID == "" {
		t.Error("stream should have an ID")
	}
	if stream.ChunkSize() != 50 {
		t.Errorf("ChunkSize() = %d, want 50", stream.ChunkSize())
	}
	if stream.IsClosed() {
		t.Error("stream should not be closed initially")
	}
}

func TestStreamSendMeta(t *testing.T) {
	t.Parallel()

	stream := NewStream(context.Background(), StreamConfig{ChunkSize: 7})
	defer stream.Close()

	if err := stream.SendMeta(MetaData{Consistent: true}); err != nil {
		t.Fatalf("SendMeta() error = %v", err)
	}
	event := <-stream.Events()
	meta, ok := event.Data.(MetaData)
	if event.Type != EventMeta || !ok {
		t.Fatalf("event = %+v, want meta", event)
	}
	if meta.StreamID != stream.ID || meta.ChunkSize != 7 || !meta.Consistent {
		t.Errorf("meta = %+v", meta)
	}
}

func TestStreamSendProgress(t *testing.T) {
	t.Parallel()

	stream := NewStream(context.Background(), DefaultConfig())
	defer stream.Close()

	if err := stream.SendProgress("scan", 30, 120); err != nil {
		t.Fatalf("SendProgress() error = %v", err)
	}
	progress := (<-stream.Events()).Data.(ProgressData)
	if progress.Phase != "scan" || progress.Percentage != 25 {
		t.Errorf("progress = %+v, want scan at 25%%", progress)
	}
}

func TestStreamSlice(t *testing.T) {
	t.Parallel()

	stream := NewStream(context.Background(), StreamConfig{ChunkSize: 2})
	go func() {
		_ = StreamSlice(stream, []int{1, 2, 3, 4, 5}, false)
	}()

	events := collect(stream)
	if len(events) != 4 {
		t.Fatalf("got %d events, want 3 chunks and done", len(events))
	}
	for i, ev := range events[:3] {
		chunk := ev.Data.(ChunkData)
		if chunk.Sequence != i+1 {
			t.Errorf("chunk %d sequence = %d", i, chunk.Sequence)
		}
		if chunk.HasMore != (i < 2) {
			t.Errorf("chunk %d hasMore = %v", i, chunk.HasMore)
		}
	}
	done := events[3].Data.(DoneData)
	if events[3].Type != EventDone || done.TotalItems != 5 {
		t.Errorf("last event = %+v, want done with 5 items", events[3])
	}
	if !stream.IsClosed() {
		t.Error("stream should be closed after done")
	}
}

func TestStreamSliceEmpty(t *testing.T) {
	t.Parallel()

	stream := NewStream(context.Background(), DefaultConfig())
	go func() {
		_ = StreamSlice(stream, []string{}, false)
	}()

	events := collect(stream)
	if len(events) != 1 || events[0].Type != EventDone {
		t.Errorf("events = %+v, want a single done", events)
	}
}

func TestStreamSendError(t *testing.T) {
	t.Parallel()

	stream := NewStream(context.Background(), DefaultConfig())
	go func() {
		_ = stream.SendError("INVALID_RANGE", "range 2000-1990 is empty", "")
	}()

	events := collect(stream)
	if len(events) != 1 || events[0].Type != EventError {
		t.Fatalf("events = %+v, want a single error", events)
	}
	if got := events[0].Data.(ErrorData).Code; got != "INVALID_RANGE" {
		t.Errorf("code = %q", got)
	}
}

func TestStreamClose(t *testing.T) {
	t.Parallel()

	stream := NewStream(context.Background(), DefaultConfig())
	stream.Close()
	stream.Close()

	if !stream.IsClosed() {
		t.Error("stream should be closed")
	}
	if err := stream.SendMeta(MetaData{}); err == nil {
		t.Error("expected error sending to closed stream")
	}
	if stream.Context().Err() == nil {
		t.Error("Close should cancel the stream context")
	}
}

func TestStreamContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	stream := NewStream(ctx, DefaultConfig())
	defer stream.Close()
	cancel()

	if err := stream.SendMeta(MetaData{}); err == nil {
		t.Error("expected error when context is cancelled")
	}
}

func TestCloseUnblocksFullBuffer(t *testing.T) {
	t.Parallel()

	stream := NewStream(context.Background(), StreamConfig{MaxBuffer: 1})
	if err := stream.SendProgress("scan", 1, 2); err != nil {
		t.Fatalf("SendProgress() error = %v", err)
	}

	blocked := make(chan error, 1)
	go func() { blocked <- stream.SendProgress("scan", 2, 2) }()

	time.Sleep(20 * time.Millisecond)
	stream.Close()

	select {
	case err := <-blocked:
		if err == nil {
			t.Error("send into a full, closed stream should fail")
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock the pending send")
	}
}

func TestHeartbeat(t *testing.T) {
	t.Parallel()

	stream := NewStream(context.Background(), StreamConfig{HeartbeatPeriod: 5 * time.Millisecond})
	defer stream.Close()

	select {
	case ev := <-stream.Events():
		if ev.Type != EventHeartbeat {
			t.Errorf("event = %s, want heartbeat", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("no heartbeat")
	}
}

func TestChunkSlice(t *testing.T) {
	tests := []struct {
		items []int
		size  int
		want  int
	}{
		{nil, 3, 0},
		{[]int{1, 2, 3}, 3, 1},
		{[]int{1, 2, 3, 4}, 3, 2},
		{make([]int, 120), 0, 3},
	}
	for _, tt := range tests {
		if got := len(ChunkSlice(tt.items, tt.size)); got != tt.want {
			t.Errorf("ChunkSlice(%d items, %d) = %d chunks, want %d", len(tt.items), tt.size, got, tt.want)
		}
	}
}

func TestWriteSSE(t *testing.T) {
	t.Parallel()

	stream := NewStream(context.Background(), DefaultConfig())
	go func() {
		_ = stream.SendProgress("scan", 1, 1)
		_ = StreamSlice(stream, []string{"1990-05-15"}, false)
	}()

	rec := httptest.NewRecorder()
	if err := WriteSSE(rec, stream); err != nil {
		t.Fatalf("WriteSSE() error = %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"event: progress\ndata: {\"current\":1,\"percentage\":100,\"phase\":\"scan\",\"total\":1}\n\n",
		"event: chunk\ndata: {\"count\":1,\"hasMore\":false,\"items\":[\"1990-05-15\"],\"sequence\":1}\n\n",
		"event: done\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}
