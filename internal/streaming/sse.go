package streaming

import (
	"fmt"
	"net/http"

	"bazi/internal/output"
)

// WriteSSE drains the stream onto w as text/event-stream until the stream
// closes. A failed write closes the stream so the producer stops.
func WriteSSE(w http.ResponseWriter, s *Stream) error {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	for ev := range s.Events() {
		if err := writeEvent(w, ev); err != nil {
			s.Close()
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	return nil
}

func writeEvent(w http.ResponseWriter, ev Event) error {
	data, err := output.DeterministicEncode(ev.Data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}
