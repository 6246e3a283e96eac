package api

import (
	"net/http"
	"time"

	"bazi/internal/chart"
	"bazi/internal/errors"
	"bazi/internal/reverse"
	"bazi/internal/streaming"
)

// handleReverseStream handles POST /reverse/stream. Request errors are
// answered as plain JSON errors; once the stream opens, failures arrive as an
// error event.
func (s *Server) handleReverseStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, http.MethodPost)
		return
	}

	var req ReverseRequest
	if err := decodeJSON(r, &req, errors.InvalidRequest); err != nil {
		WriteBaziError(w, err)
		return
	}
	scope, err := req.scope(s.deps.ReverseRange)
	if err != nil {
		WriteBaziError(w, err)
		return
	}

	// Wide ranges outlive the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	stream := streaming.NewStream(r.Context(), s.deps.Stream)
	go func() {
		consistent := reverse.Consistent(scope.Targets)
		if err := stream.SendMeta(streaming.MetaData{
			Targets:    scope.Targets,
			Range:      scope.Range,
			Consistent: consistent,
		}); err != nil {
			stream.Close()
			return
		}

		opts := reverse.Options{Progress: func(done, total int) {
			_ = stream.SendProgress("scan", done, total)
		}}
		matches, err := chart.ReverseSearch(stream.Context(), scope.Targets, scope.Range, opts)
		if err != nil {
			s.logger.Debug("Reverse stream stopped", "targets", scope.Targets.String(), "error", err)
			_ = stream.SendError(string(errors.CodeOf(err)), err.Error(), "")
			return
		}
		_ = streaming.StreamSlice(stream, matches, false)
	}()

	if err := streaming.WriteSSE(w, stream); err != nil {
		s.logger.Warn("Reverse stream write failed", "streamId", stream.ID, "error", err)
	}
}
