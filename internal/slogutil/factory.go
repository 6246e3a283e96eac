package slogutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bazi/internal/config"
)

// FromConfig builds the process logger: console output on w in the
// configured format, plus a rotating file copy when logging.file is set.
// level is shared so a config reload can adjust it in place. The returned
// closer is nil when no file is open.
func FromConfig(cfg config.LoggingConfig, w io.Writer, level *slog.LevelVar) (*slog.Logger, io.Closer, error) {
	level.Set(LevelFromString(cfg.Level))
	console := newHandler(w, cfg.Format, level)
	if cfg.File == "" {
		return slog.New(console), nil, nil
	}

	file, err := openLogFile(cfg.File, cfg.MaxSize, cfg.MaxBackups)
	if err != nil {
		return nil, nil, err
	}
	tee := NewTeeHandler(console, NewBaziHandler(file, &slog.HandlerOptions{Level: level}))
	return slog.New(tee), file, nil
}

func newHandler(w io.Writer, format string, level slog.Leveler) slog.Handler {
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return NewBaziHandler(w, &slog.HandlerOptions{Level: level})
}

func openLogFile(path, maxSize string, maxBackups int) (io.WriteCloser, error) {
	if size := ParseSize(maxSize); size > 0 {
		return OpenRotatingFile(path, size, maxBackups)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
