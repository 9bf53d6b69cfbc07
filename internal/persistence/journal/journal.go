// Package journal appends compressed JSONL records of every dig action and
// surfacing. The journal is an audit trail; the sqlite store remains the
// source of truth for balances.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ActionEntry records one session operation and its outcome.
type ActionEntry struct {
	At       string `json:"at"`
	PlayerID string `json:"player_id"`
	Action   string `json:"action"`
	Dir      string `json:"dir,omitempty"`
	Powerup  string `json:"powerup,omitempty"`
	OK       bool   `json:"ok"`
	Code     string `json:"code,omitempty"`
	Depth    int    `json:"depth"`
	Stamina  int    `json:"stamina"`
}

// SurfaceEntry records the terminal state of a session.
type SurfaceEntry struct {
	At           string         `json:"at"`
	PlayerID     string         `json:"player_id"`
	Reason       string         `json:"reason"` // "surface" or "reaped"
	Committed    bool           `json:"committed"`
	Items        map[string]int `json:"items,omitempty"`
	Coins        int            `json:"coins"`
	DeepestDepth int            `json:"deepest_depth"`
	StaminaSpent int            `json:"stamina_spent"`
}

type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	dir := filepath.Dir(w.pathForHour(hour))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// ActionLogger writes one entry per session operation (compressed).
type ActionLogger struct{ w *JSONLZstdWriter }

func NewActionLogger(dataDir string) *ActionLogger {
	return &ActionLogger{w: NewJSONLZstdWriter(filepath.Join(dataDir, "actions"), "actions")}
}

func (l *ActionLogger) WriteAction(v ActionEntry) error { return l.w.Write(v) }
func (l *ActionLogger) Close() error                    { return l.w.Close() }

// SurfaceLogger writes one entry per finished session (compressed).
type SurfaceLogger struct{ w *JSONLZstdWriter }

func NewSurfaceLogger(dataDir string) *SurfaceLogger {
	return &SurfaceLogger{w: NewJSONLZstdWriter(filepath.Join(dataDir, "surfacings"), "surfacings")}
}

func (l *SurfaceLogger) WriteSurface(v SurfaceEntry) error { return l.w.Write(v) }
func (l *SurfaceLogger) Close() error                      { return l.w.Close() }

// Now formats a timestamp the way journal entries expect it.
func Now() string { return time.Now().UTC().Format(time.RFC3339Nano) }
