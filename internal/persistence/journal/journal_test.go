package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestActionLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewActionLogger(dir)

	entries := []ActionEntry{
		{At: Now(), PlayerID: "p1", Action: "dig", OK: true, Depth: 0, Stamina: 99},
		{At: Now(), PlayerID: "p1", Action: "dig", OK: false, Code: "E_OUT_OF_STAMINA", Depth: 3},
	}
	for _, e := range entries {
		if err := l.WriteAction(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "actions", "*.jsonl.zst"))
	if err != nil || len(files) != 1 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	f, err := os.Open(files[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	var got []ActionEntry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e ActionEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal %q: %v", sc.Text(), err)
		}
		got = append(got, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("read %d entries, want %d", len(got), len(entries))
	}
	if got[1].Code != "E_OUT_OF_STAMINA" || got[0].Stamina != 99 {
		t.Fatalf("entries corrupted: %+v", got)
	}
}

func TestSurfaceLoggerWritesUnderOwnDir(t *testing.T) {
	dir := t.TempDir()
	l := NewSurfaceLogger(dir)
	e := SurfaceEntry{
		At: Now(), PlayerID: "p2", Reason: "reaped", Committed: true,
		Items: map[string]int{"iron": 2}, Coins: 30, DeepestDepth: 11, StaminaSpent: 40,
	}
	if err := l.WriteSurface(e); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	files, _ := filepath.Glob(filepath.Join(dir, "surfacings", "surfacings-*.jsonl.zst"))
	if len(files) != 1 {
		t.Fatalf("files=%v", files)
	}
}
