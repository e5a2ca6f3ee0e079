package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/vector-race/game/engine"
	"github.com/wricardo/vector-race/game/geom"
)

func writeFile(t *testing.T, dir, name string, content interface{}) string {
	t.Helper()
	var data []byte
	switch c := content.(type) {
	case string:
		data = []byte(c)
	default:
		var err error
		data, err = json.Marshal(c)
		if err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestFile_ValidTrack(t *testing.T) {
	path := writeFile(t, t.TempDir(), "default.json", engine.DefaultTrack())

	result := File(context.Background(), path)
	if !result.Valid {
		t.Fatalf("Expected valid track, got errors: %v", result.Messages)
	}
	if result.File != "default.json" {
		t.Errorf("File = %q", result.File)
	}

	want := []string{
		"✓ Name: default",
		"✓ Grid: 10x10",
		"✓ Start positions: 2",
		"✓ Finish cells: 2",
		"✓ Fastest finish: 7 turns from (2,0)",
	}
	joined := strings.Join(result.Messages, "\n")
	for _, w := range want {
		if !strings.Contains(joined, w) {
			t.Errorf("missing %q in:\n%s", w, joined)
		}
	}
}

func TestFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	unnamed := engine.DefaultTrack()
	unnamed.Name = ""
	walled := &engine.TrackConfig{
		Name:   "walled",
		Layout: []string{"X X", "XXX", "X X"},
		Start:  []geom.Position{geom.Pos(1, 0)},
		Finish: []geom.Position{geom.Pos(1, 2)},
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"missing file", filepath.Join(dir, "missing.json"), "Failed to read file"},
		{"bad json", writeFile(t, dir, "bad.json", "{not json"), "Invalid JSON"},
		{"no name", writeFile(t, dir, "unnamed.json", unnamed), "name is required"},
		{"unreachable", writeFile(t, dir, "walled.json", walled), "cannot reach the finish line"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := File(context.Background(), tt.path)
			if result.Valid {
				t.Fatal("Expected invalid result")
			}
			if len(result.Messages) == 0 || !strings.Contains(result.Messages[0], tt.wantErr) {
				t.Errorf("Messages = %v, want %q", result.Messages, tt.wantErr)
			}
		})
	}
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", engine.DefaultTrack())
	writeFile(t, dir, "a.json", "[]")
	writeFile(t, dir, "notes.txt", "ignored")

	results, err := Dir(context.Background(), dir)
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].File != "a.json" || results[0].Valid {
		t.Errorf("first result = %+v", results[0])
	}
	if results[1].File != "b.json" || !results[1].Valid {
		t.Errorf("second result = %+v", results[1])
	}
}

func TestDir_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "default.json", engine.DefaultTrack())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Dir(ctx, dir); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}

func TestReport(t *testing.T) {
	valid := Result{File: "good.json", Valid: true, Messages: []string{"✓ Name: good"}}
	invalid := Result{File: "bad.json", Valid: false, Messages: []string{"Invalid JSON: oops"}}

	var buf bytes.Buffer
	if !Report(&buf, []Result{valid}) {
		t.Error("Report should accept valid results")
	}
	if out := buf.String(); !strings.Contains(out, "✅ VALID") || !strings.Contains(out, "✅ All tracks are valid!") {
		t.Errorf("unexpected output:\n%s", out)
	}

	buf.Reset()
	if Report(&buf, []Result{valid, invalid}) {
		t.Error("Report should reject invalid results")
	}
	out := buf.String()
	for _, want := range []string{"❌ INVALID", "  ❌ Invalid JSON: oops", "❌ Some tracks have errors"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}
