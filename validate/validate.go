// Package validate checks track configuration files before they are
// served. It checks:
//   - JSON structure and required fields
//   - Layout row lengths and track size
//   - Start and finish positions lie on the track
//   - Every start can reach the finish line
//   - A car starting from rest can actually finish the race
package validate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/vector-race/game/engine"
	"github.com/wricardo/vector-race/game/solver"
)

// searchLimit bounds the route search per file.
const searchLimit = 1 << 18

// Result captures the outcome of validating a single file. If Valid is
// true, Messages holds informational lines; otherwise it accumulates the
// errors that were found.
type Result struct {
	File     string
	Valid    bool
	Messages []string
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

func (r *Result) info(format string, args ...interface{}) {
	r.Messages = append(r.Messages, "✓ "+fmt.Sprintf(format, args...))
}

// File loads and validates a single track file.
func File(ctx context.Context, path string) Result {
	result := Result{File: filepath.Base(path), Valid: true, Messages: []string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.TrackConfig
	if err := json.Unmarshal(data, &config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}
	if err := engine.ValidateTrackConfig(&config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "track validation: "))
		return result
	}

	t, starts, err := config.Build()
	if err != nil {
		result.fail("%v", err)
		return result
	}
	if len(starts) == 0 {
		result.fail("Track has no start positions")
		return result
	}

	result.info("Name: %s", config.Name)
	size := t.Size()
	result.info("Grid: %dx%d", size.Width, size.Height)
	result.info("Start positions: %d", len(starts))
	result.info("Finish cells: %d", len(t.FinishLine()))

	route, err := solver.Solve(ctx, t, starts[0], solver.WithMaxStates(searchLimit))
	switch {
	case err == nil:
		result.info("Fastest finish: %d turns from %s", route.Turns(), starts[0])
	case errors.Is(err, solver.ErrNoRoute):
		result.fail("No car starting at %s can finish the race", starts[0])
	case errors.Is(err, solver.ErrSearchLimit):
		result.info("Fastest finish: not found within %d states", searchLimit)
	default:
		result.fail("Route search failed: %v", err)
	}
	return result
}

// Dir validates every *.json file in dir, sorted by name.
func Dir(ctx context.Context, dir string) ([]Result, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list track files: %w", err)
	}
	sort.Strings(files)

	results := make([]Result, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, File(ctx, file))
	}
	return results, nil
}

// Report prints results to w and reports whether all of them are valid.
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Messages {
				fmt.Fprintln(w, "  "+info)
			}
			continue
		}

		fmt.Fprintln(w, "❌ INVALID")
		allValid = false
		for _, msg := range result.Messages {
			if !strings.HasPrefix(msg, "✓") {
				fmt.Fprintln(w, "  ❌ "+msg)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All tracks are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some tracks have errors")
	}
	return allValid
}
