// Package config provides track configuration management for the vector race.
//
// The config package handles:
//   - Loading track configurations from JSON files
//   - Track validation, including reachability of the finish line
//   - Default track management
//   - Track discovery, listing and saving
//
// Configuration Format:
//
// Tracks are stored as JSON files in the tracks directory, one per file,
// and are identified by the file name without its extension. Each track
// either draws its grid row by row or describes a generator:
//
//	{
//	  "name": "loop",
//	  "layout": ["XXXX", "X  X", "X  X"],
//	  "start": [{"x": 1, "y": 0}],
//	  "finish": [{"x": 2, "y": 0}]
//	}
//
//	{
//	  "name": "bend",
//	  "generator": {
//	    "width": 21, "height": 21, "corridor_width": 6,
//	    "curve": {"type": "arc", "center": {"x": 11, "y": 0}, "a": 6, "b": 16,
//	              "start_angle": 3.14159, "end_angle": 0, "direction": -1}
//	  }
//	}
//
// Layout rows are written top row first; a space is track, anything else
// is wall. Generated tracks derive their start and finish lines from the
// curve.
//
// Usage:
//
//	manager, err := config.NewManager("tracks")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load a specific track
//	track, err := manager.LoadConfig("bend")
//
//	// Get the default track
//	defaultTrack := manager.GetDefault()
//
//	// List available tracks
//	tracks, err := manager.ListConfigs()
//
// The built-in 10x10 loop is served as "default" until a default.json is
// saved.
package config
