// Package api provides the HTTP REST API for the vector race server.
//
// Endpoints:
//
// Tracks:
//   - GET /api/tracks - List available tracks
//   - POST /api/tracks - Validate and save a track
//   - GET /api/tracks/{id} - Build a track and return its rows, starts and finish line
//   - GET /api/tracks/{id}/moves?x=&y=&dx=&dy= - Legal moves for a car at (x,y)
//     that arrived with velocity (dx,dy)
//   - POST /api/generate - Generate a track around a curve without saving it
//
// Races:
//   - POST /api/races - Start a race with bot, optimal or scripted drivers
//   - GET /api/races - List races (?status=running&limit=10)
//   - GET /api/races/{id} - Race state
//   - DELETE /api/races/{id} - Cancel and forget a race
//
// Spectating:
//   - GET /ws?race={id} - WebSocket stream of the race's events
//
// Errors are returned as JSON with an HTTP status matching the failure:
// 404 for unknown tracks and races, 400 for invalid tracks and requests,
// 500 otherwise.
//
//	{"error": "track 'nope': track not found. Available tracks: [default]"}
package api
