// Package mcp exposes the vector race to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes a REST request
// against the race server, and the JSON answer is rendered as text an
// agent can read.
//
// MCP Tools:
//   - race_instructions: Rules, coordinate conventions and tips
//   - list_tracks, describe_track: Track discovery and grids
//   - legal_moves: Moves open to a car at a position with a velocity
//   - generate_track, save_track: Track creation
//   - start_race, race_status, list_races, cancel_race: Racing
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer()) for local MCP clients
//   - HTTP: POST /mcp on the race server, handled by MCPServer.HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
