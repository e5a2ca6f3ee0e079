// Package service provides the business logic layer for the vector race.
//
// The service package implements:
//   - Track catalogue queries and track generation
//   - Legal move lookups for any car position and velocity
//   - Race orchestration with bot, optimal and scripted drivers
//   - Race lifecycle management and spectator broadcasting
//
// Core Interfaces:
//
// RaceService is the main service interface providing high-level race operations.
// RaceStore keeps the races started by the service.
// ConfigManager loads, lists and saves track configurations.
// Broadcaster receives every race event, typically the websocket hub.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the race engine. Each race runs in its own goroutine; the engine events it
// produces are folded into the stored Race and forwarded to the broadcaster.
//
// Usage:
//
//	races := session.NewManager()
//	configs, _ := config.NewManager("tracks")
//	raceService := service.NewRaceService(races, configs, service.WithBroadcaster(hub))
//
//	// Race two bots on the default track
//	info, err := raceService.StartRace(ctx, service.StartRaceRequest{
//		Drivers: []service.Driver{{Name: "a"}, {Name: "b"}},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Poll the race
//	info, err = raceService.GetRace(ctx, info.ID)
//
// Drivers:
//
// A driver is a bot, which follows the shortest on-track path to the finish
// line, an optimal driver, which follows a route with the fewest turns, or a
// scripted driver replaying a list of velocities. Drivers
// without an explicit start take the track's start positions in turn.
package service
