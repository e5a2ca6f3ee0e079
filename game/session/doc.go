// Package session provides the race registry for the vector race.
//
// The session package implements:
//   - Thread-safe race storage and retrieval
//   - Unique race ID generation
//   - Expiry of races nobody has looked at for a while
//
// Core Types:
//
// Manager is the registry that satisfies service.RaceStore. It keeps
// *service.Race values in memory only; race history is not persisted.
//
// Race Identifiers:
//
// Races are identified by random UUIDs unless the caller picks an ID.
// Lookups are case-insensitive.
//
// Usage:
//
//	races := session.NewManager()
//	raceService := service.NewRaceService(races, configs)
//
//	// Periodically drop stale races
//	removed := races.CleanupExpiredRaces(time.Hour)
package session
