// Package engine provides the rules of the vector race.
//
// The engine package implements:
//   - Legal move generation from a car's current move
//   - The turn loop that queries every live player concurrently
//   - Classification of answers into racing, crashed (DNF) and
//     disqualified (DSQ) players
//   - Winner detection, including ties
//
// Core Types:
//
// A Race holds a track.Track and its Entrants. Each Entrant wraps a Player,
// which is asked once per turn to choose among the Options it is offered.
// The race reports its progress as a stream of Events: one per completed
// turn, then a single finish or error event.
//
// Usage:
//
//	race, err := engine.NewRace(t, []engine.Entrant{
//		{Name: "bot", Player: players.Greedy(t), Start: geom.Pos(2, 0)},
//	}, engine.WithMoveTimeout(time.Minute))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for ev := range race.Run(ctx) {
//		log.Printf("turn %d: %s", ev.Turn, ev.Type)
//	}
//
// Game Rules:
//
// Every turn a car may change each component of its velocity by at most
// one. A move is legal when it stays on the track or crosses the finish
// line. A player with no legal moves crashes; a player choosing anything
// else is disqualified. The race ends when at least one racing car crosses
// the finish line, or when nobody is left racing. A player that returns an
// error ends the race for everyone.
package engine
