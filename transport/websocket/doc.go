// Package websocket streams race events to spectators.
//
// The package uses a hub-and-spoke model where a central Hub owns every
// connection. All registration, removal and broadcasting happens on the
// goroutine running Hub.Run, so the race map needs no locking. Each client
// has a read pump and a write pump.
//
// Clients subscribe to one race via the query parameter (?race=<id>). They
// receive a snapshot of the race first and then one JSON message per race
// event:
//
//	{"race_id": "3f2a...", "event": "turn", "data": {...race info...}}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("race"), snapshot)
//	})
//
// BroadcastEvent never blocks the caller; a race keeps running even when
// spectators fall behind.
package websocket
