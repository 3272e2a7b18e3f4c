// Package websocket pushes game state to browsers and other observers.
//
// A central Hub keeps the connected clients grouped by profile. Every
// command the session manager runs for a profile is broadcast to that
// profile's clients as a state_update event, so a spectator sees an SSH or
// REST game move in real time.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//	manager.OnChange(hub.BroadcastState)
//	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, profile, &state)
//	})
//
// Clients only receive; anything they send is read and discarded to keep
// the connection alive.
package websocket
