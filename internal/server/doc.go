// Package server is the HTTP face of the chat core.
//
// It stays deliberately thin: request parsing, WebSocket upgrades, and
// response rendering live here, while rooms, admission, fan-out, and
// session lifecycles live in internal/chat. The server talks to the core
// through two operations only: admitting a participant to a room and
// publishing a message to it.
package server
