// Package transport implements the duplex channel over a WebSocket
// connection using gorilla/websocket.
//
// A Conn satisfies bridge.Channel. ReadLoop hands every inbound frame to a
// Dispatcher (normally the client run loop), which invokes the installed
// handler; Heartbeat keeps the connection alive with pings. Frames are JSON
// text messages.
//
// The connection is not re-established when it drops: ReadLoop returns and
// the caller decides what to do.
package transport
