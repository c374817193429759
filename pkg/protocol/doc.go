// Package protocol implements the JSON wire protocol spoken between the
// dippy client and the game server over a duplex channel.
//
// The protocol is deliberately small. The client only ever sends control
// frames that register or drop interest in a resource, and the server pushes
// resource snapshots back whenever they change.
//
// # Wire Format
//
// Outbound control frames (client → server):
//
//	{ "Type": "subscribe",   "Subscribe": { "URI": "/games/1" } }
//	{ "Type": "unsubscribe", "Subscribe": { "URI": "/games/1" } }
//
// Inbound push frames (server → client):
//
//	{ "Type": "Fetch", "Object": { "URL": "/games/1", "Data": { ... } } }
//
// # Decoding
//
// Inbound frames are decoded exactly once, at the transport boundary, into a
// closed set of variants:
//
//   - *Fetch: a push carrying a resource locator and its payload
//   - *Unaddressed: a frame without a locator (not routable)
//   - *Unknown: an addressed frame of a type the client does not act on
//
// Callers switch on the concrete type (or on Inbound.Kind) and never inspect
// raw JSON themselves:
//
//	in, err := protocol.DecodeInbound(raw)
//	if err != nil {
//	    return err
//	}
//	switch msg := in.(type) {
//	case *protocol.Fetch:
//	    apply(msg.Locator, msg.Data)
//	case *protocol.Unaddressed, *protocol.Unknown:
//	    // log and move on
//	}
package protocol
