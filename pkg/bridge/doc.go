// Package bridge connects resource models to the duplex channel.
//
// A Bridge owns the outbound path (encoding subscribe and unsubscribe
// controls) and the inbound path: every frame is decoded once, a Fetch
// push is routed to the model that owns its locator, applied, announced
// with a sync event and, for persistent models, written to the cache.
//
// The bridge chains onto whatever handler the channel already had. That
// handler is called after local processing for every frame, including
// frames the bridge could not decode or route, so several bridges (or a
// bridge plus an application handler) can share one channel.
package bridge
