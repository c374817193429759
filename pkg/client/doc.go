// Package client is the composition root of a dippy client.
//
// A Client owns one run loop, one cache facade, one connection bridge, one
// subscription registry and one view runtime. Everything that touches the
// registry, the cache facade or the view tree runs on the loop:
//
//	c, err := client.New(client.Config{URL: "wss://games.example.com/ws"},
//	    client.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	if err := c.Connect(ctx); err != nil {
//	    return err
//	}
//	go c.Run(ctx)
//
//	err = c.Do(ctx, func() error {
//	    _, err := c.Views().Mount(host, gameView)
//	    return err
//	})
//
// NewWithChannel builds a client over an existing bridge.Channel, which is
// how tests and embedders drive the client without a network connection.
package client
