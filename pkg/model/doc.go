// Package model defines the contract between synchronized application state
// and the synchronization layer.
//
// A Model is anything addressable by a locator that can absorb a pushed
// payload and announce that it was synchronized. Resource[T] is the stock
// implementation backed by a typed value:
//
//	game := model.New[Game]("/games/1", model.Persistent(), model.WithSyncer(reg))
//	remove := game.OnSync(func() {
//	    fmt.Println("phase:", game.Get().Phase)
//	})
//	defer remove()
//	if err := game.Fetch(); err != nil {
//	    return err
//	}
//
// # Sync Strategy
//
// How a model reaches the network is decided by its Syncer, injected per
// model (or shared by reference across an application). Nothing in this
// package talks to a transport directly.
package model
