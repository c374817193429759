// Package view implements the disposable view tree that owns subscriptions.
//
// A Node is one unit of rendered structure. It owns its child nodes, the
// models it fetched and the sync listeners it registered. Cleaning a node
// tears down its whole subtree depth-first before releasing its own
// subscriptions, so nothing a view started outlives it.
//
// # Render Passes
//
// DoRender runs a node's RenderFunc with a Scope:
//
//	game := model.New[Game]("/games/1", model.WithSyncer(reg))
//
//	root := rt.New(func(s *view.Scope) error {
//	    if err := s.Fetch(game); err != nil {
//	        return err
//	    }
//	    s.Listen(game, s.Rerender)
//	    s.Printf("Phase: %s\n", game.Get().Phase)
//	    _, err := s.Render(controlsView(game))
//	    return err
//	}, view.OnHost(stdout))
//	root.DoRender()
//
// Every pass first cleans the children of the previous pass. Nodes created
// while a pass runs attach to the node at the top of the runtime's Stack,
// so nesting follows the call structure without explicit wiring. The stack
// is restored when the body returns, fails or panics.
//
// # Hosts
//
// A Host is an output surface holding at most one root node. Mounting a new
// root on an occupied host cleans the previous occupant first. After every
// outermost render pass the host is asked to present the root's content.
package view
