package bridge

import "github.com/vango-dev/dippy/pkg/model"

// Handler receives one raw inbound frame.
type Handler func(raw []byte)

// Channel is a duplex message channel.
type Channel interface {
	// Send writes one outbound frame.
	Send(data []byte) error

	// Handler returns the currently installed inbound handler, or nil.
	Handler() Handler

	// SetHandler replaces the inbound handler.
	SetHandler(h Handler)
}

// Router resolves the model that owns a locator.
type Router interface {
	OwnerOf(locator string) (model.Model, bool)
}

// RouterFunc adapts a function to Router.
type RouterFunc func(locator string) (model.Model, bool)

// OwnerOf implements Router.
func (f RouterFunc) OwnerOf(locator string) (model.Model, bool) {
	return f(locator)
}
