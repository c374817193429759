package protocol

import (
	"encoding/json"
	"errors"
)

// Frame errors.
var (
	ErrFrameTooLarge  = errors.New("protocol: frame payload too large")
	ErrMalformedFrame = errors.New("protocol: malformed frame")
	ErrEmptyLocator   = errors.New("protocol: empty locator")
)

// Kind identifies the variant of a decoded inbound frame.
type Kind uint8

const (
	KindFetch       Kind = 0x01 // Resource snapshot push
	KindUnaddressed Kind = 0x02 // Frame without a locator
	KindUnknown     Kind = 0x03 // Addressed frame of an unhandled type
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindFetch:
		return "Fetch"
	case KindUnaddressed:
		return "Unaddressed"
	case KindUnknown:
		return "Unknown"
	default:
		return "Invalid"
	}
}

// Inbound is a decoded server → client frame.
// The set of implementations is closed: *Fetch, *Unaddressed and *Unknown.
type Inbound interface {
	Kind() Kind
	inbound()
}

// Fetch carries the current value of a resource.
type Fetch struct {
	Locator string
	Data    json.RawMessage
}

// Kind implements Inbound.
func (*Fetch) Kind() Kind { return KindFetch }
func (*Fetch) inbound()   {}

// Unaddressed is a frame that carries no resource locator.
// It cannot be routed to a model but is still handed to chained handlers.
type Unaddressed struct {
	Type string
}

// Kind implements Inbound.
func (*Unaddressed) Kind() Kind { return KindUnaddressed }
func (*Unaddressed) inbound()   {}

// Unknown is an addressed frame whose type the client does not act on.
type Unknown struct {
	Type    string
	Locator string
}

// Kind implements Inbound.
func (*Unknown) Kind() Kind { return KindUnknown }
func (*Unknown) inbound()   {}

// Locator returns the resource locator carried by an inbound frame,
// or "" for frames that have none.
func Locator(in Inbound) string {
	switch m := in.(type) {
	case *Fetch:
		return m.Locator
	case *Unknown:
		return m.Locator
	default:
		return ""
	}
}

// inboundWire is the JSON shape of a server push.
type inboundWire struct {
	Type   string             `json:"Type"`
	Object *inboundObjectWire `json:"Object"`
}

type inboundObjectWire struct {
	URL  string          `json:"URL"`
	Data json.RawMessage `json:"Data"`
}
