package protocol

import (
	"encoding/json"
	"fmt"
)

// ControlType identifies the type of control message.
type ControlType uint8

const (
	ControlSubscribe   ControlType = 0x01 // Register interest in a resource
	ControlUnsubscribe ControlType = 0x02 // Drop interest in a resource
)

// String returns the wire name of the control type.
func (ct ControlType) String() string {
	switch ct {
	case ControlSubscribe:
		return "subscribe"
	case ControlUnsubscribe:
		return "unsubscribe"
	default:
		return "unknown"
	}
}

// Control is an outbound client → server control message.
type Control struct {
	Type    ControlType
	Locator string
}

// NewSubscribe creates a subscribe control message.
func NewSubscribe(locator string) Control {
	return Control{Type: ControlSubscribe, Locator: locator}
}

// NewUnsubscribe creates an unsubscribe control message.
func NewUnsubscribe(locator string) Control {
	return Control{Type: ControlUnsubscribe, Locator: locator}
}

type controlWire struct {
	Type      string        `json:"Type"`
	Subscribe subscribeWire `json:"Subscribe"`
}

type subscribeWire struct {
	URI string `json:"URI"`
}

// EncodeControl encodes a control message to its JSON frame.
func EncodeControl(c Control) ([]byte, error) {
	switch c.Type {
	case ControlSubscribe, ControlUnsubscribe:
	default:
		return nil, fmt.Errorf("%w: control type %d", ErrMalformedFrame, c.Type)
	}
	if c.Locator == "" {
		return nil, ErrEmptyLocator
	}
	return json.Marshal(controlWire{
		Type:      c.Type.String(),
		Subscribe: subscribeWire{URI: c.Locator},
	})
}

// DecodeControl decodes a control frame. The client never receives control
// frames; this exists for servers and test doubles that need to read what
// the client sent.
func DecodeControl(data []byte) (Control, error) {
	var w controlWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Control{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	var ct ControlType
	switch w.Type {
	case "subscribe":
		ct = ControlSubscribe
	case "unsubscribe":
		ct = ControlUnsubscribe
	default:
		return Control{}, fmt.Errorf("%w: control type %q", ErrMalformedFrame, w.Type)
	}
	if w.Subscribe.URI == "" {
		return Control{}, ErrEmptyLocator
	}
	return Control{Type: ct, Locator: w.Subscribe.URI}, nil
}
