package registry

import "fmt"

// AddressError reports a model whose locator could not be resolved.
// It is the only error Subscribe and Unsubscribe return.
type AddressError struct {
	Op  string
	Err error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("registry: %s: cannot resolve locator: %v", e.Op, e.Err)
}

func (e *AddressError) Unwrap() error {
	return e.Err
}
