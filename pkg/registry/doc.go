// Package registry tracks which model owns each subscribed locator.
//
// The registry is the synchronization strategy attached to models: a read
// intent becomes Subscribe, and dropping a model becomes Unsubscribe. At
// most one model owns a locator at a time; a later Subscribe for the same
// locator replaces the owner.
//
// Subscribe hydrates the model from the local cache, if an entry exists,
// before the subscribe control is sent, so a view can render stale data
// immediately and the server push then overwrites it.
package registry
