// Package game defines the resources a game client subscribes to: games
// and their chat messages.
//
// Games live at /games/{id} and may be cached locally. Chat messages live
// at /games/{id}/messages and are always fetched fresh.
package game
