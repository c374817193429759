// Package views renders games as a tree of view nodes:
//
//	Game
//	└── Controls   (re-renders on every game sync)
//	    └── Chat   (re-renders on every message sync)
//	        └── Channel, one per recipient set
//
// Every view fetches what it shows through its scope, so the resources are
// released when the view is cleaned.
package views
