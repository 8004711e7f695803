// Package provider exposes the ID sequence as stateful generators.
//
// A provider is not safe for concurrent use; callers sharing one across
// goroutines must serialize GenerateID and SetPosition themselves.
package provider

import "iter"

// IDSource hands out IDs one at a time.
type IDSource interface {
	// GenerateID returns the next ID.
	GenerateID() string
	// IDs ranges over the same sequence GenerateID draws from. It never
	// ends on its own; stop with break.
	IDs() iter.Seq[string]
}

func sequence(next func() string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for yield(next()) {
		}
	}
}
