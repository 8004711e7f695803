// Package alphabet holds the ordered symbol sets IDs are drawn from.
//
// The order of an Alphabet defines digit ranking: the symbol at index 0 is
// the least digit and the last symbol is the greatest.
package alphabet

import (
	"errors"
	"fmt"
)

var (
	ErrEmpty           = errors.New("alphabet: no symbols")
	ErrDuplicateSymbol = errors.New("alphabet: duplicate symbol")
)

// Alphabet is an immutable, ordered set of distinct symbols.
type Alphabet struct {
	symbols []rune
	index   map[rune]int
}

// New builds an Alphabet from the runes of symbols, keeping their order.
func New(symbols string) (Alphabet, error) {
	runes := []rune(symbols)
	if len(runes) == 0 {
		return Alphabet{}, ErrEmpty
	}
	index := make(map[rune]int, len(runes))
	for i, r := range runes {
		if j, ok := index[r]; ok {
			return Alphabet{}, fmt.Errorf("%w %q at %d and %d", ErrDuplicateSymbol, r, j, i)
		}
		index[r] = i
	}
	return Alphabet{symbols: runes, index: index}, nil
}

// MustNew is like New but panics on error.
func MustNew(symbols string) Alphabet {
	a, err := New(symbols)
	if err != nil {
		panic(err)
	}
	return a
}

// Len is the base of the numeral system.
func (a Alphabet) Len() int {
	return len(a.symbols)
}

// Symbol returns the digit at index i.
func (a Alphabet) Symbol(i int) rune {
	return a.symbols[i]
}

// Index returns the digit value of r.
func (a Alphabet) Index(r rune) (int, bool) {
	i, ok := a.index[r]
	return i, ok
}

func (a Alphabet) String() string {
	return string(a.symbols)
}
