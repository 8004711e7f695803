// Package bijective implements the zero-less base-k numeral system that maps
// a non-negative position to an ID string.
//
// Position p renders as the symbol for p mod k, preceded by the rendering of
// the carry p/k - 1 when that carry is non-negative. Strings of length L
// therefore cover exactly the positions k + k^2 + ... + k^(L-1) up to
// k + ... + k^L - 1, and every string over the alphabet is reached once.
package bijective

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"slices"
	"strings"

	"github.com/roniherschmann/go-seqid/alphabet"
)

// MaxUnaryLength bounds the IDs rendered directly over a one-symbol alphabet,
// where the ID length equals position+1.
const MaxUnaryLength = 1 << 24

var (
	ErrNegativePosition = errors.New("bijective: negative position")
	ErrTooLong          = errors.New("bijective: rendering exceeds maximum length")
	ErrEmptyID          = errors.New("bijective: empty id")
	ErrUnknownSymbol    = errors.New("bijective: symbol not in alphabet")
	ErrOverflow         = errors.New("bijective: position overflows int64")
)

func check(a alphabet.Alphabet, position int64) error {
	if a.Len() == 0 {
		return alphabet.ErrEmpty
	}
	if position < 0 {
		return fmt.Errorf("%w: %d", ErrNegativePosition, position)
	}
	return nil
}

// Render returns the ID at position.
func Render(a alphabet.Alphabet, position int64) (string, error) {
	if err := check(a, position); err != nil {
		return "", err
	}
	k := int64(a.Len())
	if k == 1 {
		if position >= MaxUnaryLength {
			return "", fmt.Errorf("%w: %d", ErrTooLong, position+1)
		}
		return strings.Repeat(string(a.Symbol(0)), int(position)+1), nil
	}

	// least significant digit first, reversed at the end
	var digits []rune
	for position >= 0 {
		digits = append(digits, a.Symbol(int(position%k)))
		position = position/k - 1
	}
	slices.Reverse(digits)
	return string(digits), nil
}

// RenderBig is Render for positions beyond int64.
func RenderBig(a alphabet.Alphabet, position *big.Int) (string, error) {
	if a.Len() == 0 {
		return "", alphabet.ErrEmpty
	}
	if position.Sign() < 0 {
		return "", fmt.Errorf("%w: %s", ErrNegativePosition, position)
	}
	if position.IsInt64() || a.Len() == 1 {
		if !position.IsInt64() {
			return "", fmt.Errorf("%w: %s", ErrTooLong, position)
		}
		return Render(a, position.Int64())
	}

	k := big.NewInt(int64(a.Len()))
	one := big.NewInt(1)
	p := new(big.Int).Set(position)
	digit := new(big.Int)
	var digits []rune
	for p.Sign() >= 0 {
		p.QuoRem(p, k, digit)
		digits = append(digits, a.Symbol(int(digit.Int64())))
		p.Sub(p, one)
	}
	slices.Reverse(digits)
	return string(digits), nil
}

// Parse returns the position id renders from. It is the inverse of Render.
func Parse(a alphabet.Alphabet, id string) (int64, error) {
	if a.Len() == 0 {
		return 0, alphabet.ErrEmpty
	}
	if id == "" {
		return 0, ErrEmptyID
	}
	k := uint64(a.Len())

	// value is position+1, which may be one past math.MaxInt64
	var value uint64
	for i, r := range id {
		d, ok := a.Index(r)
		if !ok {
			return 0, fmt.Errorf("%w: %q at byte %d", ErrUnknownSymbol, r, i)
		}
		next := uint64(d) + 1
		if value > (math.MaxUint64-next)/k {
			return 0, fmt.Errorf("%w: %q", ErrOverflow, id)
		}
		value = value*k + next
	}
	if value-1 > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q", ErrOverflow, id)
	}
	return int64(value - 1), nil
}
