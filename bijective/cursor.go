package bijective

import (
	"fmt"
	"strings"

	"github.com/roniherschmann/go-seqid/alphabet"
)

// Cursor walks the ID sequence forward from a starting position without
// rendering each position from scratch.
//
// Each level owns the least significant digit of its IDs and a link to the
// cursor one level up that supplies the carry. The link is created when the
// level first runs out of digits, so a cursor holds one level per digit of
// the ID it is about to return.
type Cursor struct {
	a     alphabet.Alphabet
	digit int
	super string
	carry *Cursor

	// run is the length of the next ID when the alphabet has one symbol.
	run int
}

// NewCursor returns a cursor whose first Next call yields the ID at start.
// Over a one-symbol alphabet, start is subject to the same MaxUnaryLength
// limit as Render; Next keeps growing the ID by one symbol per call after that.
func NewCursor(a alphabet.Alphabet, start int64) (*Cursor, error) {
	if err := check(a, start); err != nil {
		return nil, err
	}
	if a.Len() == 1 && start >= MaxUnaryLength {
		return nil, fmt.Errorf("%w: %d", ErrTooLong, start+1)
	}
	return newCursor(a, start), nil
}

func newCursor(a alphabet.Alphabet, start int64) *Cursor {
	c := &Cursor{a: a}
	k := int64(a.Len())
	if k == 1 {
		c.run = int(start) + 1
		return c
	}
	c.digit = int(start % k)
	if carry := start/k - 1; carry >= 0 {
		c.carry = newCursor(a, carry)
		c.super = c.carry.Next()
	}
	return c
}

// Next returns the ID at the cursor position and advances by one.
func (c *Cursor) Next() string {
	if c.a.Len() == 1 {
		id := strings.Repeat(string(c.a.Symbol(0)), c.run)
		c.run++
		return id
	}
	if c.digit == c.a.Len() {
		c.digit = 0
		if c.carry == nil {
			c.carry = newCursor(c.a, 0)
		}
		c.super = c.carry.Next()
	}
	id := c.super + string(c.a.Symbol(c.digit))
	c.digit++
	return id
}

// Depth is the number of linked levels.
func (c *Cursor) Depth() int {
	n := 0
	for l := c; l != nil; l = l.carry {
		n++
	}
	return n
}
