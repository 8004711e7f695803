package provider

import (
	"fmt"
	"iter"

	"github.com/roniherschmann/go-seqid/alphabet"
	"github.com/roniherschmann/go-seqid/bijective"
)

// Incremental produces the sequence from its first ID onwards. It cannot
// be repositioned.
type Incremental struct {
	prefix string
	cursor *bijective.Cursor
}

var _ IDSource = (*Incremental)(nil)

// NewIncremental returns a provider over the distinct runes of symbols. Every
// ID is prefixed with prefix.
func NewIncremental(symbols, prefix string) (*Incremental, error) {
	a, err := alphabet.New(symbols)
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}
	cursor, err := bijective.NewCursor(a, 0)
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}
	return &Incremental{prefix: prefix, cursor: cursor}, nil
}

func (p *Incremental) GenerateID() string {
	return p.prefix + p.cursor.Next()
}

func (p *Incremental) IDs() iter.Seq[string] {
	return sequence(p.GenerateID)
}
