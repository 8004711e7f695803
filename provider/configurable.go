package provider

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/roniherschmann/go-seqid/alphabet"
	"github.com/roniherschmann/go-seqid/bijective"
)

var ErrPrefixMismatch = errors.New("provider: id does not carry the provider prefix")

// Configurable is a provider whose position can be read and replaced, so
// generation can be resumed from a persisted value.
type Configurable struct {
	alphabet alphabet.Alphabet
	prefix   string
	position int64
	cursor   *bijective.Cursor
	logger   zerolog.Logger
	onRewind func(from, to int64)
}

var _ IDSource = (*Configurable)(nil)

// NewConfigurable returns a provider over the distinct runes of symbols.
func NewConfigurable(symbols string, opts ...Option) (*Configurable, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	a, err := alphabet.New(symbols)
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}
	cursor, err := bijective.NewCursor(a, o.start)
	if err != nil {
		return nil, fmt.Errorf("provider: start: %w", err)
	}
	return &Configurable{
		alphabet: a,
		prefix:   o.prefix,
		position: o.start,
		cursor:   cursor,
		logger:   o.logger,
		onRewind: o.onRewind,
	}, nil
}

// GenerateID returns the ID at the current position and advances it by one.
// The position saturates at math.MaxInt64: past that point it no longer
// counts generated IDs and resuming from it repeats the last one.
func (p *Configurable) GenerateID() string {
	id := p.prefix + p.cursor.Next()
	if p.position < math.MaxInt64 {
		p.position++
	}
	return id
}

func (p *Configurable) IDs() iter.Seq[string] {
	return sequence(p.GenerateID)
}

// Position is the position of the next ID to be generated.
func (p *Configurable) Position() int64 {
	return p.position
}

// SetPosition resumes generation at position. Moving backwards is allowed
// but logged at warn level and reported to the rewind hook, since IDs
// already handed out will be produced again. A failed call leaves the
// provider untouched. A position read after saturation is not a safe resume
// point; see GenerateID.
func (p *Configurable) SetPosition(position int64) error {
	cursor, err := bijective.NewCursor(p.alphabet, position)
	if err != nil {
		return fmt.Errorf("provider: set position: %w", err)
	}
	if position < p.position {
		p.logger.Warn().
			Int64("from", p.position).
			Int64("to", position).
			Msg("position moved backwards, ids may be issued twice")
		if p.onRewind != nil {
			p.onRewind(p.position, position)
		}
	}
	p.position = position
	p.cursor = cursor
	return nil
}

// Parse returns the position of an ID this provider generated.
func (p *Configurable) Parse(id string) (int64, error) {
	rest, ok := strings.CutPrefix(id, p.prefix)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrPrefixMismatch, id)
	}
	return bijective.Parse(p.alphabet, rest)
}

func (p *Configurable) Alphabet() alphabet.Alphabet {
	return p.alphabet
}

func (p *Configurable) Prefix() string {
	return p.prefix
}
