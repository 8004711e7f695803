package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/roniherschmann/go-seqid/alphabet"
	"github.com/roniherschmann/go-seqid/bijective"
	"github.com/roniherschmann/go-seqid/internal/metrics"
	"github.com/roniherschmann/go-seqid/internal/store"
	"github.com/roniherschmann/go-seqid/provider"
)

// MaxBatch caps the number of IDs issued by one call.
const MaxBatch = 1000

var ErrInvalidArgument = errors.New("invalid argument")

// Batch is a run of consecutive IDs. Position is the next position after
// the batch.
type Batch struct {
	IDs      []string `json:"ids"`
	Position int64    `json:"position"`
}

// sequence serializes access to one provider.
type sequence struct {
	mu       sync.Mutex
	provider *provider.Configurable
}

type Service struct {
	store    store.Store
	cache    sync.Map // name -> *sequence
	loadMu   sync.Mutex
	issuesCh chan store.IssueEvent
}

func NewService(s store.Store, issueBuffer int) *Service {
	return &Service{
		store:    s,
		issuesCh: make(chan store.IssueEvent, issueBuffer),
	}
}

// RunIssueRecorder writes queued issue events to the store until ctx is done.
func (s *Service) RunIssueRecorder(ctx context.Context) {
	for {
		select {
		case ev := <-s.issuesCh:
			if err := s.store.InsertIssue(ev); err != nil {
				log.Error().Err(err).Str("sequence", ev.Name).Msg("insert issue")
			}
		case <-ctx.Done():
			return
		}
	}
}

// Prewarm loads up to n recently used sequences into memory.
func (s *Service) Prewarm(n int) error {
	seqs, err := s.store.List(n)
	if err != nil {
		return err
	}
	for _, seq := range seqs {
		if _, err := s.cached(seq); err != nil {
			log.Warn().Err(err).Str("sequence", seq.Name).Msg("prewarm sequence")
		}
	}
	return nil
}

func validName(name string) error {
	if name == "" || len(name) > 128 || strings.ContainsAny(name, "/ \t\n") {
		return fmt.Errorf("%w: sequence name %q", ErrInvalidArgument, name)
	}
	return nil
}

func newProvider(rec store.Sequence) (*provider.Configurable, error) {
	name := rec.Name
	return provider.NewConfigurable(rec.Alphabet,
		provider.WithStart(rec.Position),
		provider.WithPrefix(rec.Prefix),
		provider.WithLogger(log.Logger.With().Str("sequence", name).Logger()),
		provider.WithRewindHook(func(from, to int64) {
			metrics.Rewinds.WithLabelValues(name).Inc()
		}),
	)
}

// cached returns the in-memory sequence for rec, building it if absent.
func (s *Service) cached(rec store.Sequence) (*sequence, error) {
	if v, ok := s.cache.Load(rec.Name); ok {
		return v.(*sequence), nil
	}
	p, err := newProvider(rec)
	if err != nil {
		return nil, err
	}
	v, _ := s.cache.LoadOrStore(rec.Name, &sequence{provider: p})
	return v.(*sequence), nil
}

func (s *Service) load(name string) (*sequence, error) {
	if v, ok := s.cache.Load(name); ok {
		metrics.CacheHit.Inc()
		return v.(*sequence), nil
	}
	metrics.CacheMiss.Inc()

	// one store read per name even under concurrent misses
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if v, ok := s.cache.Load(name); ok {
		return v.(*sequence), nil
	}
	rec, err := s.store.Get(name)
	if err != nil {
		return nil, err
	}
	return s.cached(rec)
}

// Create registers a new sequence. symbols must be non-empty and distinct.
func (s *Service) Create(name, symbols, prefix string, start int64) (store.Sequence, error) {
	if err := validName(name); err != nil {
		return store.Sequence{}, err
	}
	rec := store.Sequence{Name: name, Alphabet: symbols, Prefix: prefix, Position: start}
	p, err := newProvider(rec)
	if err != nil {
		return store.Sequence{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if err := s.store.Create(rec); err != nil {
		return store.Sequence{}, err
	}
	s.cache.LoadOrStore(name, &sequence{provider: p})
	log.Info().Str("sequence", name).Int64("position", start).Msg("sequence created")
	return s.store.Get(name)
}

// Ensure creates the sequence unless one with that name already exists.
func (s *Service) Ensure(name, symbols, prefix string, start int64) error {
	_, err := s.Create(name, symbols, prefix, start)
	if errors.Is(err, store.ErrExists) {
		return nil
	}
	return err
}

// Get returns the stored sequence with its live position.
func (s *Service) Get(name string) (store.Sequence, error) {
	rec, err := s.store.Get(name)
	if err != nil {
		return store.Sequence{}, err
	}
	seq, err := s.cached(rec)
	if err != nil {
		return store.Sequence{}, err
	}
	seq.mu.Lock()
	rec.Position = seq.provider.Position()
	seq.mu.Unlock()
	return rec, nil
}

// Issue hands out count consecutive IDs. The new position is persisted
// before any ID is generated, so a failed write issues nothing.
func (s *Service) Issue(name string, count int) (Batch, error) {
	if count < 1 || count > MaxBatch {
		return Batch{}, fmt.Errorf("%w: count must be between 1 and %d, got %d", ErrInvalidArgument, MaxBatch, count)
	}
	seq, err := s.load(name)
	if err != nil {
		return Batch{}, err
	}

	seq.mu.Lock()
	defer seq.mu.Unlock()

	start := seq.provider.Position()
	if start > math.MaxInt64-int64(count) {
		return Batch{}, fmt.Errorf("%w: sequence %s is exhausted", ErrInvalidArgument, name)
	}
	next := start + int64(count)
	// unary IDs are as long as their position; bound the bytes of one batch
	if seq.provider.Alphabet().Len() == 1 && int64(count)*next > bijective.MaxUnaryLength {
		return Batch{}, fmt.Errorf("%w: unary sequence %s cannot issue %d ids at position %d", ErrInvalidArgument, name, count, start)
	}
	if err := s.store.SavePosition(name, next); err != nil {
		return Batch{}, fmt.Errorf("save position: %w", err)
	}

	ids := make([]string, 0, count)
	for id := range seq.provider.IDs() {
		ids = append(ids, id)
		if len(ids) == count {
			break
		}
	}
	metrics.IDsIssued.WithLabelValues(name).Add(float64(count))
	s.recordIssue(store.IssueEvent{
		Name:     name,
		First:    ids[0],
		Last:     ids[len(ids)-1],
		Count:    count,
		Position: next,
		Ts:       time.Now(),
	})
	return Batch{IDs: ids, Position: next}, nil
}

func (s *Service) recordIssue(ev store.IssueEvent) {
	select {
	case s.issuesCh <- ev:
	default:
		metrics.IssueEventsDropped.Inc()
	}
}

// Position is the next position the sequence will issue.
func (s *Service) Position(name string) (int64, error) {
	seq, err := s.load(name)
	if err != nil {
		return 0, err
	}
	seq.mu.Lock()
	defer seq.mu.Unlock()
	return seq.provider.Position(), nil
}

// SetPosition moves the sequence to position and reports whether that was a
// rewind.
func (s *Service) SetPosition(name string, position int64) (bool, error) {
	if position < 0 {
		return false, fmt.Errorf("%w: %w", ErrInvalidArgument, bijective.ErrNegativePosition)
	}
	seq, err := s.load(name)
	if err != nil {
		return false, err
	}

	seq.mu.Lock()
	defer seq.mu.Unlock()

	if _, err := bijective.NewCursor(seq.provider.Alphabet(), position); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	rewound := position < seq.provider.Position()
	if err := s.store.SavePosition(name, position); err != nil {
		return false, fmt.Errorf("save position: %w", err)
	}
	if err := seq.provider.SetPosition(position); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return rewound, nil
}

// Parse returns the position an ID of the named sequence was issued at.
func (s *Service) Parse(name, id string) (int64, error) {
	seq, err := s.load(name)
	if err != nil {
		return 0, err
	}
	seq.mu.Lock()
	defer seq.mu.Unlock()
	pos, err := seq.provider.Parse(id)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return pos, nil
}

func (s *Service) Stats(name string) (store.Stats, error) {
	return s.store.Stats(name)
}

// Render returns the ID at position without touching any sequence.
func Render(symbols, prefix string, position int64) (string, error) {
	a, err := alphabet.New(symbols)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	id, err := bijective.Render(a, position)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return prefix + id, nil
}
