package core

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roniherschmann/go-seqid/alphabet"
	"github.com/roniherschmann/go-seqid/bijective"
	"github.com/roniherschmann/go-seqid/internal/store"
)

func newTestStore(t *testing.T) *store.SQLite {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, store.Migrate(db))
	return store.NewSQLite(db)
}

// failingStore fails position writes once failSave is set.
type failingStore struct {
	store.Store
	failSave bool
}

func (f *failingStore) SavePosition(name string, position int64) error {
	if f.failSave {
		return errors.New("disk full")
	}
	return f.Store.SavePosition(name, position)
}

func TestCreateAndIssue(t *testing.T) {
	svc := NewService(newTestStore(t), 16)

	seq, err := svc.Create("orders", "ab", "o-", 0)
	require.NoError(t, err)
	assert.Equal(t, "orders", seq.Name)

	b, err := svc.Issue("orders", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"o-a", "o-b", "o-aa"}, b.IDs)
	assert.Equal(t, int64(3), b.Position)

	b, err = svc.Issue("orders", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"o-ab"}, b.IDs)

	pos, err := svc.Position("orders")
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)
}

func TestCreateInvalid(t *testing.T) {
	svc := NewService(newTestStore(t), 16)

	_, err := svc.Create("", "ab", "", 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Create("a/b", "ab", "", 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Create("x", "", "", 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, err, alphabet.ErrEmpty)

	_, err = svc.Create("x", "aa", "", 0)
	assert.ErrorIs(t, err, alphabet.ErrDuplicateSymbol)

	_, err = svc.Create("x", "ab", "", -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Create("x", "ab", "", 0)
	require.NoError(t, err)
	_, err = svc.Create("x", "ab", "", 0)
	assert.ErrorIs(t, err, store.ErrExists)
	assert.NoError(t, svc.Ensure("x", "ab", "", 0))
}

func TestUnaryLimits(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, 16)

	for _, start := range []int64{bijective.MaxUnaryLength, math.MaxInt64} {
		_, err := svc.Create("tally", "|", "", start)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.ErrorIs(t, err, bijective.ErrTooLong)
	}
	_, err := st.Get("tally")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Create("tally", "|", "", 2)
	require.NoError(t, err)

	_, err = svc.SetPosition("tally", math.MaxInt64)
	assert.ErrorIs(t, err, bijective.ErrTooLong)
	rec, err := st.Get("tally")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Position)

	// a batch of unary ids is bounded by its total length
	_, err = svc.Issue("tally", MaxBatch)
	require.NoError(t, err)
	_, err = svc.SetPosition("tally", bijective.MaxUnaryLength-1)
	require.NoError(t, err)
	_, err = svc.Issue("tally", 2)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	pos, err := svc.Position("tally")
	require.NoError(t, err)
	assert.Equal(t, int64(bijective.MaxUnaryLength-1), pos)
}

func TestGetUsesLivePosition(t *testing.T) {
	st := newTestStore(t)
	_, err := NewService(st, 16).Create("s", "ab", "", 7)
	require.NoError(t, err)

	svc := NewService(st, 16)
	rec, err := svc.Get("s")
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.Position)

	_, err = svc.Issue("s", 3)
	require.NoError(t, err)
	rec, err = svc.Get("s")
	require.NoError(t, err)
	assert.Equal(t, int64(10), rec.Position)
	assert.Equal(t, "ab", rec.Alphabet)
}

func TestIssueCount(t *testing.T) {
	svc := NewService(newTestStore(t), 16)
	_, err := svc.Create("s", alphabet.Digits, "", 0)
	require.NoError(t, err)

	_, err = svc.Issue("s", 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.Issue("s", MaxBatch+1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Issue("missing", 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResumeFromStore(t *testing.T) {
	st := newTestStore(t)
	first := NewService(st, 16)
	_, err := first.Create("s", alphabet.Lower, "", 0)
	require.NoError(t, err)
	_, err = first.Issue("s", 30)
	require.NoError(t, err)

	// a fresh service over the same store plays the role of a restart
	restarted := NewService(st, 16)
	require.NoError(t, restarted.Prewarm(10))
	pos, err := restarted.Position("s")
	require.NoError(t, err)
	assert.Equal(t, int64(30), pos)

	got, err := restarted.Issue("s", 5)
	require.NoError(t, err)
	for i, id := range got.IDs {
		want, err := Render(alphabet.Lower, "", 30+int64(i))
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
	assert.Equal(t, "ae", got.IDs[0])
}

func TestIssueSaveFailure(t *testing.T) {
	fs := &failingStore{Store: newTestStore(t)}
	svc := NewService(fs, 16)
	_, err := svc.Create("s", "ab", "", 0)
	require.NoError(t, err)

	fs.failSave = true
	_, err = svc.Issue("s", 2)
	require.Error(t, err)

	fs.failSave = false
	b, err := svc.Issue("s", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, b.IDs)
}

func TestSetPosition(t *testing.T) {
	svc := NewService(newTestStore(t), 16)
	_, err := svc.Create("s", "ab", "", 0)
	require.NoError(t, err)

	rewound, err := svc.SetPosition("s", 4)
	require.NoError(t, err)
	assert.False(t, rewound)

	b, err := svc.Issue("s", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"ba"}, b.IDs)

	rewound, err = svc.SetPosition("s", 2)
	require.NoError(t, err)
	assert.True(t, rewound)
	b, err = svc.Issue("s", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"aa"}, b.IDs)

	_, err = svc.SetPosition("s", -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	pos, err := svc.Position("s")
	require.NoError(t, err)
	assert.Equal(t, int64(3), pos)
}

func TestParse(t *testing.T) {
	svc := NewService(newTestStore(t), 16)
	_, err := svc.Create("s", alphabet.AlphaNumeric, "inv_", 5000)
	require.NoError(t, err)

	b, err := svc.Issue("s", 2)
	require.NoError(t, err)
	pos, err := svc.Parse("s", b.IDs[1])
	require.NoError(t, err)
	assert.Equal(t, int64(5001), pos)

	_, err = svc.Parse("s", "nope")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConcurrentIssue(t *testing.T) {
	svc := NewService(newTestStore(t), 1024)
	_, err := svc.Create("s", alphabet.Base64URL, "", 0)
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				b, err := svc.Issue("s", 5)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				for _, id := range b.IDs {
					assert.False(t, seen[id], "duplicate %q", id)
					seen[id] = true
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 8*20*5)

	pos, err := svc.Position("s")
	require.NoError(t, err)
	assert.Equal(t, int64(800), pos)
}

func TestIssueRecorder(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, 16)
	_, err := svc.Create("s", "ab", "", 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.RunIssueRecorder(ctx)

	_, err = svc.Issue("s", 3)
	require.NoError(t, err)
	_, err = svc.Issue("s", 2)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		stats, err := svc.Stats("s")
		return err == nil && stats.TotalIssued == 5 && stats.Batches == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRender(t *testing.T) {
	id, err := Render("12", "pre", 3)
	require.NoError(t, err)
	assert.Equal(t, "pre12", id)

	_, err = Render("12", "", -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Render("", "", 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
