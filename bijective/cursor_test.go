package bijective

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roniherschmann/go-seqid/alphabet"
)

func TestCursor(t *testing.T) {
	c, err := NewCursor(alphabet.MustNew("ab"), 0)
	require.NoError(t, err)

	var got []string
	for i := 0; i < 7; i++ {
		got = append(got, c.Next())
	}
	assert.Equal(t, []string{"a", "b", "aa", "ab", "ba", "bb", "aaa"}, got)
}

func TestCursorMatchesRender(t *testing.T) {
	for _, symbols := range testAlphabets {
		a := alphabet.MustNew(symbols)
		for _, start := range []int64{0, 1, 2, 5, 37, 1000, 65535} {
			c, err := NewCursor(a, start)
			require.NoError(t, err)
			for i := int64(0); i < 300; i++ {
				want, err := Render(a, start+i)
				require.NoError(t, err)
				require.Equal(t, want, c.Next(), "%q from %d, step %d", symbols, start, i)
			}
		}
	}
}

func TestCursorDepth(t *testing.T) {
	a := alphabet.MustNew("ab")

	c, err := NewCursor(a, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Depth())

	// position 6 is "aaa": one level per digit
	c, err = NewCursor(a, 6)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Depth())
	assert.Equal(t, "aaa", c.Next())

	c, err = NewCursor(alphabet.MustNew(alphabet.AlphaNumeric), 1<<40)
	require.NoError(t, err)
	assert.LessOrEqual(t, c.Depth(), 8)
}

func TestCursorUnary(t *testing.T) {
	c, err := NewCursor(alphabet.MustNew("1"), 2)
	require.NoError(t, err)
	assert.Equal(t, "111", c.Next())
	assert.Equal(t, "1111", c.Next())
	assert.Equal(t, 1, c.Depth())
}

func TestCursorUnaryLimit(t *testing.T) {
	a := alphabet.MustNew("1")

	for _, start := range []int64{MaxUnaryLength, MaxUnaryLength + 1, 1 << 40, math.MaxInt64} {
		_, err := NewCursor(a, start)
		assert.ErrorIs(t, err, ErrTooLong, "start %d", start)
		_, err = Render(a, start)
		assert.ErrorIs(t, err, ErrTooLong, "start %d", start)
	}

	last := int64(MaxUnaryLength - 1)
	c, err := NewCursor(a, last)
	require.NoError(t, err)
	want, err := Render(a, last)
	require.NoError(t, err)
	got := c.Next()
	assert.Len(t, got, MaxUnaryLength)
	assert.True(t, got == want)
}

func TestCursorInvalid(t *testing.T) {
	_, err := NewCursor(alphabet.MustNew("ab"), -5)
	assert.ErrorIs(t, err, ErrNegativePosition)

	_, err = NewCursor(alphabet.Alphabet{}, 0)
	assert.ErrorIs(t, err, alphabet.ErrEmpty)
}
