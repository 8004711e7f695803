package alphabet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a, err := New("xyz")
	require.NoError(t, err)
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 'y', a.Symbol(1))
	assert.Equal(t, "xyz", a.String())

	i, ok := a.Index('z')
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = a.Index('q')
	assert.False(t, ok)
}

func TestNewMultibyte(t *testing.T) {
	a, err := New("αβγ")
	require.NoError(t, err)
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 'γ', a.Symbol(2))
}

func TestNewRejects(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = New("abca")
	assert.ErrorIs(t, err, ErrDuplicateSymbol)

	assert.Panics(t, func() { MustNew("") })
}

func TestCharsets(t *testing.T) {
	assert.Equal(t, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ", Letters)
	assert.Equal(t, Letters+"0123456789-_", Base64URL)
	assert.Equal(t, `<{[()]}>\/,.:;?!'"@#%$|^~_+-*=`, Special)

	for _, name := range Names() {
		symbols, ok := Lookup(name)
		require.True(t, ok, name)
		_, err := New(symbols)
		assert.NoError(t, err, "charset %s must have distinct symbols", name)
	}

	_, ok := Lookup("emoji")
	assert.False(t, ok)
}
