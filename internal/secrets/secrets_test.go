package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox_SealOpen(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	box, err := FromBase64(key)
	require.NoError(t, err)

	sealed, err := box.Seal("SKEDDA_TOKEN", "CfDJ8-token")
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.NotContains(t, sealed, "CfDJ8-token")

	got, err := box.Open("SKEDDA_TOKEN", sealed)
	require.NoError(t, err)
	assert.Equal(t, "CfDJ8-token", got)

	_, err = box.Open("SKEDDA_COOKIES", sealed)
	assert.Error(t, err, "value sealed under another name must not open")
}

func TestBox_SameKeyDerivesSameBox(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	a, err := FromBase64(key)
	require.NoError(t, err)
	b, err := FromBase64(key)
	require.NoError(t, err)

	sealed, err := a.Seal("n", "v")
	require.NoError(t, err)
	got, err := b.Open("n", sealed)
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	other, err := GenerateKey()
	require.NoError(t, err)
	c, err := FromBase64(other)
	require.NoError(t, err)
	_, err = c.Open("n", sealed)
	assert.Error(t, err)
}

func TestReveal(t *testing.T) {
	got, err := Reveal(nil, "n", "plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", got)

	_, err = Reveal(nil, "n", "sealed:abc")
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestNew_ShortKey(t *testing.T) {
	_, err := New([]byte("short"))
	assert.Error(t, err)
	_, err = FromBase64("!!!")
	assert.Error(t, err)
}
