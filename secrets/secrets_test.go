package secrets_test

import (
	"testing"

	"github.com/grubsnap/identity/secrets"
	"github.com/stretchr/testify/require"
)

func TestDigestDeterministic(t *testing.T) {
	a := secrets.Digest("1234", "deadbeef")
	b := secrets.Digest("1234", "deadbeef")
	require.Equal(t, a, b)
	require.Len(t, a, 64)
}

func TestDigestDiffersOnAnyInputChange(t *testing.T) {
	base := secrets.Digest("1234", "deadbeef")
	require.NotEqual(t, base, secrets.Digest("1235", "deadbeef"))
	require.NotEqual(t, base, secrets.Digest("1234", "deadbeee"))
	require.NotEqual(t, base, secrets.Digest("", "deadbeef"))
}

func TestCompare(t *testing.T) {
	a := secrets.Digest("secret", "salt")
	require.True(t, secrets.Compare(a, secrets.Digest("secret", "salt")))
	require.False(t, secrets.Compare(a, secrets.Digest("other", "salt")))
	require.False(t, secrets.Compare(a, a[:32]))
	require.False(t, secrets.Compare("", a))
}

func TestNewSalt(t *testing.T) {
	s1, err := secrets.NewSalt()
	require.NoError(t, err)
	s2, err := secrets.NewSalt()
	require.NoError(t, err)
	require.Len(t, s1, 16)
	require.NotEqual(t, s1, s2)
}

func TestNewCodeShape(t *testing.T) {
	for _, n := range []int{4, 6} {
		code, err := secrets.NewCode(n)
		require.NoError(t, err)
		require.Len(t, code, n)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9', "code %q contains non-digit", code)
		}
	}
}

func TestNewCodeDefaultLength(t *testing.T) {
	code, err := secrets.NewCode(0)
	require.NoError(t, err)
	require.Len(t, code, secrets.DefaultCodeLength)
}
