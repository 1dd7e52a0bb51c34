package shared

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"abc123xyz", "abc...xyz"},
		{"your-secret-api-key", "you...key"},
		{"abcdef", "abc...def"},
		{"abcd", "abc...bcd"},
		{"ab", "ab...ab"},
		{"", "..."},
		{"ключ-секрет", "клю...рет"},
		{"🔑🔑🔑🔑", "🔑🔑🔑...🔑🔑🔑"},
	}
	for _, test := range tests {
		got := MaskSecret(test.in)
		require.Equal(t, test.want, got, "MaskSecret(%q)", test.in)
		require.True(t, utf8.ValidString(got), "MaskSecret(%q)", test.in)
	}
}

func TestSecretEqual(t *testing.T) {
	require.True(t, SecretEqual("K", "K"))
	require.False(t, SecretEqual("K", "k"))
	require.False(t, SecretEqual("", "K"))
	require.False(t, SecretEqual("K ", "K"))
}
