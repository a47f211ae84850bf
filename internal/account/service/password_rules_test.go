package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswordMeetsComplexity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		password string
		want     bool
	}{
		{"lowercase digit uppercase", "Sup3rsecret", true},
		{"lowercase digit symbol", "sup3rsecret!", true},
		{"too short", "Sh0rt!", false},
		{"no digit", "Supersecret!", false},
		{"no lowercase", "SUP3RSECRET!", false},
		{"lowercase and digit only", "sup3rsecret", false},
		{"empty", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, PasswordMeetsComplexity(tc.password))
		})
	}
}

func TestValidateNewPassword(t *testing.T) {
	t.Parallel()

	t.Run("rejects password equal to email ignoring case", func(t *testing.T) {
		err := validateNewPassword("Ada1@example.test", "ada1@EXAMPLE.test")
		require.ErrorIs(t, err, ErrPasswordEqualsEmail)
	})

	t.Run("accepts a compliant password", func(t *testing.T) {
		require.NoError(t, validateNewPassword("Sup3rsecret!", "ada@example.test"))
	})

	t.Run("maps complexity failure to ErrWeakPassword", func(t *testing.T) {
		err := validateNewPassword("short", "ada@example.test")
		require.ErrorIs(t, err, ErrWeakPassword)
	})
}
