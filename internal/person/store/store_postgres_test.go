package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"Anvar":   "Anvar",
		"%":       `\%`,
		"_":       `\_`,
		`\`:       `\\`,
		"10%_a\\": `10\%\_a\\`,
	}
	for in, want := range cases {
		require.Equal(t, want, escapeLike(in), "input %q", in)
	}
}
