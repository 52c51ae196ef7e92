package instance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDPrefersDyno(t *testing.T) {
	t.Setenv("DYNO", "web.1")
	require.Equal(t, "web.1", ID())
}

func TestIDFallsBack(t *testing.T) {
	t.Setenv("DYNO", "")
	require.NotEmpty(t, ID())
}
