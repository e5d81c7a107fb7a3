package idx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAt_SortsInMintOrder(t *testing.T) {
	at := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

	prev := idx.NewAt(at)
	for range 100 {
		next := idx.NewAt(at)
		require.Less(t, prev.String(), next.String())
		prev = next
	}

	later := idx.NewAt(at.Add(time.Millisecond))
	require.Less(t, prev.String(), later.String())
}

func TestParse(t *testing.T) {
	id := idx.New()

	got, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, got)

	got, err = idx.Parse("  " + strings.ToLower(id.String()) + "\n")
	require.NoError(t, err)
	require.Equal(t, id, got)

	for _, bad := range []string{"", "not-an-id", "../../etc/passwd", id.String() + "X"} {
		_, err := idx.Parse(bad)
		require.ErrorIs(t, err, idx.ErrInvalid, bad)
	}
}
