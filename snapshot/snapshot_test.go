package snapshot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingBelowCapacity(t *testing.T) {
	r := NewRing(4)
	r.Push("a")
	r.Push("b")

	require.Equal(t, []string{"a", "b"}, r.Snapshot())
	require.Equal(t, 2, r.Len())
}

func TestRingOverwritesOldest(t *testing.T) {
	r := NewRing(3)
	r.Push("a")
	r.Push("b")
	r.Push("c")
	r.Push("d")
	r.Push("e")

	require.Equal(t, []string{"c", "d", "e"}, r.Snapshot())
	require.Equal(t, 3, r.Len())
}

func TestRingZeroCapacityClampedToOne(t *testing.T) {
	r := NewRing(0)
	r.Push("a")
	r.Push("b")

	require.Equal(t, []string{"b"}, r.Snapshot())
}
