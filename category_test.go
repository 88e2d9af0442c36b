package swiftlog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategoryRegistryAssignsStableIDs(t *testing.T) {
	reg := newCategoryRegistry()

	id1 := reg.idFor("net")
	id2 := reg.idFor("disk")
	id1Again := reg.idFor("net")

	require.Equal(t, id1, id1Again)
	require.NotEqual(t, id1, id2)
	require.Equal(t, "net", reg.nameFor(id1))
	require.Equal(t, "disk", reg.nameFor(id2))
}

func TestCategoryRegistryUnknownID(t *testing.T) {
	reg := newCategoryRegistry()
	require.Equal(t, "", reg.nameFor(99))
}

func TestCategoryRegistryBit(t *testing.T) {
	reg := newCategoryRegistry()
	require.Equal(t, uint64(1), reg.bit(0))
	require.Equal(t, uint64(0), reg.bit(64))
}
