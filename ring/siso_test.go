package ring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftlog/swiftlog/errs"
)

func TestSISO_FIFO(t *testing.T) {
	buf := NewBuffer(64, PolicyDiscard)

	messages := make([][]byte, 0, 200)
	rng := rand.New(rand.NewSource(1))

	produced := 0
	for i := 0; i < 200; i++ {
		size := rng.Intn(40) + 1
		msg := make([]byte, size)
		for j := range msg {
			msg[j] = byte(i + j)
		}

		h, err := buf.AllocWriteChunk(size)
		if err != nil {
			break
		}
		copy(h.Data, msg)
		buf.CommitWriteChunk(h)
		messages = append(messages, msg)
		produced++
	}
	require.Greater(t, produced, 0)

	for i := 0; i < produced; i++ {
		rh, err := buf.ReadChunk()
		require.NoError(t, err, "message %d", i)
		assert.Equal(t, messages[i], append([]byte(nil), rh.Data...), "message %d", i)
		buf.ReturnReadChunk(rh)
	}

	_, err := buf.ReadChunk()
	assert.ErrorIs(t, err, errs.ErrEmptyBuffer)
}

func TestSISO_Capacity(t *testing.T) {
	buf := NewBuffer(8, PolicyDiscard)

	var handles []WriteHandle
	count := 0
	for {
		h, err := buf.AllocWriteChunk(20)
		if err != nil {
			break
		}
		buf.CommitWriteChunk(h)
		handles = append(handles, h)
		count++
		if count > 10 {
			t.Fatal("allocation never failed, capacity check broken")
		}
	}
	require.GreaterOrEqual(t, count, 1)

	rh, err := buf.ReadChunk()
	require.NoError(t, err)
	buf.ReturnReadChunk(rh)

	_, err = buf.AllocWriteChunk(20)
	require.NoError(t, err, "a single dequeue must free enough space for the next allocation")
}

func TestSISO_WrapSplitChunk(t *testing.T) {
	buf := NewBuffer(8, PolicyDiscard)

	sizes := []int{20, 20, 20, 20}
	var committed int
	for _, sz := range sizes {
		h, err := buf.AllocWriteChunk(sz)
		if err != nil {
			break
		}
		for i := range h.Data {
			h.Data[i] = byte(sz)
		}
		buf.CommitWriteChunk(h)
		committed++
	}
	assert.GreaterOrEqual(t, committed, 3)

	for i := 0; i < committed; i++ {
		rh, err := buf.ReadChunk()
		require.NoError(t, err)
		assert.Equal(t, 20, len(rh.Data))
		buf.ReturnReadChunk(rh)
	}
}

func TestSISO_PolicyExpand(t *testing.T) {
	buf := NewBuffer(4, PolicyExpand)

	for i := 0; i < 20; i++ {
		h, err := buf.AllocWriteChunk(20)
		require.NoError(t, err)
		buf.CommitWriteChunk(h)
	}

	assert.Greater(t, buf.BlockCount(), uint32(4))

	for i := 0; i < 20; i++ {
		_, err := buf.ReadChunk()
		require.NoError(t, err, "iteration %d", i)
	}
}

func TestSISO_EncodedLenSmokeMatchesBlockMath(t *testing.T) {
	assert.Equal(t, uint32(1), neededBlocks(0))
	assert.Equal(t, uint32(1), neededBlocks(FirstBlockPayload))
	assert.Equal(t, uint32(2), neededBlocks(FirstBlockPayload+1))
}
