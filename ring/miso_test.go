package ring

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftlog/swiftlog/errs"
)

func TestMISO_ConcurrentProducersSingleConsumer(t *testing.T) {
	buf := NewMISOBuffer(256)

	const producers = 8
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				for {
					h, err := buf.AllocWriteChunk(16)
					if err != nil {
						continue
					}
					byteOrder.PutUint32(h.Data[0:4], uint32(id))
					byteOrder.PutUint32(h.Data[4:8], uint32(i))
					buf.CommitWriteChunk(h)
					break
				}
			}
		}(p)
	}

	received := make([][2]uint32, 0, producers*perProducer)
	var mu sync.Mutex
	done := make(chan struct{})

	go func() {
		defer close(done)
		count := 0
		for count < producers*perProducer {
			rh, err := buf.ReadChunk()
			if err != nil {
				continue
			}
			pid := byteOrder.Uint32(rh.Data[0:4])
			seq := byteOrder.Uint32(rh.Data[4:8])
			mu.Lock()
			received = append(received, [2]uint32{pid, seq})
			mu.Unlock()
			buf.ReturnReadChunk(rh)
			count++
		}
	}()

	wg.Wait()
	<-done

	require.Len(t, received, producers*perProducer)

	perProducerSeqs := make(map[uint32][]uint32)
	for _, r := range received {
		perProducerSeqs[r[0]] = append(perProducerSeqs[r[0]], r[1])
	}
	for pid, seqs := range perProducerSeqs {
		sorted := append([]uint32(nil), seqs...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		assert.Equal(t, sorted, seqs, "producer %d order not preserved", pid)
	}
}

func TestMISO_EmptyReadsErrEmptyBuffer(t *testing.T) {
	buf := NewMISOBuffer(16)
	_, err := buf.ReadChunk()
	assert.ErrorIs(t, err, errs.ErrEmptyBuffer)
}

func TestMISO_UnpublishedChunkBlocksConsumer(t *testing.T) {
	buf := NewMISOBuffer(16)

	h, err := buf.AllocWriteChunk(16)
	require.NoError(t, err)
	copy(h.Data, []byte("0123456789abcdef"))

	// Not yet committed: reading cursor cache sees the reservation but the
	// chunk is not published, so ReadChunk must report empty.
	_, err = buf.ReadChunk()
	assert.ErrorIs(t, err, errs.ErrEmptyBuffer)

	buf.CommitWriteChunk(h)

	rh, err := buf.ReadChunk()
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789abcdef"), rh.Data)
}
