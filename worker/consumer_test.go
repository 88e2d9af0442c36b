package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/errs"
	"github.com/swiftlog/swiftlog/record"
	"github.com/swiftlog/swiftlog/ring"
)

// fakeSource is a RingSource backed by a plain slice, for tests that don't
// need the real ring package's lock-free mechanics.
type fakeSource struct {
	mu      sync.Mutex
	pending [][]byte
}

func (f *fakeSource) push(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, data)
}

func (f *fakeSource) ReadChunk() (ring.ReadHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.pending) == 0 {
		return ring.ReadHandle{}, errs.ErrEmptyBuffer
	}

	data := f.pending[0]
	f.pending = f.pending[1:]

	return ring.ReadHandle{Data: data}, nil
}

func (f *fakeSource) ReturnReadChunk(h ring.ReadHandle) {}

// fakeAppender records every call it receives.
type fakeAppender struct {
	mu         sync.Mutex
	records    []record.Record
	categories []string
	flushes    int
	closed     bool
}

func (a *fakeAppender) Name() string { return "fake" }
func (a *fakeAppender) Init() error  { return nil }
func (a *fakeAppender) ConsumeRecord(rec record.Record, categoryText string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
	a.categories = append(a.categories, categoryText)

	return nil
}
func (a *fakeAppender) FlushCache() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flushes++

	return nil
}
func (a *fakeAppender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true

	return nil
}

func (a *fakeAppender) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.records)
}

func encodeTestRecord(t *testing.T, engine endian.EndianEngine, epochMs int64) []byte {
	t.Helper()

	return record.Encode(epochMs, record.LevelInfo, 0, record.FormatUTF8, []byte("hello"), nil, record.ExtInfo{ThreadID: 1, ThreadName: "t"}, engine)
}

func TestConsumerNotifyDrainsPromptly(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	src := &fakeSource{}
	c := NewConsumer("test", src, engine, nil)

	fa := &fakeAppender{}
	require.NoError(t, c.AddAppender(fa))

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)

	src.push(encodeTestRecord(t, engine, 1000))
	c.Notify()

	require.Eventually(t, func() bool { return fa.count() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-c.Done()

	require.True(t, fa.closed)
}

func TestConsumerForceFlush(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	src := &fakeSource{}
	c := NewConsumer("test", src, engine, nil)

	fa := &fakeAppender{}
	require.NoError(t, c.AddAppender(fa))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	src.push(encodeTestRecord(t, engine, 2000))

	require.NoError(t, c.ForceFlush(context.Background()))
	require.Equal(t, 1, fa.count())

	fa.mu.Lock()
	flushes := fa.flushes
	fa.mu.Unlock()
	require.GreaterOrEqual(t, flushes, 1)
}

func TestConsumerCategoryResolver(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	src := &fakeSource{}

	resolve := func(id uint32) string {
		if id == 7 {
			return "net"
		}

		return ""
	}

	c := NewConsumer("test", src, engine, resolve)
	fa := &fakeAppender{}
	require.NoError(t, c.AddAppender(fa))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	rec := record.Encode(1, record.LevelWarning, 7, record.FormatUTF8, []byte("x"), nil, record.ExtInfo{ThreadID: 1, ThreadName: "t"}, engine)
	src.push(rec)

	require.NoError(t, c.ForceFlush(context.Background()))
	require.Equal(t, 1, fa.count())

	fa.mu.Lock()
	defer fa.mu.Unlock()
	require.Equal(t, []string{"net"}, fa.categories)
}
