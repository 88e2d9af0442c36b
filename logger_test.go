package swiftlog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/swiftlog/swiftlog/appender"
	"github.com/swiftlog/swiftlog/record"
)

type capturingWriter struct {
	mu    sync.Mutex
	lines []string
}

func (w *capturingWriter) WriteLine(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lines = append(w.lines, line)
}

func (w *capturingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.lines)
}

func TestCreateLogProducerLogForceFlush(t *testing.T) {
	writer := &capturingWriter{}

	id, err := CreateLog(Config{
		Name:       "test-log",
		RingBlocks: 64,
		Appenders: []appender.Config{
			{Name: "console", Type: appender.KindConsole, LevelMask: 0x3F},
		},
		ConsoleWriter:    writer,
		SnapshotCapacity: 8,
	})
	require.NoError(t, err)
	defer func() { _ = CloseLog(context.Background(), id) }()

	producer, err := NewProducer(id, "worker-1")
	require.NoError(t, err)

	require.NoError(t, producer.Log(record.LevelInfo, "net", "hello {0}", "world"))

	require.NoError(t, ForceFlush(context.Background(), id))
	require.Eventually(t, func() bool { return writer.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestLogIDStaleAfterClose(t *testing.T) {
	id, err := CreateLog(Config{Name: "transient", RingBlocks: 16})
	require.NoError(t, err)

	require.NoError(t, CloseLog(context.Background(), id))

	_, err = NewProducer(id, "x")
	require.Error(t, err)
}

func TestForceFlushUnknownLogID(t *testing.T) {
	err := ForceFlush(context.Background(), LogID{index: 9999})
	require.Error(t, err)
}
