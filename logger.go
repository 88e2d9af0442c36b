// Package swiftlog is the top-level convenience surface: CreateLog wires a
// ring buffer, a consumer goroutine, and a set of appenders together into
// a running log; Producer submits entries to it from any goroutine.
package swiftlog

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/swiftlog/swiftlog/appender"
	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/record"
	"github.com/swiftlog/swiftlog/ring"
	"github.com/swiftlog/swiftlog/snapshot"
	"github.com/swiftlog/swiftlog/tzone"
	"github.com/swiftlog/swiftlog/worker"
)

var categories = newCategoryRegistry()

// RegisterCategory returns the stable id for name, assigning one on first
// use. Category names are process-wide: two logs sharing a name share an id.
func RegisterCategory(name string) uint32 { return categories.idFor(name) }

// Config describes one log to create: its ring transport, appenders, and
// optional in-memory snapshot of recent output.
type Config struct {
	Name string
	Zone *tzone.Zone

	// RingBlocks is rounded up to the next power of two by the ring
	// package. MultiProducer selects a ring.MISOBuffer (many producer
	// goroutines) over the default ring.Buffer (one).
	RingBlocks    uint32
	Policy        ring.Policy
	MultiProducer bool

	Appenders []appender.Config

	// ConsoleWriter is only consulted for an appender.KindConsole entry.
	ConsoleWriter appender.ConsoleWriter

	// SnapshotCapacity, if > 0, keeps the last N rendered lines in memory
	// (see snapshot.Ring), independent of what the appenders persist.
	SnapshotCapacity int

	Engine endian.EndianEngine
}

type consumerHandle struct {
	consumer *worker.Consumer
	cancel   context.CancelFunc
	ring     worker.RingSource
	miso     *ring.MISOBuffer
	siso     *ring.Buffer
	engine   endian.EndianEngine
	snap     *snapshot.Ring
}

func (h *consumerHandle) shutdown(ctx context.Context) {
	h.cancel()

	select {
	case <-h.consumer.Done():
	case <-ctx.Done():
	}
}

// CreateLog builds and starts a log: its ring transport, its consumer
// goroutine, and every configured appender (each Init'd before the first
// record can reach it). The returned LogID is the handle every Producer
// and ForceFlush call addresses it by.
func CreateLog(cfg Config) (LogID, error) {
	if cfg.RingBlocks == 0 {
		cfg.RingBlocks = 1024
	}
	engine := cfg.Engine
	if engine == nil {
		engine = endian.GetLittleEndianEngine()
	}
	zone := cfg.Zone
	if zone == nil {
		zone = tzone.MustParse("UTC")
	}

	h := &consumerHandle{engine: engine}
	if cfg.MultiProducer {
		h.miso = ring.NewMISOBuffer(cfg.RingBlocks)
		h.ring = h.miso
	} else {
		h.siso = ring.NewBuffer(cfg.RingBlocks, cfg.Policy)
		h.ring = h.siso
	}

	if cfg.SnapshotCapacity > 0 {
		h.snap = snapshot.NewRing(cfg.SnapshotCapacity)
	}

	resolveCategory := func(catID uint32) string { return categories.nameFor(catID) }
	h.consumer = worker.NewConsumer(cfg.Name, h.ring, engine, resolveCategory)

	if h.snap != nil {
		if err := h.consumer.AddAppender(newSnapshotAppender(h.snap, zone, engine)); err != nil {
			return LogID{}, err
		}
	}

	for _, acfg := range cfg.Appenders {
		if acfg.Zone == nil {
			acfg.Zone = zone
		}

		a, err := appender.New(cfg.Name, acfg, engine, cfg.ConsoleWriter)
		if err != nil {
			return LogID{}, fmt.Errorf("swiftlog: create log %q: %w", cfg.Name, err)
		}

		if err := h.consumer.AddAppender(a); err != nil {
			return LogID{}, fmt.Errorf("swiftlog: init appender for log %q: %w", cfg.Name, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	go worker.WithRecover(func(recovered any) {
		_ = h.consumer.ForceFlush(context.Background())
	}, func() {
		h.consumer.Run(ctx)
	})

	return global.create(&logEntry{consumer: h}), nil
}

// CloseLog stops a log's consumer goroutine (flushing and closing every
// appender on the way out) and retires its LogID.
func CloseLog(ctx context.Context, id LogID) error {
	entry, err := global.remove(id)
	if err != nil {
		return err
	}

	entry.consumer.shutdown(ctx)

	return nil
}

// ForceFlush drains and flushes one log (id.IsZero() == false) or every
// live log (id.IsZero() == true).
func ForceFlush(ctx context.Context, id LogID) error {
	if id.IsZero() {
		global.mu.RLock()
		slots := append([]*logEntry(nil), global.slots...)
		global.mu.RUnlock()

		for _, slot := range slots {
			if slot == nil {
				continue
			}
			if err := slot.consumer.consumer.ForceFlush(ctx); err != nil {
				return err
			}
		}

		return nil
	}

	entry, err := global.lookup(id)
	if err != nil {
		return err
	}

	return entry.consumer.consumer.ForceFlush(ctx)
}

// threadIDSeq assigns each Producer a distinct synthetic ThreadID, mirroring
// a native build's OS thread id: the record wire format carries
// ThreadID/ThreadName regardless of what the Go runtime calls the calling
// goroutine.
var threadIDSeq atomic.Uint64

// Producer submits records to one log on behalf of one named logical
// producer. Its ExtInfo (thread id + name) is resolved once at creation and
// reused for every Log call, matching record.ExtInfo's "populated once per
// producer thread" contract.
type Producer struct {
	id     LogID
	engine endian.EndianEngine
	ext    record.ExtInfo
}

// NewProducer binds a Producer to id, identified in rendered output as
// threadName.
func NewProducer(id LogID, threadName string) (*Producer, error) {
	entry, err := global.lookup(id)
	if err != nil {
		return nil, err
	}

	return &Producer{
		id:     id,
		engine: entry.consumer.engine,
		ext:    record.ExtInfo{ThreadID: threadIDSeq.Add(1), ThreadName: threadName},
	}, nil
}

// Log submits one record: format is a `{…}`-placeholder template, args are
// consumed left to right by RenderBody's placeholder scan. Unsupported
// argument types are rejected with errs.ErrInvalidArgType before anything
// is enqueued.
func (p *Producer) Log(level record.Level, category string, format string, args ...any) error {
	entry, err := global.lookup(p.id)
	if err != nil {
		return err
	}

	argsRaw, err := encodeArgs(p.engine, args)
	if err != nil {
		return err
	}

	catID := categories.idFor(category)
	recBytes := record.Encode(nowEpochMs(), level, catID, record.FormatUTF8, []byte(format), argsRaw, p.ext, p.engine)

	return entry.consumer.submit(recBytes)
}

func (h *consumerHandle) submit(recBytes []byte) error {
	var wh ring.WriteHandle
	var err error

	if h.miso != nil {
		wh, err = h.miso.AllocWriteChunk(len(recBytes))
	} else {
		wh, err = h.siso.AllocWriteChunk(len(recBytes))
	}
	if err != nil {
		return err
	}

	copy(wh.Data, recBytes)

	if h.miso != nil {
		h.miso.CommitWriteChunk(wh)
	} else {
		h.siso.CommitWriteChunk(wh)
	}

	h.consumer.Notify()

	return nil
}

func nowEpochMs() int64 { return time.Now().UnixMilli() }
