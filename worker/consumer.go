// Package worker runs the background goroutines that drain a log's ring
// buffer and fan decoded records out to its appenders.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/swiftlog/swiftlog/appender"
	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/errs"
	"github.com/swiftlog/swiftlog/record"
	"github.com/swiftlog/swiftlog/ring"
)

// tickInterval is the consumer's bounded wait: how long it goes between
// drain passes when nothing wakes it early.
const tickInterval = 66 * time.Millisecond

// RingSource is the read side of a ring.Buffer or ring.MISOBuffer.
type RingSource interface {
	ReadChunk() (ring.ReadHandle, error)
	ReturnReadChunk(h ring.ReadHandle)
}

// CategoryResolver maps a record's numeric category id to display text.
type CategoryResolver func(categoryID uint32) string

// Consumer drains one log's ring buffer on its own goroutine, decoding each
// chunk into a record.Record and handing it to every configured appender in
// turn.
type Consumer struct {
	name            string
	source          RingSource
	engine          endian.EndianEngine
	resolveCategory CategoryResolver

	mu        sync.Mutex
	appenders []appender.Appender

	notify        chan struct{}
	flushRequests chan chan struct{}
	done          chan struct{}
}

// NewConsumer builds a Consumer. resolveCategory may be nil, in which case
// every record renders with an empty category.
func NewConsumer(name string, source RingSource, engine endian.EndianEngine, resolveCategory CategoryResolver) *Consumer {
	return &Consumer{
		name:            name,
		source:          source,
		engine:          engine,
		resolveCategory: resolveCategory,
		notify:          make(chan struct{}, 1),
		flushRequests:   make(chan chan struct{}),
		done:            make(chan struct{}),
	}
}

// AddAppender initializes and registers a.
func (c *Consumer) AddAppender(a appender.Appender) error {
	if err := a.Init(); err != nil {
		return err
	}

	c.mu.Lock()
	c.appenders = append(c.appenders, a)
	c.mu.Unlock()

	return nil
}

// Notify wakes the consumer's drain loop early; a producer calls this after
// committing a chunk so low-rate logging doesn't wait out a full tick.
// Non-blocking: a pending notification is enough, a second one before it's
// consumed is redundant.
func (c *Consumer) Notify() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Run drains the ring buffer until ctx is canceled, flushing and closing
// every appender on the way out. It recovers a panic from one drain pass,
// force-flushing before re-panicking, and is meant to be called from its
// own goroutine (see InstallCrashHandler for the process-wide counterpart).
func (c *Consumer) Run(ctx context.Context) {
	defer close(c.done)
	defer func() {
		if r := recover(); r != nil {
			c.flushAll()
			panic(r)
		}
	}()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.drain()
			c.flushAll()
			c.closeAll()

			return

		case req := <-c.flushRequests:
			c.drain()
			c.flushAll()
			close(req)

		case <-ticker.C:
			c.drain()
			c.flushAll()

		case <-c.notify:
			c.drain()
		}
	}
}

// Done reports a channel closed once Run has returned.
func (c *Consumer) Done() <-chan struct{} { return c.done }

// ForceFlush blocks until a full drain-and-flush pass has completed, or ctx
// is canceled first.
func (c *Consumer) ForceFlush(ctx context.Context) error {
	req := make(chan struct{})

	select {
	case c.flushRequests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return errs.ErrManagerShutdown
	}

	select {
	case <-req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Consumer) drain() {
	for {
		h, err := c.source.ReadChunk()
		if err != nil {
			return
		}

		rec, decErr := record.Decode(h.Data, c.engine)
		if decErr == nil {
			c.dispatch(rec)
		}

		c.source.ReturnReadChunk(h)
	}
}

func (c *Consumer) dispatch(rec record.Record) {
	categoryText := ""
	if c.resolveCategory != nil {
		categoryText = c.resolveCategory(rec.Head.Category)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range c.appenders {
		_ = a.ConsumeRecord(rec, categoryText)
	}
}

func (c *Consumer) flushAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range c.appenders {
		_ = a.FlushCache()
	}
}

func (c *Consumer) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range c.appenders {
		_ = a.Close()
	}
}
