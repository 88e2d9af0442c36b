package swiftlog

import (
	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/internal/pool"
	"github.com/swiftlog/swiftlog/layout"
	"github.com/swiftlog/swiftlog/record"
	"github.com/swiftlog/swiftlog/snapshot"
	"github.com/swiftlog/swiftlog/tzone"
)

// snapshotAppender renders every record through the layout engine and
// pushes the line into a snapshot.Ring, giving a log an in-memory tail of
// recent output independent of whatever its file/console appenders do.
type snapshotAppender struct {
	ring   *snapshot.Ring
	zone   *tzone.Zone
	engine endian.EndianEngine
}

func newSnapshotAppender(ring *snapshot.Ring, zone *tzone.Zone, engine endian.EndianEngine) *snapshotAppender {
	return &snapshotAppender{ring: ring, zone: zone, engine: engine}
}

func (a *snapshotAppender) Name() string      { return "snapshot" }
func (a *snapshotAppender) Init() error       { return nil }
func (a *snapshotAppender) FlushCache() error { return nil }
func (a *snapshotAppender) Close() error      { return nil }

func (a *snapshotAppender) ConsumeRecord(rec record.Record, categoryText string) error {
	buf := pool.GetRenderBuffer()
	defer pool.PutRenderBuffer(buf)

	if err := layout.Render(buf, a.zone, rec, categoryText, a.engine); err != nil {
		return err
	}

	a.ring.Push(string(buf.Bytes()))

	return nil
}
