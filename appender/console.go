package appender

import (
	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/internal/pool"
	"github.com/swiftlog/swiftlog/layout"
	"github.com/swiftlog/swiftlog/record"
	"github.com/swiftlog/swiftlog/tzone"
)

// ConsoleWriter is the out-of-scope, interface-only collaborator for a
// console sink's actual terminal/callback mechanics; swiftlog only needs to
// hand it a fully rendered line.
type ConsoleWriter interface {
	WriteLine(line string)
}

// ConsoleAppender renders each record and forwards the resulting line to a
// caller-supplied ConsoleWriter.
type ConsoleAppender struct {
	name   string
	cfg    Config
	zone   *tzone.Zone
	engine endian.EndianEngine
	writer ConsoleWriter
}

func NewConsoleAppender(cfg Config, engine endian.EndianEngine, writer ConsoleWriter) *ConsoleAppender {
	return &ConsoleAppender{name: cfg.Name, cfg: cfg, zone: cfg.Zone, engine: engine, writer: writer}
}

func (a *ConsoleAppender) Name() string      { return a.name }
func (a *ConsoleAppender) Init() error       { return nil }
func (a *ConsoleAppender) FlushCache() error { return nil }
func (a *ConsoleAppender) Close() error      { return nil }

func (a *ConsoleAppender) ConsumeRecord(rec record.Record, categoryText string) error {
	if !a.cfg.AcceptsLevel(rec.Head.Level) || !a.cfg.AcceptsCategory(rec.Head.Category) {
		return nil
	}

	buf := pool.GetRenderBuffer()
	defer pool.PutRenderBuffer(buf)

	if err := layout.Render(buf, a.zone, rec, categoryText, a.engine); err != nil {
		return err
	}

	a.writer.WriteLine(string(buf.Bytes()))

	return nil
}
