package appender

import (
	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/internal/pool"
	"github.com/swiftlog/swiftlog/layout"
	"github.com/swiftlog/swiftlog/record"
)

// TextFileAppender renders each record through the layout engine and
// appends the resulting newline-terminated line to a rolling text file.
type TextFileAppender struct {
	base   *FileBase
	engine endian.EndianEngine
}

func NewTextFileAppender(logName string, cfg Config, engine endian.EndianEngine) *TextFileAppender {
	return &TextFileAppender{base: NewFileBase(logName, ".log", cfg), engine: engine}
}

func (a *TextFileAppender) Name() string      { return a.base.Name() }
func (a *TextFileAppender) Init() error       { return a.base.Init() }
func (a *TextFileAppender) FlushCache() error { return a.base.FlushCache() }
func (a *TextFileAppender) Close() error      { return a.base.Close() }

func (a *TextFileAppender) ConsumeRecord(rec record.Record, categoryText string) error {
	if !a.base.cfg.AcceptsLevel(rec.Head.Level) || !a.base.cfg.AcceptsCategory(rec.Head.Category) {
		return nil
	}

	buf := pool.GetRenderBuffer()
	defer pool.PutRenderBuffer(buf)

	if err := layout.Render(buf, a.base.cfg.Zone, rec, categoryText, a.engine); err != nil {
		return err
	}
	buf.MustWrite([]byte("\n"))

	return a.base.WriteBytes(rec.Head.EpochMs, buf.Bytes())
}
