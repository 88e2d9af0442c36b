// Package appender implements the pluggable sinks a worker fans decoded
// records out to: a rolling text file, and binary raw/compressed files with
// optional segment encryption. All three share FileBase's write-cache,
// rotation, retention, and mmap-backed crash recovery.
package appender

import (
	"fmt"
	"os"

	"github.com/swiftlog/swiftlog/cryptoenv"
	"github.com/swiftlog/swiftlog/endian"
	"github.com/swiftlog/swiftlog/errs"
	"github.com/swiftlog/swiftlog/record"
)

// Appender is the capability set every sink implements. Not every method is
// meaningful for every appender (Console has no file to recover or flush),
// but a single interface keeps the worker's dispatch loop uniform.
type Appender interface {
	// Name identifies this appender instance within its log, used in file
	// naming, mmap scratch paths, and diagnostics.
	Name() string

	// Init prepares the appender to accept records: opens or recovers its
	// backing file, replaying any mmap scratch left by a prior crash.
	Init() error

	// ConsumeRecord writes one decoded record to the appender's current
	// destination, rotating first if the rotation policy requires it.
	ConsumeRecord(rec record.Record, categoryText string) error

	// FlushCache forces any buffered bytes out to the OS (not necessarily
	// to stable storage); called on the worker's periodic tick and before
	// shutdown.
	FlushCache() error

	// Close flushes, closes the backing file, and releases any mmap
	// scratch region.
	Close() error
}

// New builds the concrete Appender named by cfg.Type. writer is only
// consulted for KindConsole; it may be nil for the other kinds.
func New(logName string, cfg Config, engine endian.EndianEngine, writer ConsoleWriter) (Appender, error) {
	var envelope *cryptoenv.Envelope
	if cfg.PubKeyPath != "" {
		keyData, err := os.ReadFile(cfg.PubKeyPath)
		if err != nil {
			return nil, fmt.Errorf("appender: read public key: %w", err)
		}

		pub, err := cryptoenv.ParseAuthorizedKey(keyData)
		if err != nil {
			return nil, err
		}
		envelope = &cryptoenv.Envelope{Pub: pub}
	}

	switch cfg.Type {
	case KindConsole:
		return NewConsoleAppender(cfg, engine, writer), nil
	case KindTextFile:
		return NewTextFileAppender(logName, cfg, engine), nil
	case KindRawFile:
		return NewRawFileAppender(logName, cfg, engine, envelope), nil
	case KindCompressedFile:
		return NewCompressedFileAppender(logName, cfg, engine, envelope, nil), nil
	default:
		return nil, fmt.Errorf("%w: appender kind %v", errs.ErrUnsupportedConfig, cfg.Type)
	}
}
