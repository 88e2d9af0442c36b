package appender

import (
	"fmt"
	"time"

	"github.com/swiftlog/swiftlog/compress"
	"github.com/swiftlog/swiftlog/errs"
	"github.com/swiftlog/swiftlog/record"
	"github.com/swiftlog/swiftlog/tzone"
)

// Kind selects which concrete Appender a Config builds.
type Kind uint8

const (
	KindConsole Kind = iota
	KindTextFile
	KindRawFile
	KindCompressedFile
)

func (k Kind) String() string {
	switch k {
	case KindConsole:
		return "console"
	case KindTextFile:
		return "text_file"
	case KindRawFile:
		return "raw_file"
	case KindCompressedFile:
		return "compressed_file"
	default:
		return "unknown"
	}
}

// Config mirrors the `appenders_config.<name>` map[string]any shape: per-type
// options plus the common ones (levels, file naming, rotation, retention).
type Config struct {
	Name      string
	Type      Kind
	Zone      *tzone.Zone
	LevelMask uint8 // bit N set means LevelVerbose+N is accepted

	BaseDir              string
	FileName             string
	AlwaysCreateNewFile  bool
	MaxFileSize          int64
	ExpireTime           time.Duration
	CapacityLimit        int64
	EnableRollingLogFile bool
	CategoriesMask       uint64

	// RotationCompressor, when non-nil, archive-compresses a file once it
	// is rotated out (see FileBase.rotate). RotationCompressionKind names
	// which algorithm it is, for the archived file's suffix.
	RotationCompressor      compress.Codec
	RotationCompressionKind compress.Kind

	// PubKeyPath points at an OpenSSH-format RSA public key; when set, the
	// raw/compressed binary appenders seal each new segment under it.
	PubKeyPath string
}

// FromMap builds a Config from a map[string]any, the shape `appenders_config`
// entries take in the host application's configuration file. Unknown keys
// are ignored. A missing or unknown "type", or a "time_zone" that tzone.Parse
// rejects, returns an error; every other key is optional and keeps its default.
func FromMap(name string, m map[string]any) (Config, error) {
	cfg := Config{Name: name, BaseDir: ".", FileName: name, MaxFileSize: 64 * 1024 * 1024}

	typeStr, _ := m["type"].(string)
	switch typeStr {
	case "console":
		cfg.Type = KindConsole
	case "text_file":
		cfg.Type = KindTextFile
	case "raw_file":
		cfg.Type = KindRawFile
	case "compressed_file":
		cfg.Type = KindCompressedFile
	default:
		return Config{}, fmt.Errorf("%w: appender %q has unknown type %q", errs.ErrUnsupportedConfig, name, typeStr)
	}

	if v, ok := m["base_dir_type"].(string); ok && v != "" {
		cfg.BaseDir = v
	}
	if v, ok := m["file_name"].(string); ok && v != "" {
		cfg.FileName = v
	}
	if v, ok := m["always_create_new_file"].(bool); ok {
		cfg.AlwaysCreateNewFile = v
	}
	if v, ok := toInt64(m["max_file_size"]); ok {
		cfg.MaxFileSize = v
	}
	if v, ok := toInt64(m["expire_time_seconds"]); ok {
		cfg.ExpireTime = time.Duration(v) * time.Second
	}
	if v, ok := toInt64(m["expire_time_days"]); ok {
		cfg.ExpireTime = time.Duration(v) * 24 * time.Hour
	}
	if v, ok := toInt64(m["capacity_limit"]); ok {
		cfg.CapacityLimit = v
	}
	if v, ok := m["enable_rolling_log_file"].(bool); ok {
		cfg.EnableRollingLogFile = v
	}
	if v, ok := m["categories_mask"]; ok {
		if u, ok := toInt64(v); ok {
			cfg.CategoriesMask = uint64(u)
		}
	}
	if v, ok := m["pub_key"].(string); ok {
		cfg.PubKeyPath = v
	}

	cfg.LevelMask = 0x3F // default: accept all six levels
	if raw, ok := m["levels"].([]string); ok {
		cfg.LevelMask = 0
		for _, name := range raw {
			if lvl, ok := parseLevelName(name); ok {
				cfg.LevelMask |= 1 << uint(lvl)
			}
		}
	}

	tzStr, _ := m["time_zone"].(string)
	zone, err := tzone.Parse(tzStr)
	if err != nil {
		return Config{}, err
	}
	cfg.Zone = zone

	return cfg, nil
}

func parseLevelName(name string) (record.Level, bool) {
	switch name {
	case "verbose":
		return record.LevelVerbose, true
	case "debug":
		return record.LevelDebug, true
	case "info":
		return record.LevelInfo, true
	case "warning":
		return record.LevelWarning, true
	case "error":
		return record.LevelError, true
	case "fatal":
		return record.LevelFatal, true
	default:
		return 0, false
	}
}

// AcceptsLevel reports whether lvl passes this config's levels filter.
func (c Config) AcceptsLevel(lvl record.Level) bool {
	return c.LevelMask&(1<<uint(lvl)) != 0
}

// AcceptsCategory reports whether catID passes this config's categories
// filter. An all-zero mask (the default, when categories_mask is never set)
// accepts every category; a category id of 64 or more also always passes,
// since CategoriesMask's bits 0-63 can't name it.
func (c Config) AcceptsCategory(catID uint32) bool {
	if c.CategoriesMask == 0 || catID >= 64 {
		return true
	}

	return c.CategoriesMask&(uint64(1)<<catID) != 0
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
