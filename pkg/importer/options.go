package importer

import (
	"github.com/labstack/gommon/log"
)

// RowPolicy decides what happens when a single record cannot be inserted.
type RowPolicy int

const (
	// AbortOnError stops the import at the first bad record and rolls back.
	AbortOnError RowPolicy = iota
	// SkipBadRows records malformed records (wrong field count, bad quoting)
	// in Result.Skipped and continues. Inserts rejected by the database
	// still abort the import.
	SkipBadRows
)

func (p RowPolicy) String() string {
	switch p {
	case AbortOnError:
		return "abort"
	case SkipBadRows:
		return "skip"
	default:
		return "unknown"
	}
}

type options struct {
	delimiter   rune
	policy      RowPolicy
	strictCount bool
	logger      *log.Logger
}

// Option configures an import.
type Option func(*options)

// WithDelimiter sets the CSV field delimiter. It has no effect on ATT input,
// which is always semicolon separated.
func WithDelimiter(d rune) Option {
	return func(o *options) {
		o.delimiter = d
	}
}

// WithRowPolicy sets the policy for records that fail.
func WithRowPolicy(p RowPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithStrictFieldCount makes records with fewer fields than the header fail
// instead of binding NULL for the missing trailing values.
func WithStrictFieldCount(strict bool) Option {
	return func(o *options) {
		o.strictCount = strict
	}
}

// WithLogger replaces the package logger for one import.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

var defaultLogger = log.New("importer")

func newOptions(opts []Option) *options {
	o := &options{
		delimiter: ',',
		policy:    AbortOnError,
		logger:    defaultLogger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
