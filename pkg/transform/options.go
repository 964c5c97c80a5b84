package transform

import (
	"log/slog"

	"github.com/leapstack-labs/leapmacro/pkg/diagnostic"
	"github.com/leapstack-labs/leapmacro/pkg/source"
)

type options struct {
	filename       string
	contextLines   int
	logger         *slog.Logger
	sourcesContent bool
	color          bool
}

// Option configures one invocation.
type Option func(*options)

// WithFilename names the input in diagnostics and in the source map. Without
// it the input is anonymous.
func WithFilename(name string) Option {
	return func(o *options) {
		o.filename = name
	}
}

// WithContextLines sets the number of lines shown around a diagnostic.
func WithContextLines(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.contextLines = n
		}
	}
}

// WithLogger sets the logger for pipeline events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSourcesContent inlines the input text into the source map.
func WithSourcesContent(on bool) Option {
	return func(o *options) {
		o.sourcesContent = on
	}
}

// WithColor enables ANSI colour in diagnostics.
func WithColor(on bool) Option {
	return func(o *options) {
		o.color = on
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		contextLines: diagnostic.DefaultContextLines,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) fileName() source.FileName {
	if o.filename == "" {
		return source.FileName{Kind: source.Anon}
	}
	return source.RealFile(o.filename)
}
