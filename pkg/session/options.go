package session

import (
	"io"
	"log/slog"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/visibility"
)

// OutputFormat controls how collected values are serialized after submit.
type OutputFormat string

const (
	// OutputFormatJSON prints the value tree as indented JSON.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML prints the value tree as YAML.
	OutputFormatYAML OutputFormat = "yaml"
	// OutputFormatNone prints nothing; the submit handler is the only sink.
	OutputFormatNone OutputFormat = "none"
)

// Option configures a Session.
type Option func(*Session)

// WithDriver overrides the prompt driver. The default asks questions through
// survey on the controlling terminal.
func WithDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithEngine runs the session against an existing engine instead of building
// one from the definition. The engine should already carry the definition's
// validators; Engine or Bind set those up.
func WithEngine(engine *form.Form) Option {
	return func(s *Session) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithOutputFormat selects the serialization written after a successful
// submit.
func WithOutputFormat(format OutputFormat) Option {
	return func(s *Session) {
		if format != "" {
			s.output = format
		}
	}
}

// WithWriter redirects serialized output. The default is stdout.
func WithWriter(w io.Writer) Option {
	return func(s *Session) {
		if w != nil {
			s.writer = w
		}
	}
}

// WithLogger sets the logger the session reports through. The default logger
// discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxAttempts bounds how many times one field is asked before the session
// gives up on invalid answers.
func WithMaxAttempts(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithExtras passes out-of-band context into visibility rules, addressed with
// the "extras." prefix.
func WithExtras(extras map[string]any) Option {
	return func(s *Session) {
		s.extras = extras
	}
}

// WithVisibility overrides the visibility evaluator. The default understands
// the expression grammar from visibility/expr.
func WithVisibility(eval visibility.Evaluator) Option {
	return func(s *Session) {
		if eval != nil {
			s.visibility = eval
		}
	}
}

// WithSubset narrows the session to the definition fields matching the subset
// before any prompting starts.
func WithSubset(subset definition.Subset) Option {
	return func(s *Session) {
		s.subset = subset
	}
}
