// Package session fills a form engine from terminal prompts. A Session asks
// one question per definition field, pushes each answer through the engine's
// validators, and submits once the walk completes.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/fieldpath"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/visibility"
	"github.com/goliatone/go-formstate/pkg/visibility/expr"
	"github.com/goliatone/go-formstate/pkg/widgets"
)

const defaultMaxAttempts = 3

// Session drives one interactive fill of a definition-bound form engine.
// Construct with New, run with Run.
type Session struct {
	def         definition.Form
	engine      *form.Form
	driver      PromptDriver
	output      OutputFormat
	writer      io.Writer
	logger      *slog.Logger
	visibility  visibility.Evaluator
	extras      map[string]any
	subset      definition.Subset
	maxAttempts int
}

// New builds a session over the definition. Without WithEngine the session
// constructs its own engine seeded from the definition's defaults and
// validators.
func New(def definition.Form, opts ...Option) (*Session, error) {
	s := &Session{
		def:         def.Clone(),
		output:      OutputFormatJSON,
		writer:      os.Stdout,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		visibility:  expr.New(),
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if !s.subset.Empty() {
		definition.ApplySubset(&s.def, s.subset)
	}
	if s.driver == nil {
		s.driver = &surveyDriver{}
	}
	if s.engine == nil {
		// Answers are validated explicitly after each prompt, so the
		// engine's implicit change validation stays off.
		engine, err := s.def.Engine(
			form.WithValidateOnChange(false),
			form.WithValidateOnBlur(false),
		)
		if err != nil {
			return nil, err
		}
		s.engine = engine
	}
	return s, nil
}

// Engine exposes the engine the session fills, for draft restore or
// inspection around a run.
func (s *Session) Engine() *form.Form {
	return s.engine
}

// Definition returns a copy of the definition the session walks, after any
// subset filtering.
func (s *Session) Definition() definition.Form {
	return s.def.Clone()
}

// Run walks the definition fields in order, prompting for each visible one,
// then submits the engine and serializes the collected values. The returned
// map is the engine's value tree after a successful submit.
func (s *Session) Run(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.logger.Info("session: start", "form", s.def.Name, "fields", len(s.def.Fields))

	for _, field := range s.def.Fields {
		if field.Name == "" {
			continue
		}
		if err := s.promptField(ctx, field, field.Name); err != nil {
			return nil, err
		}
	}

	if err := s.engine.Submit(ctx); err != nil {
		if errors.Is(err, form.ErrValidation) {
			s.reportValidation(ctx)
		}
		return nil, err
	}

	values := s.engine.Values()
	if err := s.emit(values); err != nil {
		return nil, err
	}
	s.logger.Info("session: submitted", "form", s.def.Name)
	return values, nil
}

func (s *Session) promptField(ctx context.Context, field definition.Field, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	visible, err := s.visibleNow(path, field)
	if err != nil {
		return err
	}
	if !visible {
		s.logger.Debug("session: field hidden", "path", path)
		return nil
	}
	if field.ReadOnly {
		s.logger.Debug("session: field read-only", "path", path)
		return nil
	}

	switch field.Type {
	case definition.FieldTypeObject:
		return s.promptObject(ctx, field, path)
	case definition.FieldTypeArray:
		if len(enumValues(field)) > 0 {
			return s.promptMultiSelect(ctx, field, path)
		}
		return s.promptItems(ctx, field, path)
	case definition.FieldTypeBoolean:
		return s.promptBoolean(ctx, field, path)
	default:
		if len(field.Enum) > 0 {
			return s.promptSelect(ctx, field, path)
		}
		return s.promptScalar(ctx, field, path)
	}
}

func (s *Session) promptObject(ctx context.Context, field definition.Field, path string) error {
	for _, child := range field.Nested {
		if child.Name == "" {
			continue
		}
		if err := s.promptField(ctx, child, fieldpath.Join(path, child.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) promptScalar(ctx context.Context, field definition.Field, path string) error {
	label := promptLabel(field)

	for attempt := 0; ; attempt++ {
		if attempt >= s.maxAttempts {
			return fmt.Errorf("session: field %s: %w", path, ErrTooManyAttempts)
		}

		var raw string
		var err error
		switch {
		case secretField(field):
			raw, err = s.driver.Password(ctx, InputConfig{Message: label, Help: field.Description})
		case editorField(field):
			raw, err = s.driver.Editor(ctx, EditorConfig{
				Message: label,
				Default: s.promptDefault(path),
				Help:    field.Description,
			})
		default:
			raw, err = s.driver.Input(ctx, InputConfig{
				Message: label,
				Default: s.promptDefault(path),
				Help:    field.Description,
			})
		}
		if err != nil {
			return err
		}

		value, err := definition.CoerceValue(field, raw)
		if err != nil {
			s.inform(ctx, fmt.Sprintf("Invalid %s: %v", path, err))
			continue
		}
		ok, err := s.applyAnswer(ctx, path, value)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
}

func (s *Session) promptBoolean(ctx context.Context, field definition.Field, path string) error {
	def, _ := s.engine.Value(path).(bool)

	for attempt := 0; ; attempt++ {
		if attempt >= s.maxAttempts {
			return fmt.Errorf("session: field %s: %w", path, ErrTooManyAttempts)
		}
		answer, err := s.driver.Confirm(ctx, ConfirmConfig{
			Message: promptLabel(field),
			Default: def,
			Help:    field.Description,
		})
		if err != nil {
			return err
		}
		ok, err := s.applyAnswer(ctx, path, answer)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
}

func (s *Session) promptSelect(ctx context.Context, field definition.Field, path string) error {
	label := promptLabel(field)
	options := stringifyEnum(field.Enum)
	defaultIdx := indexOf(options, s.promptDefault(path))

	for attempt := 0; ; attempt++ {
		if attempt >= s.maxAttempts {
			return fmt.Errorf("session: field %s: %w", path, ErrTooManyAttempts)
		}
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      options,
			DefaultIndex: defaultIdx,
			Help:         field.Description,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(options) {
			s.inform(ctx, fmt.Sprintf("Invalid %s selection", path))
			continue
		}
		value, err := definition.CoerceValue(field, options[idx])
		if err != nil {
			s.inform(ctx, fmt.Sprintf("Invalid %s: %v", path, err))
			continue
		}
		ok, err := s.applyAnswer(ctx, path, value)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
}

func (s *Session) promptMultiSelect(ctx context.Context, field definition.Field, path string) error {
	label := promptLabel(field)
	options := stringifyEnum(enumValues(field))
	defaults := indicesOf(options, stringifySlice(s.arrayValue(path)))

	for attempt := 0; ; attempt++ {
		if attempt >= s.maxAttempts {
			return fmt.Errorf("session: field %s: %w", path, ErrTooManyAttempts)
		}
		indices, err := s.driver.MultiSelect(ctx, SelectConfig{
			Message:  label,
			Options:  options,
			Defaults: defaults,
			Help:     field.Description,
		})
		if err != nil {
			return err
		}
		value, err := definition.CoerceValues(field, optionsAt(options, indices))
		if err != nil {
			s.inform(ctx, fmt.Sprintf("Invalid %s: %v", path, err))
			continue
		}
		ok, err := s.applyAnswer(ctx, path, value)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
}

// promptItems collects array entries one at a time. Each round asks whether
// to add an entry, prompts for it through the item shape, and keeps going
// until the user stops and the collected list passes the field's validator.
func (s *Session) promptItems(ctx context.Context, field definition.Field, path string) error {
	label := promptLabel(field)
	item := itemField(field)

	attempts := 0
	for {
		count := len(s.arrayValue(path))
		cfg := ConfirmConfig{Message: "Add another?"}
		if count == 0 {
			cfg.Message = fmt.Sprintf("Add %s?", label)
			cfg.Default = field.Required
			cfg.Help = field.Description
		}
		add, err := s.driver.Confirm(ctx, cfg)
		if err != nil {
			return err
		}
		if add {
			if err := s.promptField(ctx, item, fieldpath.Index(path, count)); err != nil {
				return err
			}
			continue
		}

		if err := s.engine.SetFieldTouched(ctx, path, true); err != nil {
			return fmt.Errorf("session: touch %s: %w", path, err)
		}
		msg, err := s.engine.ValidateField(ctx, path)
		if err != nil {
			return fmt.Errorf("session: %w", err)
		}
		if msg == "" {
			return nil
		}
		s.inform(ctx, fmt.Sprintf("Invalid %s: %s", path, msg))
		attempts++
		if attempts >= s.maxAttempts {
			return fmt.Errorf("session: field %s: %w", path, ErrTooManyAttempts)
		}
	}
}

// applyAnswer writes one answered value and checks it against the field's
// registered validator. A false return means the answer was rejected and the
// prompt should run again.
func (s *Session) applyAnswer(ctx context.Context, path string, value any) (bool, error) {
	if err := s.engine.SetFieldValue(ctx, path, value); err != nil {
		return false, fmt.Errorf("session: set %s: %w", path, err)
	}
	if err := s.engine.SetFieldTouched(ctx, path, true); err != nil {
		return false, fmt.Errorf("session: touch %s: %w", path, err)
	}
	msg, err := s.engine.ValidateField(ctx, path)
	if err != nil {
		return false, fmt.Errorf("session: %w", err)
	}
	if msg != "" {
		s.inform(ctx, fmt.Sprintf("Invalid %s: %s", path, msg))
		return false, nil
	}
	return true, nil
}

func (s *Session) visibleNow(path string, field definition.Field) (bool, error) {
	rule := strings.TrimSpace(field.VisibleWhen)
	if rule == "" {
		return true, nil
	}
	visible, err := s.visibility.Eval(path, rule, visibility.Context{
		Values: s.engine.Values(),
		Extras: s.extras,
	})
	if err != nil {
		return false, fmt.Errorf("session: evaluate visibility for %q: %w", path, err)
	}
	return visible, nil
}

// reportValidation prints every message left in the error tree after a failed
// submit, usually whole-form validator findings the per-field checks could
// not catch.
func (s *Session) reportValidation(ctx context.Context) {
	flat := fieldpath.Flatten(s.engine.Errors())
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		msg, _ := flat[p].(string)
		if msg == "" {
			continue
		}
		target := p
		if target == "" {
			target = "form"
		}
		s.inform(ctx, fmt.Sprintf("Invalid %s: %s", target, msg))
	}
}

func (s *Session) emit(values map[string]any) error {
	switch s.output {
	case OutputFormatNone:
		return nil
	case OutputFormatYAML:
		data, err := yaml.Marshal(values)
		if err != nil {
			return fmt.Errorf("session: encode yaml: %w", err)
		}
		if _, err := s.writer.Write(data); err != nil {
			return fmt.Errorf("session: write output: %w", err)
		}
		return nil
	default:
		data, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return fmt.Errorf("session: encode json: %w", err)
		}
		data = append(data, '\n')
		if _, err := s.writer.Write(data); err != nil {
			return fmt.Errorf("session: write output: %w", err)
		}
		return nil
	}
}

func (s *Session) inform(ctx context.Context, msg string) {
	if err := s.driver.Info(ctx, msg); err != nil {
		s.logger.Warn("session: info prompt failed", "error", err)
	}
}

func (s *Session) arrayValue(path string) []any {
	arr, _ := s.engine.Value(path).([]any)
	return arr
}

func (s *Session) promptDefault(path string) string {
	switch v := s.engine.Value(path).(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func promptLabel(field definition.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}

func secretField(field definition.Field) bool {
	return field.Secret || field.Widget == widgets.WidgetPassword || strings.EqualFold(field.Format, "password")
}

func editorField(field definition.Field) bool {
	switch strings.ToLower(field.Format) {
	case "multiline", "markdown", "json", "yaml":
		return true
	}
	switch field.Widget {
	case widgets.WidgetTextarea, widgets.WidgetJSONEditor:
		return true
	}
	return false
}

func enumValues(field definition.Field) []any {
	if len(field.Enum) > 0 {
		return field.Enum
	}
	if field.Items != nil {
		return field.Items.Enum
	}
	return nil
}

func itemField(field definition.Field) definition.Field {
	if field.Items != nil {
		item := field.Items.Clone()
		if item.Name == "" {
			item.Name = field.Name
		}
		return item
	}
	return definition.Field{Name: field.Name, Type: definition.FieldTypeString}
}

func stringifyEnum(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, fmt.Sprint(v))
	}
	return out
}

func stringifySlice(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, fmt.Sprint(v))
	}
	return out
}
