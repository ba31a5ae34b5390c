// Package jsonsnap renders a machine-readable snapshot of a definition plus
// its render-time state. Output is deterministic: map keys serialise sorted,
// so the same inputs always produce the same bytes, and the definition digest
// lets clients detect schema drift without diffing the whole document.
package jsonsnap

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/fieldpath"
	"github.com/goliatone/go-formstate/pkg/render"
)

// Option customises the renderer configuration.
type Option func(*Renderer)

// WithIndent pretty-prints the snapshot for logs and fixtures.
func WithIndent() Option {
	return func(r *Renderer) {
		r.indent = true
	}
}

// Renderer serialises definitions and state as stable JSON.
type Renderer struct {
	indent bool
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the JSON snapshot renderer.
func New(options ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Name identifies the renderer inside the registry.
func (r *Renderer) Name() string {
	return "json"
}

// ContentType returns the MIME type for generated documents.
func (r *Renderer) ContentType() string {
	return "application/json; charset=utf-8"
}

type snapshot struct {
	Digest     string              `json:"digest"`
	Definition json.RawMessage     `json:"definition"`
	Values     map[string]any      `json:"values,omitempty"`
	Errors     map[string][]string `json:"errors,omitempty"`
	Touched    map[string]bool     `json:"touched,omitempty"`
	Meta       snapshotMeta        `json:"meta"`
}

type snapshotMeta struct {
	Action         string         `json:"action,omitempty"`
	Method         string         `json:"method"`
	MethodOverride string         `json:"methodOverride,omitempty"`
	Hidden         []hiddenField  `json:"hidden,omitempty"`
	Theme          *themeIdentity `json:"theme,omitempty"`
	Extras         map[string]any `json:"extras,omitempty"`
}

type hiddenField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type themeIdentity struct {
	Name    string `json:"name"`
	Variant string `json:"variant,omitempty"`
}

// Render serialises the snapshot. Values accept both flat dotted paths and
// nested trees and always emit nested, mirroring the submission payload
// shape; errors and touched stay keyed by path the way options carry them.
func (r *Renderer) Render(_ context.Context, def definition.Form, opts render.Options) ([]byte, error) {
	canonical, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("jsonsnap renderer: marshal definition: %w", err)
	}
	sum := sha256.Sum256(canonical)

	method, override := render.SubmitMethod(def, opts)

	snap := snapshot{
		Digest:     "sha256:" + hex.EncodeToString(sum[:]),
		Definition: canonical,
		Values:     nestedValues(opts.Values),
		Errors:     fieldErrors(opts.Errors),
		Touched:    touchedPaths(opts.Touched),
		Meta: snapshotMeta{
			Action:         render.SubmitAction(def, opts),
			Method:         method,
			MethodOverride: override,
			Hidden:         hiddenFields(opts.Hidden),
			Theme:          themeMeta(opts),
			Extras:         opts.Extras,
		},
	}

	if r.indent {
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("jsonsnap renderer: marshal snapshot: %w", err)
		}
		return data, nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("jsonsnap renderer: marshal snapshot: %w", err)
	}
	return data, nil
}

func nestedValues(flat map[string]any) map[string]any {
	if len(flat) == 0 {
		return nil
	}
	tree := make(map[string]any)
	for path, value := range flat {
		next, err := fieldpath.Set(tree, path, value)
		if err != nil {
			continue
		}
		tree = next
	}
	if len(tree) == 0 {
		return nil
	}
	return tree
}

func fieldErrors(errs map[string][]string) map[string][]string {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string][]string, len(errs))
	for path, messages := range errs {
		kept := make([]string, 0, len(messages))
		for _, msg := range messages {
			if strings.TrimSpace(msg) == "" {
				continue
			}
			kept = append(kept, msg)
		}
		if len(kept) > 0 {
			out[path] = kept
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func touchedPaths(touched map[string]bool) map[string]bool {
	if len(touched) == 0 {
		return nil
	}
	out := make(map[string]bool, len(touched))
	for path, flag := range touched {
		if flag {
			out[path] = true
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func hiddenFields(fields []render.HiddenField) []hiddenField {
	merged := render.MergeHiddenFields(nil, fields...)
	if len(merged) == 0 {
		return nil
	}
	sorted := render.SortedHiddenFields(merged)
	out := make([]hiddenField, len(sorted))
	for i, field := range sorted {
		out[i] = hiddenField(field)
	}
	return out
}

func themeMeta(opts render.Options) *themeIdentity {
	if opts.Theme == nil {
		return nil
	}
	name := strings.TrimSpace(opts.Theme.Theme)
	variant := strings.TrimSpace(opts.Theme.Variant)
	if name == "" && variant == "" {
		return nil
	}
	return &themeIdentity{Name: name, Variant: variant}
}
