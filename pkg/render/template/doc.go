// Package template defines the engine-agnostic template contract renderers
// depend on, decoupling them from any one template library. The gotemplate
// subpackage ships the default pongo2-backed implementation.
package template
