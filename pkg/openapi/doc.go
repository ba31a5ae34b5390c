// Package openapi exposes the public contracts for turning OpenAPI documents
// into form definitions: sources, raw document wrappers, and the loader and
// parser interfaces. Implementations live under internal/openapi so the
// kin-openapi dependency stays hidden from consumers.
package openapi
