// Command formstate-lint checks form definition files and OpenAPI documents
// for problems the loaders tolerate silently: unknown rule kinds, duplicate
// field names, visibility expressions that do not parse, and x-formstate
// extension keys the builder would drop. Violations print one per line as
// "file: location: message"; the exit code is 1 when any are found.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/internal/definition/builder"
	"github.com/goliatone/go-formstate/pkg/definition"
	pkgopenapi "github.com/goliatone/go-formstate/pkg/openapi"
)

const extensionNamespace = "x-formstate"

type violation struct {
	file     string
	location string
	message  string
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [paths...]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(flag.CommandLine.Output(), "\nLint form definition files and OpenAPI documents.\n")
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()

	var violations []violation
	for _, path := range paths {
		found, err := lintFile(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: %v\n", path, err)
			os.Exit(1)
		}
		violations = append(violations, found...)
	}

	if len(violations) == 0 {
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].file != violations[j].file {
			return violations[i].file < violations[j].file
		}
		if violations[i].location != violations[j].location {
			return violations[i].location < violations[j].location
		}
		return violations[i].message < violations[j].message
	})
	for _, v := range violations {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", v.file, v.location, v.message)
	}
	os.Exit(1)
}

func lintFile(ctx context.Context, path string) ([]violation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if pkgopenapi.DetectDocument(raw) {
		return lintOpenAPI(ctx, path, raw)
	}
	return lintDefinition(path, raw)
}

func lintDefinition(path string, raw []byte) ([]violation, error) {
	def, err := definition.Parse(raw)
	if err != nil {
		return nil, err
	}
	if def.Name == "" {
		// Directory loading names nameless files after the file; mirror that
		// so the fallback does not count as a violation.
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return collect(path, "", def.Lint()), nil
}

func lintOpenAPI(ctx context.Context, path string, raw []byte) ([]violation, error) {
	doc, err := pkgopenapi.NewDocument(pkgopenapi.SourceFromFile(path), raw)
	if err != nil {
		return nil, err
	}

	parser := formstate.NewParser(
		pkgopenapi.WithPartialDocuments(true),
		pkgopenapi.WithReferenceResolution(false),
	)
	operations, err := parser.Operations(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("parse operations: %w", err)
	}

	build := builder.New(builder.Options{})

	ids := make([]string, 0, len(operations))
	for id := range operations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var result []violation
	for _, id := range ids {
		op := operations[id]
		base := "operation " + id

		def, err := build.Build(op)
		if err != nil {
			result = append(result, violation{file: path, location: base, message: err.Error()})
		} else {
			result = append(result, collect(path, base, def.Lint())...)
		}

		result = append(result, lintExtensions(path, base, op.Extensions)...)
		result = append(result, lintExtensions(path, base+" > requestBody", op.RequestBody.Extensions)...)
		result = append(result, lintSchema(path, base+" > requestBody", op.RequestBody)...)

		codes := make([]string, 0, len(op.Responses))
		for code := range op.Responses {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			location := base + " > responses > " + code
			result = append(result, lintExtensions(path, location, op.Responses[code].Extensions)...)
			result = append(result, lintSchema(path, location, op.Responses[code])...)
		}
	}

	return result, nil
}

// collect maps definition lint findings onto violations under an optional
// location prefix.
func collect(file, prefix string, found []definition.Violation) []violation {
	result := make([]violation, 0, len(found))
	for _, v := range found {
		location := v.Path
		if location == "" {
			location = "form"
		}
		if prefix != "" {
			location = prefix + " > " + location
		}
		result = append(result, violation{file: file, location: location, message: v.Message})
	}
	return result
}

func lintSchema(file, location string, schema pkgopenapi.Schema) []violation {
	var result []violation

	if len(schema.Properties) > 0 {
		names := make([]string, 0, len(schema.Properties))
		for name := range schema.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			next := location + " > properties." + name
			property := schema.Properties[name]
			result = append(result, lintExtensions(file, next, property.Extensions)...)
			result = append(result, lintSchema(file, next, property)...)
		}
	}

	if schema.Items != nil {
		next := location + " > items"
		result = append(result, lintExtensions(file, next, schema.Items.Extensions)...)
		result = append(result, lintSchema(file, next, *schema.Items)...)
	}

	return result
}

func lintExtensions(file, location string, extensions map[string]any) []violation {
	if len(extensions) == 0 {
		return nil
	}

	keys := make([]string, 0, len(extensions))
	for key := range extensions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var result []violation
	for _, key := range keys {
		value := extensions[key]
		switch {
		case key == extensionNamespace:
			grouped, ok := value.(map[string]any)
			if !ok {
				result = append(result, violation{
					file:     file,
					location: location,
					message:  fmt.Sprintf("%s must be an object, found %T", extensionNamespace, value),
				})
				continue
			}
			nested := make([]string, 0, len(grouped))
			for nestedKey := range grouped {
				nested = append(nested, nestedKey)
			}
			sort.Strings(nested)
			for _, nestedKey := range nested {
				result = append(result, checkHint(file, location, nestedKey, grouped[nestedKey])...)
			}
		case strings.HasPrefix(key, extensionNamespace+"-"):
			trimmed := strings.TrimPrefix(key, extensionNamespace+"-")
			result = append(result, checkHint(file, location, trimmed, value)...)
		}
	}

	return result
}

func checkHint(file, location, key string, value any) []violation {
	if key == "" {
		return []violation{{file: file, location: location, message: "extension key is empty"}}
	}
	if !builder.IsKnownHintKey(key) {
		return []violation{{
			file:     file,
			location: location,
			message:  fmt.Sprintf("unknown hint key %q (known: %s)", key, strings.Join(builder.KnownHintKeys(), ", ")),
		}}
	}
	if !builder.RenderableHintValue(value) {
		return []violation{{
			file:     file,
			location: location,
			message:  fmt.Sprintf("value for %q must be a non-empty string, number, or boolean (got %T)", key, value),
		}}
	}
	return nil
}
