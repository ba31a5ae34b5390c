package parser

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	pkgopenapi "github.com/goliatone/go-formstate/pkg/openapi"
)

// extensionNamespace is the vendor prefix whose keys survive conversion. Both
// the grouped form (x-formstate: {widget: textarea}) and flattened keys
// (x-formstate-widget: textarea) are kept.
const extensionNamespace = "x-formstate"

// converter tracks schemas on the current descent path so reference cycles
// degrade to a bare Ref instead of recursing forever.
type converter struct {
	seen map[*openapi3.Schema]bool
}

func convertSchema(ref *openapi3.SchemaRef) pkgopenapi.Schema {
	c := &converter{seen: make(map[*openapi3.Schema]bool)}
	return c.convert(ref)
}

func (c *converter) convert(ref *openapi3.SchemaRef) pkgopenapi.Schema {
	if ref == nil {
		return pkgopenapi.Schema{}
	}
	if ref.Value == nil {
		return pkgopenapi.Schema{Ref: ref.Ref}
	}
	if c.seen[ref.Value] {
		return pkgopenapi.Schema{Ref: ref.Ref}
	}
	c.seen[ref.Value] = true
	defer delete(c.seen, ref.Value)

	src := ref.Value
	schema := pkgopenapi.Schema{
		Ref:         ref.Ref,
		Type:        firstSchemaType(src.Type),
		Format:      src.Format,
		Description: src.Description,
		Default:     src.Default,
		Pattern:     src.Pattern,
		ReadOnly:    src.ReadOnly,
		WriteOnly:   src.WriteOnly,
	}

	if len(src.Required) > 0 {
		schema.Required = append([]string(nil), src.Required...)
	}
	if len(src.Enum) > 0 {
		schema.Enum = append([]any(nil), src.Enum...)
	}
	if len(src.Properties) > 0 {
		schema.Properties = make(map[string]pkgopenapi.Schema, len(src.Properties))
		for name, property := range src.Properties {
			schema.Properties[name] = c.convert(property)
		}
	}
	if src.Items != nil {
		items := c.convert(src.Items)
		schema.Items = &items
	}
	if src.Min != nil {
		value := *src.Min
		schema.Minimum = &value
		schema.ExclusiveMinimum = src.ExclusiveMin
	}
	if src.Max != nil {
		value := *src.Max
		schema.Maximum = &value
		schema.ExclusiveMaximum = src.ExclusiveMax
	}
	if src.MinLength != 0 {
		value := int(src.MinLength)
		schema.MinLength = &value
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		schema.MaxLength = &value
	}
	if src.MinItems != 0 {
		value := int(src.MinItems)
		schema.MinItems = &value
	}
	if src.MaxItems != nil {
		value := int(*src.MaxItems)
		schema.MaxItems = &value
	}
	schema.Extensions = extractExtensions(src.Extensions)
	c.mergeAllOf(&schema, src.AllOf)
	return schema
}

// mergeAllOf folds allOf branches into the target so composed request bodies
// come out as one flat object schema.
func (c *converter) mergeAllOf(target *pkgopenapi.Schema, refs openapi3.SchemaRefs) {
	for _, ref := range refs {
		if ref == nil {
			continue
		}
		mergeSchema(target, c.convert(ref))
	}
}

// mergeSchema copies branch fields the target does not already set. Property
// and required unions keep the target's entries on collision.
func mergeSchema(target *pkgopenapi.Schema, branch pkgopenapi.Schema) {
	if target.Type == "" {
		target.Type = branch.Type
	}
	if target.Format == "" {
		target.Format = branch.Format
	}
	if target.Description == "" {
		target.Description = branch.Description
	}
	if target.Default == nil {
		target.Default = branch.Default
	}
	if len(target.Enum) == 0 {
		target.Enum = branch.Enum
	}
	if target.Pattern == "" {
		target.Pattern = branch.Pattern
	}
	if target.Minimum == nil && branch.Minimum != nil {
		target.Minimum = branch.Minimum
		target.ExclusiveMinimum = branch.ExclusiveMinimum
	}
	if target.Maximum == nil && branch.Maximum != nil {
		target.Maximum = branch.Maximum
		target.ExclusiveMaximum = branch.ExclusiveMaximum
	}
	if target.MinLength == nil {
		target.MinLength = branch.MinLength
	}
	if target.MaxLength == nil {
		target.MaxLength = branch.MaxLength
	}
	if target.MinItems == nil {
		target.MinItems = branch.MinItems
	}
	if target.MaxItems == nil {
		target.MaxItems = branch.MaxItems
	}
	if target.Items == nil {
		target.Items = branch.Items
	}
	target.ReadOnly = target.ReadOnly || branch.ReadOnly
	target.WriteOnly = target.WriteOnly || branch.WriteOnly

	for _, name := range branch.Required {
		if !containsString(target.Required, name) {
			target.Required = append(target.Required, name)
		}
	}

	if len(branch.Properties) > 0 {
		if target.Properties == nil {
			target.Properties = make(map[string]pkgopenapi.Schema, len(branch.Properties))
		}
		for name, property := range branch.Properties {
			if _, exists := target.Properties[name]; !exists {
				target.Properties[name] = property
			}
		}
	}

	if len(branch.Extensions) > 0 {
		if target.Extensions == nil {
			target.Extensions = make(map[string]any, len(branch.Extensions))
		}
		for key, value := range branch.Extensions {
			if _, exists := target.Extensions[key]; !exists {
				target.Extensions[key] = value
			}
		}
	}
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		return strings.Join(values, ",")
	}
}

func extractExtensions(raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return nil
	}

	result := make(map[string]any)
	for key, value := range raw {
		switch {
		case key == extensionNamespace:
			if mapped, ok := cloneMap(value); ok {
				if len(mapped) > 0 {
					result[key] = mapped
				}
			} else {
				// Keep malformed payloads so lint tooling can report them.
				result[key] = value
			}
		case strings.HasPrefix(key, extensionNamespace+"-"):
			result[key] = value
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func cloneMap(value any) (map[string]any, bool) {
	mapped, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	cloned := make(map[string]any, len(mapped))
	for k, v := range mapped {
		cloned[k] = v
	}
	return cloned, true
}

func containsString(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}
