// Package builder converts OpenAPI operations into form definitions. The
// request body schema drives the field list; x-formstate vendor extensions
// carry widget and presentation hints.
package builder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/definition"
	pkgopenapi "github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/validate"
)

const extensionNamespace = "x-formstate"

// Options configures the Builder.
type Options struct {
	// Labeler renders human labels from property names. Nil selects
	// DefaultLabeler.
	Labeler func(string) string
}

// Builder converts operations into definition forms.
type Builder struct {
	opts Options
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	opts := Options{Labeler: DefaultLabeler}
	if options.Labeler != nil {
		opts.Labeler = options.Labeler
	}
	return &Builder{opts: opts}
}

// Build transforms an OpenAPI operation into a form definition. The request
// body becomes the field tree; summary, description, method, and path flow
// into the form header.
func (b *Builder) Build(op pkgopenapi.Operation) (definition.Form, error) {
	if op.ID == "" {
		return definition.Form{}, fmt.Errorf("definition builder: operation id is required")
	}

	form := definition.Form{
		Name:        op.ID,
		Title:       op.Summary,
		Description: op.Description,
		Method:      strings.ToUpper(op.Method),
		Action:      op.Path,
	}
	if form.Title == "" {
		form.Title = b.opts.Labeler(op.ID)
	}

	hints := extensionHints(op.Extensions)
	mergeHints(hints, extensionHints(op.RequestBody.Extensions))
	applyFormHints(&form, hints)
	if op.Deprecated {
		if form.Metadata == nil {
			form.Metadata = make(map[string]string, 1)
		}
		form.Metadata["deprecated"] = "true"
	}

	fields, err := b.fieldsFromSchema("", op.RequestBody, true)
	if err != nil {
		return definition.Form{}, err
	}
	form.Fields = fields

	return form, nil
}

func (b *Builder) fieldsFromSchema(name string, schema pkgopenapi.Schema, required bool) ([]definition.Field, error) {
	if schema.Ref != "" && schema.Type == "" && len(schema.Properties) == 0 {
		// Unresolved reference; keep a stub so callers can see the gap.
		field := definition.Field{
			Name:        name,
			Type:        definition.FieldTypeObject,
			Required:    required,
			Label:       b.opts.Labeler(name),
			Description: schema.Description,
			Metadata:    map[string]string{"$ref": schema.Ref},
		}
		applyFieldHints(&field, extensionHints(schema.Extensions))
		return []definition.Field{field}, nil
	}

	switch schema.Type {
	case "object", "":
		return b.fieldsFromObject(name, schema, required)
	case "array":
		field, err := b.fieldFromArray(name, schema, required)
		if err != nil {
			return nil, err
		}
		return []definition.Field{field}, nil
	default:
		return []definition.Field{b.fieldFromPrimitive(name, schema, required)}, nil
	}
}

func (b *Builder) fieldsFromObject(name string, schema pkgopenapi.Schema, required bool) ([]definition.Field, error) {
	requiredSet := make(map[string]struct{}, len(schema.Required))
	for _, item := range schema.Required {
		requiredSet[item] = struct{}{}
	}

	propNames := make([]string, 0, len(schema.Properties))
	for propName := range schema.Properties {
		propNames = append(propNames, propName)
	}
	sort.Strings(propNames)

	var fields []definition.Field
	for _, propName := range propNames {
		_, isRequired := requiredSet[propName]
		converted, err := b.fieldsFromSchema(propName, schema.Properties[propName], isRequired)
		if err != nil {
			return nil, err
		}
		fields = append(fields, converted...)
	}

	if name == "" {
		return fields, nil
	}

	parent := definition.Field{
		Name:        name,
		Type:        definition.FieldTypeObject,
		Label:       b.opts.Labeler(name),
		Description: schema.Description,
		Required:    required,
		Default:     schema.Default,
		Nested:      fields,
	}
	if len(schema.Enum) > 0 {
		parent.Enum = append([]any(nil), schema.Enum...)
	}
	parent.Validations = validationRules(schema)
	applyFieldHints(&parent, extensionHints(schema.Extensions))
	return []definition.Field{parent}, nil
}

func (b *Builder) fieldFromArray(name string, schema pkgopenapi.Schema, required bool) (definition.Field, error) {
	if schema.Items == nil {
		return definition.Field{}, fmt.Errorf("definition builder: array field %q missing items", name)
	}

	nested, err := b.fieldsFromSchema(name+"Item", *schema.Items, false)
	if err != nil {
		return definition.Field{}, err
	}
	var items *definition.Field
	if len(nested) > 0 {
		item := nested[0]
		items = &item
	}

	field := definition.Field{
		Name:        name,
		Type:        definition.FieldTypeArray,
		Label:       b.opts.Labeler(name),
		Description: schema.Description,
		Required:    required,
		Default:     schema.Default,
		Items:       items,
	}
	if len(schema.Enum) > 0 {
		field.Enum = append([]any(nil), schema.Enum...)
	}
	field.Validations = validationRules(schema)
	applyFieldHints(&field, extensionHints(schema.Extensions))
	return field, nil
}

func (b *Builder) fieldFromPrimitive(name string, schema pkgopenapi.Schema, required bool) definition.Field {
	field := definition.Field{
		Name:        name,
		Type:        mapType(schema.Type),
		Format:      schema.Format,
		Label:       b.opts.Labeler(name),
		Description: schema.Description,
		Required:    required,
		Default:     schema.Default,
		ReadOnly:    schema.ReadOnly,
	}
	if len(schema.Enum) > 0 {
		field.Enum = append([]any(nil), schema.Enum...)
	}
	if strings.EqualFold(schema.Format, "password") {
		field.Secret = true
	}
	field.Validations = validationRules(schema)
	applyFieldHints(&field, extensionHints(schema.Extensions))
	return field
}

// mapType folds schema types onto the definition enum. Multi-type unions keep
// the first non-null member so nullable scalars stay scalars.
func mapType(schemaType string) definition.FieldType {
	primary := schemaType
	if strings.Contains(schemaType, ",") {
		for _, candidate := range strings.Split(schemaType, ",") {
			if candidate != "null" && candidate != "" {
				primary = candidate
				break
			}
		}
	}
	switch primary {
	case "integer":
		return definition.FieldTypeInteger
	case "number":
		return definition.FieldTypeNumber
	case "boolean":
		return definition.FieldTypeBoolean
	case "array":
		return definition.FieldTypeArray
	case "object":
		return definition.FieldTypeObject
	default:
		return definition.FieldTypeString
	}
}

// validationRules maps schema constraints onto declarative rules. Exclusive
// bounds keep an "exclusive" param for renderers; the engine treats bounds as
// inclusive.
func validationRules(schema pkgopenapi.Schema) []validate.Rule {
	var rules []validate.Rule

	if schema.Minimum != nil {
		params := map[string]string{"value": formatFloat(*schema.Minimum)}
		if schema.ExclusiveMinimum {
			params["exclusive"] = "true"
		}
		rules = append(rules, validate.Rule{Kind: validate.RuleMin, Params: params})
	}
	if schema.Maximum != nil {
		params := map[string]string{"value": formatFloat(*schema.Maximum)}
		if schema.ExclusiveMaximum {
			params["exclusive"] = "true"
		}
		rules = append(rules, validate.Rule{Kind: validate.RuleMax, Params: params})
	}
	if schema.MinLength != nil {
		rules = append(rules, validate.Rule{
			Kind:   validate.RuleMinLength,
			Params: map[string]string{"value": strconv.Itoa(*schema.MinLength)},
		})
	}
	if schema.MaxLength != nil {
		rules = append(rules, validate.Rule{
			Kind:   validate.RuleMaxLength,
			Params: map[string]string{"value": strconv.Itoa(*schema.MaxLength)},
		})
	}
	if schema.MinItems != nil {
		rules = append(rules, validate.Rule{
			Kind:   validate.RuleMinLength,
			Params: map[string]string{"value": strconv.Itoa(*schema.MinItems)},
		})
	}
	if schema.MaxItems != nil {
		rules = append(rules, validate.Rule{
			Kind:   validate.RuleMaxLength,
			Params: map[string]string{"value": strconv.Itoa(*schema.MaxItems)},
		})
	}
	if schema.Pattern != "" {
		rules = append(rules, validate.Rule{
			Kind:   validate.RulePattern,
			Params: map[string]string{"pattern": schema.Pattern},
		})
	}

	return rules
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
