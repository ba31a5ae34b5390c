package validate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	tagEngineOnce sync.Once
	tagEngine     *validator.Validate
)

func engine() *validator.Validate {
	tagEngineOnce.Do(func() {
		tagEngine = validator.New()
	})
	return tagEngine
}

// Tag returns a Field that checks values against a go-playground/validator
// tag expression such as "email" or "gte=0,lte=120". Invalid input yields a
// message, a broken tag expression yields an error.
func Tag(tag string) Field {
	return FieldFunc(func(ctx context.Context, value any) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		err := engine().VarCtx(ctx, value, tag)
		if err == nil {
			return "", nil
		}

		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return tagMessage(fieldErrs[0]), nil
		}
		return "", fmt.Errorf("validate: tag %q: %w", tag, err)
	})
}

// Format resolves a schema format name to a tag-backed Field. The second
// return reports whether the format is known.
func Format(name string) (Field, bool) {
	tag, ok := formatTags[name]
	if !ok {
		return nil, false
	}
	return Tag(tag), true
}

// formatTags maps OpenAPI-style format names onto validator tags. Date
// formats pin the accepted layout instead of delegating to a tag keyword.
var formatTags = map[string]string{
	"email":     "email",
	"uuid":      "uuid",
	"uri":       "url",
	"url":       "url",
	"hostname":  "hostname",
	"ipv4":      "ipv4",
	"ipv6":      "ipv6",
	"date":      "datetime=2006-01-02",
	"date-time": "datetime=2006-01-02T15:04:05Z07:00",
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid uuid"
	case "url":
		return "must be a valid url"
	case "hostname":
		return "must be a valid hostname"
	case "ipv4", "ipv6":
		return "must be a valid " + fe.Tag() + " address"
	case "datetime":
		return "must match format " + fe.Param()
	case "gte", "min":
		return "min " + fe.Param()
	case "lte", "max":
		return "max " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s check", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
