package services

import (
	"fmt"
	"math"
)

// ValidateSchema checks a parsed LLM response against the subset of JSON
// schema the block definitions use: object/array/string/boolean/integer/
// number types, required properties and nested items. Unknown properties are
// tolerated; a missing optional property is not an error.
func ValidateSchema(schema map[string]any, value any) error {
	return validateValue(schema, value, "$")
}

func validateValue(schema map[string]any, value any, path string) error {
	typ, _ := schema["type"].(string)
	switch typ {
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object, got %T", path, value)
		}
		if required, ok := schema["required"].([]string); ok {
			for _, req := range required {
				if _, present := obj[req]; !present {
					return fmt.Errorf("%s: missing required property %q", path, req)
				}
			}
		}
		props, _ := schema["properties"].(map[string]any)
		for name, raw := range obj {
			propSchema, ok := props[name].(map[string]any)
			if !ok {
				continue
			}
			if raw == nil {
				continue
			}
			if err := validateValue(propSchema, raw, path+"."+name); err != nil {
				return err
			}
		}
		return nil

	case "array":
		arr, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%s: expected array, got %T", path, value)
		}
		items, ok := schema["items"].(map[string]any)
		if !ok {
			return nil
		}
		for i, item := range arr {
			if err := validateValue(items, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil

	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%s: expected string, got %T", path, value)
		}
		return nil

	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%s: expected boolean, got %T", path, value)
		}
		return nil

	case "integer":
		switch v := value.(type) {
		case int:
			return nil
		case float64:
			if v != math.Trunc(v) {
				return fmt.Errorf("%s: expected integer, got %v", path, v)
			}
			return nil
		default:
			return fmt.Errorf("%s: expected integer, got %T", path, value)
		}

	case "number":
		switch value.(type) {
		case int, float64:
			return nil
		default:
			return fmt.Errorf("%s: expected number, got %T", path, value)
		}
	}
	return nil
}
