package tools

import (
	"encoding/json"
	"fmt"
	"math"

	apperrors "doubao-image-mcp/internal/errors"
)

// Argument decoding for the untyped tool-call mapping. Every field is
// converted explicitly with its documented default; a mistyped field is a
// validation error here, never a downstream fault.

func stringArg(args map[string]any, key, def string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", apperrors.NewValidationError(fmt.Sprintf("%s must be a string", key), nil)
	}
	return s, nil
}

func intArg(args map[string]any, key string, def int) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		// JSON numbers decode as float64; reject fractional values.
		if v != math.Trunc(v) {
			return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be an integer", key), nil)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be an integer", key), err)
		}
		return int(n), nil
	default:
		return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be an integer", key), nil)
	}
}

func boolArg(args map[string]any, key string, def bool) (bool, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, apperrors.NewValidationError(fmt.Sprintf("%s must be a boolean", key), nil)
	}
	return b, nil
}

func stringSliceArg(args map[string]any, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, apperrors.NewValidationError(fmt.Sprintf("%s must be an array of strings", key), nil)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("%s must be an array of strings", key), nil)
	}
}
