package tester

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/PaesslerAG/jsonpath"
	"github.com/moamenhredeen/jptest/internal/models"
)

// checkExpectations lists every way the response falls short of the case's
// expectations. An empty result means the case passed.
func checkExpectations(expect models.Expectation, statusCode int, doc interface{}, decodeErr error) []string {
	var failures []string

	if expect.Status != 0 && statusCode != expect.Status {
		failures = append(failures, fmt.Sprintf("expected status %d, got %d", expect.Status, statusCode))
	}

	if len(expect.Fields) == 0 {
		return failures
	}
	if decodeErr != nil {
		return append(failures, fmt.Sprintf("response body is not valid JSON: %v", decodeErr))
	}

	for _, field := range expect.Fields {
		actual, err := lookup(field.Path, doc)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: not found in response", field.Path))
			continue
		}
		if !valuesEqual(field.Value, actual) {
			failures = append(failures, fmt.Sprintf("%s: expected %s, got %s",
				field.Path, formatValue(field.Value), formatValue(actual)))
		}
	}
	return failures
}

// lookup evaluates a JSONPath against a decoded body
func lookup(path string, doc interface{}) (interface{}, error) {
	if doc == nil {
		return nil, fmt.Errorf("no document")
	}
	return jsonpath.Get(path, doc)
}

// resolveProperties turns property sources into values. Paths that do not
// resolve record a nil value rather than failing the case.
func resolveProperties(sources []models.PropertySource, doc interface{}) []models.Property {
	props := make([]models.Property, 0, len(sources))
	for _, src := range sources {
		value := src.Value
		if src.Path != "" {
			value, _ = lookup(src.Path, doc)
		}
		props = append(props, models.Property{Name: src.Name, Value: value})
	}
	return props
}

func decodeJSON(body []byte) (interface{}, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// valuesEqual compares an expected value with one decoded from JSON. All
// numbers compare as float64 so 1 and 1.0 are equal.
func valuesEqual(expected, actual interface{}) bool {
	return reflect.DeepEqual(normalize(expected), normalize(actual))
}

func normalize(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case map[string]interface{}:
		out := make(map[string]interface{}, len(n))
		for k, val := range n {
			out[k] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(n))
		for i, val := range n {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case nil:
		return "null"
	default:
		if b, err := json.Marshal(val); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", val)
	}
}
