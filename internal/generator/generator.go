package generator

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

const (
	defaultMaxLength = 24
	defaultMaxItems  = 3
	defaultMaxNumber = 100
)

// dates are generated relative to a fixed day so seeded output never drifts
var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

var vocabulary = []string{
	"lorem", "ipsum", "dolor", "sit", "amet", "sunt", "aut", "facere",
	"repellat", "provident", "qui", "est", "esse", "quia", "et", "nihil",
}

// Generator produces payload values from OpenAPI schemas
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator seeded from the clock
func NewGenerator() *Generator {
	return NewGeneratorWithSeed(time.Now().UnixNano())
}

// NewGeneratorWithSeed returns a generator whose output is reproducible
func NewGeneratorWithSeed(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// GenerateValue generates a value for schema. Examples win over defaults,
// defaults over enums, enums over random values.
func (g *Generator) GenerateValue(schema *base.Schema) (interface{}, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema is nil")
	}

	if schema.Example != nil {
		var v interface{}
		if err := schema.Example.Decode(&v); err == nil {
			return v, nil
		}
	}
	if schema.Default != nil {
		var v interface{}
		if err := schema.Default.Decode(&v); err == nil {
			return v, nil
		}
	}

	if len(schema.Enum) > 0 {
		var v interface{}
		if err := schema.Enum[g.rng.Intn(len(schema.Enum))].Decode(&v); err != nil {
			return nil, fmt.Errorf("failed to decode enum value: %w", err)
		}
		return v, nil
	}

	switch schemaType(schema) {
	case "string":
		return g.generateString(schema), nil
	case "integer":
		return g.generateInteger(schema), nil
	case "number":
		return g.generateNumber(schema), nil
	case "boolean":
		return g.rng.Intn(2) == 1, nil
	case "array":
		return g.generateArray(schema)
	case "object":
		return g.generateObject(schema, true)
	case "":
		if schema.Format != "" {
			return g.generateFromFormat(schema.Format), nil
		}
		return "", nil
	default:
		return nil, fmt.Errorf("unsupported schema type %q", schemaType(schema))
	}
}

// GenerateObject builds a payload for an object schema. Only required
// properties are filled so the result is stable for a given seed.
func (g *Generator) GenerateObject(schema *base.Schema) (map[string]interface{}, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema is nil")
	}
	return g.generateObject(schema, false)
}

// BodySchema picks the schema of a request body, preferring a JSON media
// type, and returns it with the chosen content type.
func BodySchema(requestBody *v3.RequestBody) (*base.Schema, string, error) {
	if requestBody == nil {
		return nil, "", fmt.Errorf("request body is nil")
	}
	if requestBody.Content == nil || requestBody.Content.Len() == 0 {
		return nil, "", fmt.Errorf("no content defined in request body")
	}

	var contentType string
	var media *v3.MediaType
	for pair := requestBody.Content.First(); pair != nil; pair = pair.Next() {
		if media == nil || strings.Contains(pair.Key(), "json") {
			contentType, media = pair.Key(), pair.Value()
		}
		if strings.Contains(contentType, "json") {
			break
		}
	}

	if media == nil || media.Schema == nil {
		return nil, "", fmt.Errorf("no schema found for %s", contentType)
	}
	schema := media.Schema.Schema()
	if schema == nil {
		return nil, "", fmt.Errorf("schema for %s could not be resolved", contentType)
	}
	return schema, contentType, nil
}

func schemaType(schema *base.Schema) string {
	for _, t := range schema.Type {
		if t != "null" {
			return t
		}
	}
	return ""
}

func (g *Generator) generateString(schema *base.Schema) string {
	if schema.Format != "" {
		if s, ok := g.generateFromFormat(schema.Format).(string); ok {
			return s
		}
	}

	minLength, maxLength := 0, defaultMaxLength
	if schema.MinLength != nil {
		minLength = int(*schema.MinLength)
	}
	if schema.MaxLength != nil {
		maxLength = int(*schema.MaxLength)
	}
	maxLength = max(maxLength, minLength)

	length := minLength + g.rng.Intn(maxLength-minLength+1)
	if length == 0 && maxLength > 0 {
		length = 1
	}
	return g.words(length)
}

// words fills exactly n characters with space separated vocabulary
func (g *Generator) words(n int) string {
	var b strings.Builder
	for b.Len() < n {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(vocabulary[g.rng.Intn(len(vocabulary))])
	}
	out := strings.TrimSpace(b.String()[:n])
	for len(out) < n {
		out += "a"
	}
	return out
}

func bounds(schema *base.Schema) (float64, float64) {
	lo, hi := 0.0, float64(defaultMaxNumber)
	if schema.Minimum != nil {
		lo = *schema.Minimum
		if schema.Maximum == nil && hi < lo {
			hi = lo + defaultMaxNumber
		}
	}
	if schema.Maximum != nil {
		hi = *schema.Maximum
	}
	return lo, max(lo, hi)
}

func (g *Generator) generateInteger(schema *base.Schema) int {
	lo, hi := bounds(schema)
	if int(hi) <= int(lo) {
		return int(lo)
	}
	return int(lo) + g.rng.Intn(int(hi)-int(lo)+1)
}

func (g *Generator) generateNumber(schema *base.Schema) float64 {
	lo, hi := bounds(schema)
	return lo + g.rng.Float64()*(hi-lo)
}

func (g *Generator) generateArray(schema *base.Schema) ([]interface{}, error) {
	minItems, maxItems := 1, defaultMaxItems
	if schema.MinItems != nil {
		minItems = int(*schema.MinItems)
	}
	if schema.MaxItems != nil {
		maxItems = int(*schema.MaxItems)
	}
	maxItems = max(maxItems, minItems)
	count := minItems + g.rng.Intn(maxItems-minItems+1)

	var items *base.Schema
	if schema.Items != nil && schema.Items.IsA() && schema.Items.A != nil {
		items = schema.Items.A.Schema()
	}

	result := make([]interface{}, count)
	for i := range result {
		if items == nil {
			result[i] = g.words(5)
			continue
		}
		val, err := g.GenerateValue(items)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		result[i] = val
	}
	return result, nil
}

// generateObject fills required properties and, when optional is set, a
// random half of the others.
func (g *Generator) generateObject(schema *base.Schema, optional bool) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	if schema.Properties == nil {
		if len(schema.Required) > 0 {
			return nil, fmt.Errorf("required property %s is not declared", schema.Required[0])
		}
		return result, nil
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		if _, ok := schema.Properties.Get(name); !ok {
			return nil, fmt.Errorf("required property %s is not declared", name)
		}
		required[name] = true
	}

	for pair := schema.Properties.First(); pair != nil; pair = pair.Next() {
		name := pair.Key()
		if !required[name] && !(optional && g.rng.Intn(2) == 1) {
			continue
		}
		var propSchema *base.Schema
		if pair.Value() != nil {
			propSchema = pair.Value().Schema()
		}
		if propSchema == nil {
			return nil, fmt.Errorf("property %s has no schema", name)
		}
		val, err := g.GenerateValue(propSchema)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		result[name] = val
	}
	return result, nil
}

func (g *Generator) generateFromFormat(format string) interface{} {
	switch format {
	case "date":
		return epoch.AddDate(0, 0, g.rng.Intn(365)).Format(time.DateOnly)
	case "date-time":
		return epoch.Add(time.Duration(g.rng.Int63n(int64(365 * 24 * time.Hour)))).Format(time.RFC3339)
	case "email":
		return fmt.Sprintf("%s@example.com", vocabulary[g.rng.Intn(len(vocabulary))])
	case "uri", "url":
		return "https://example.com/" + vocabulary[g.rng.Intn(len(vocabulary))]
	case "uuid":
		id, err := uuid.NewRandomFromReader(g.rng)
		if err != nil {
			return uuid.Nil.String()
		}
		return id.String()
	case "int32":
		return int(g.rng.Int31n(defaultMaxNumber))
	case "int64":
		return int(g.rng.Int63n(defaultMaxNumber))
	case "float", "double":
		return g.rng.Float64() * defaultMaxNumber
	default:
		return g.words(8)
	}
}
