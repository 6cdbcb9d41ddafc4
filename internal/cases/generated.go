package cases

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/moamenhredeen/jptest/internal/generator"
	"github.com/moamenhredeen/jptest/internal/models"
	"github.com/moamenhredeen/jptest/internal/parser"
)

// GeneratedGroup is the group of cases built by Generated.
const GeneratedGroup = "create_generated_post"

// Generated builds n POST /posts cases whose payloads come from the request
// body schema of that operation. Each expects a 201 with every sent field
// echoed back.
func Generated(n int, gen *generator.Generator, p *parser.Parser) ([]models.Case, error) {
	if n <= 0 {
		return nil, nil
	}
	details, err := p.GetOperationDetails("/posts", http.MethodPost)
	if err != nil {
		return nil, fmt.Errorf("failed to load payload schema: %w", err)
	}
	schema, _, err := generator.BodySchema(details.RequestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to load payload schema: %w", err)
	}

	out := make([]models.Case, 0, n)
	for i := 1; i <= n; i++ {
		body, err := gen.GenerateObject(schema)
		if err != nil {
			return nil, fmt.Errorf("failed to generate payload %d: %w", i, err)
		}

		c := newCase(GeneratedGroup, fmt.Sprintf("generated_%d", i),
			"POST /posts with a schema generated payload",
			http.MethodPost, "/posts")
		c.Body = body
		c.Expect.Status = http.StatusCreated

		keys := make([]string, 0, len(body))
		for k := range body {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			c.Expect.Fields = append(c.Expect.Fields, models.FieldExpectation{Path: "$." + k, Value: body[k]})
		}

		c.Record = []models.PropertySource{{Name: "response_id", Path: "$.id"}}
		if title, ok := body["title"]; ok {
			c.Record = append(c.Record, models.PropertySource{Name: "title_sent", Value: title})
		}
		c.Card = []models.PropertySource{
			{Name: "Title", Path: "$.title"},
			{Name: "Response ID", Path: "$.id"},
		}
		out = append(out, c)
	}
	return out, nil
}
