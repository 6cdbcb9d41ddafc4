package tester

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/moamenhredeen/jptest/internal/models"
	"github.com/moamenhredeen/jptest/internal/parser"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

// Validator checks responses against the operation the OpenAPI description
// declares for them
type Validator struct {
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateResponse validates an already read response. The body is passed
// separately because the caller has consumed resp.Body.
func (v *Validator) ValidateResponse(resp *http.Response, body []byte, opDetails *parser.OperationDetails) []models.ValidationError {
	if resp == nil {
		return []models.ValidationError{{Field: "response", Message: "response is nil"}}
	}
	if opDetails == nil || opDetails.Responses == nil {
		return nil
	}

	responseDef := declaredResponse(opDetails.Responses, resp.StatusCode)
	if responseDef == nil {
		return []models.ValidationError{{
			Field:   "status_code",
			Message: fmt.Sprintf("status code %d is not documented for %s %s", resp.StatusCode, opDetails.Method, opDetails.Path),
		}}
	}

	var errs []models.ValidationError
	if responseDef.Headers != nil {
		// every declared header is treated as required
		for pair := responseDef.Headers.First(); pair != nil; pair = pair.Next() {
			if resp.Header.Get(pair.Key()) == "" {
				errs = append(errs, models.ValidationError{
					Field:   "header." + pair.Key(),
					Message: "missing required header: " + pair.Key(),
				})
			}
		}
	}

	if responseDef.Content == nil || responseDef.Content.Len() == 0 {
		return errs
	}

	contentType := resp.Header.Get("Content-Type")
	media, ok := mediaFor(responseDef, contentType)
	if !ok {
		if contentType != "" {
			errs = append(errs, models.ValidationError{
				Field:   "content_type",
				Message: "unexpected content type: " + contentType,
			})
		}
		return errs
	}

	if strings.Contains(contentType, "json") && media != nil && media.Schema != nil {
		if schema := media.Schema.Schema(); schema != nil {
			errs = append(errs, v.validateJSONSchema(body, schema)...)
		}
	}
	return errs
}

// declaredResponse finds the response for status: exact code first, then
// the NXX range, then default.
func declaredResponse(responses *v3.Responses, status int) *v3.Response {
	if responses.Codes != nil {
		for _, key := range []string{strconv.Itoa(status), fmt.Sprintf("%dXX", status/100)} {
			for pair := responses.Codes.First(); pair != nil; pair = pair.Next() {
				if strings.EqualFold(pair.Key(), key) {
					return pair.Value()
				}
			}
		}
	}
	return responses.Default
}

// mediaFor returns the declared media type matching contentType, ignoring
// parameters such as charset.
func mediaFor(responseDef *v3.Response, contentType string) (*v3.MediaType, bool) {
	for pair := responseDef.Content.First(); pair != nil; pair = pair.Next() {
		declared := strings.TrimSpace(strings.Split(pair.Key(), ";")[0])
		if strings.Contains(contentType, declared) {
			return pair.Value(), true
		}
	}
	return nil, false
}

// validateJSONSchema checks the top level type and required fields only
func (v *Validator) validateJSONSchema(body []byte, schema *base.Schema) []models.ValidationError {
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return []models.ValidationError{{
			Field:   "body",
			Message: fmt.Sprintf("failed to parse JSON response: %v", err),
		}}
	}
	if len(schema.Type) == 0 {
		return nil
	}

	want := schema.Type[0]
	if got := jsonType(data); !typeMatches(want, got, data) {
		return []models.ValidationError{{
			Field:   "body",
			Message: fmt.Sprintf("expected %s, got %s", want, got),
		}}
	}

	obj, ok := data.(map[string]interface{})
	if !ok {
		return nil
	}
	var errs []models.ValidationError
	for _, field := range schema.Required {
		if _, exists := obj[field]; !exists {
			errs = append(errs, models.ValidationError{
				Field:   "body." + field,
				Message: "missing required field: " + field,
			})
		}
	}
	return errs
}

func typeMatches(want, got string, data interface{}) bool {
	switch want {
	case "integer":
		f, ok := data.(float64)
		return ok && f == math.Trunc(f)
	case "object", "array", "string", "number", "boolean", "null":
		return want == got
	default:
		return true
	}
}

func jsonType(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
