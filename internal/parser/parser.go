package parser

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/moamenhredeen/jptest/internal/models"
	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

//go:embed jsonplaceholder.yaml
var embeddedSpec []byte

var supportedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

// Parser gives access to an OpenAPI 3 description of the API under test
type Parser struct {
	model *v3.Document
}

// Default parses the JSONPlaceholder description bundled with the binary
func Default() (*Parser, error) {
	return Parse(embeddedSpec)
}

// ParseFile parses an OpenAPI specification file and returns a Parser instance
func ParseFile(filePath string) (*Parser, error) {
	specBytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI file: %w", err)
	}
	return Parse(specBytes)
}

// Parse builds a Parser from raw YAML or JSON
func Parse(specBytes []byte) (*Parser, error) {
	document, err := libopenapi.NewDocument(specBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}

	built, errs := document.BuildV3Model()
	if errs != nil {
		return nil, fmt.Errorf("failed to build v3 model: %v", errs)
	}
	if built == nil {
		return nil, fmt.Errorf("failed to build v3 model: document is not OpenAPI 3")
	}

	return &Parser{model: &built.Model}, nil
}

// GetServerURLs returns the server URLs from the OpenAPI spec
func (p *Parser) GetServerURLs() []string {
	servers := p.model.Servers
	if len(servers) == 0 {
		return []string{"http://localhost"}
	}

	urls := make([]string, 0, len(servers))
	for _, server := range servers {
		if server != nil && server.URL != "" {
			urls = append(urls, server.URL)
		}
	}
	return urls
}

// GetOperations lists every operation, sorted by path then method
func (p *Parser) GetOperations(serverURL string) []models.Operation {
	var operations []models.Operation

	paths := p.model.Paths
	if paths == nil || paths.PathItems == nil {
		return operations
	}

	for pair := paths.PathItems.First(); pair != nil; pair = pair.Next() {
		pathItem := pair.Key()
		item := pair.Value()
		if item == nil {
			continue
		}

		for _, method := range supportedMethods {
			op := operationFor(item, method)
			if op == nil {
				continue
			}

			tags := []string{}
			if op.Tags != nil {
				tags = append(tags, op.Tags...)
			}

			operations = append(operations, models.Operation{
				Path:        pathItem,
				Method:      method,
				OperationID: op.OperationId,
				Tags:        tags,
				ServerURL:   serverURL,
				FullPath:    strings.TrimSuffix(serverURL, "/") + pathItem,
			})
		}
	}

	sort.SliceStable(operations, func(i, j int) bool {
		return operations[i].Path < operations[j].Path
	})

	return operations
}

// OperationDetails is everything the validator needs about one operation
type OperationDetails struct {
	Operation   *v3.Operation
	Path        string
	Method      string
	Parameters  []*v3.Parameter
	RequestBody *v3.RequestBody
	Responses   *v3.Responses
}

// GetOperationDetails extracts detailed information for a specific operation
func (p *Parser) GetOperationDetails(path, method string) (*OperationDetails, error) {
	paths := p.model.Paths
	if paths == nil || paths.PathItems == nil {
		return nil, fmt.Errorf("path not found: %s", path)
	}

	var pathItem *v3.PathItem
	for pair := paths.PathItems.First(); pair != nil; pair = pair.Next() {
		if pair.Key() == path {
			pathItem = pair.Value()
			break
		}
	}

	if pathItem == nil {
		return nil, fmt.Errorf("path not found: %s", path)
	}

	method = strings.ToUpper(method)
	operation := operationFor(pathItem, method)
	if operation == nil {
		return nil, fmt.Errorf("operation not found: %s %s", method, path)
	}

	var parameters []*v3.Parameter
	parameters = append(parameters, pathItem.Parameters...)
	parameters = append(parameters, operation.Parameters...)

	return &OperationDetails{
		Operation:   operation,
		Path:        path,
		Method:      method,
		Parameters:  parameters,
		RequestBody: operation.RequestBody,
		Responses:   operation.Responses,
	}, nil
}

// MatchOperation resolves a concrete request path such as /posts/7 to the
// templated operation (/posts/{id}) that describes it
func (p *Parser) MatchOperation(requestPath, method string) (*OperationDetails, error) {
	if i := strings.IndexAny(requestPath, "?#"); i >= 0 {
		requestPath = requestPath[:i]
	}
	paths := p.model.Paths
	if paths == nil || paths.PathItems == nil {
		return nil, fmt.Errorf("no operation matches %s %s", method, requestPath)
	}

	for pair := paths.PathItems.First(); pair != nil; pair = pair.Next() {
		if templateMatches(pair.Key(), requestPath) && operationFor(pair.Value(), strings.ToUpper(method)) != nil {
			return p.GetOperationDetails(pair.Key(), method)
		}
	}
	return nil, fmt.Errorf("no operation matches %s %s", method, requestPath)
}

// SchemaFor returns a named component schema
func (p *Parser) SchemaFor(name string) (*base.Schema, error) {
	if p.model.Components == nil || p.model.Components.Schemas == nil {
		return nil, fmt.Errorf("schema not found: %s", name)
	}
	for pair := p.model.Components.Schemas.First(); pair != nil; pair = pair.Next() {
		if pair.Key() != name {
			continue
		}
		proxy := pair.Value()
		if proxy == nil {
			break
		}
		schema := proxy.Schema()
		if schema == nil {
			return nil, fmt.Errorf("schema %s could not be resolved", name)
		}
		return schema, nil
	}
	return nil, fmt.Errorf("schema not found: %s", name)
}

func operationFor(item *v3.PathItem, method string) *v3.Operation {
	if item == nil {
		return nil
	}
	switch method {
	case "GET":
		return item.Get
	case "POST":
		return item.Post
	case "PUT":
		return item.Put
	case "PATCH":
		return item.Patch
	case "DELETE":
		return item.Delete
	case "HEAD":
		return item.Head
	case "OPTIONS":
		return item.Options
	default:
		return nil
	}
}

func templateMatches(template, path string) bool {
	want := strings.Split(strings.Trim(template, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return false
	}
	for i, seg := range want {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if got[i] == "" {
				return false
			}
			continue
		}
		if seg != got[i] {
			return false
		}
	}
	return true
}
