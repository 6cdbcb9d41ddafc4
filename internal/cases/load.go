package cases

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/moamenhredeen/jptest/internal/models"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// DefaultGroup is used for loaded cases that do not name a group.
const DefaultGroup = "custom"

var allowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

type caseFile struct {
	Cases []fileCase `yaml:"cases"`
}

type fileCase struct {
	Name        string                 `yaml:"name"`
	Group       string                 `yaml:"group"`
	Description string                 `yaml:"description"`
	Method      string                 `yaml:"method"`
	Path        string                 `yaml:"path"`
	Body        map[string]interface{} `yaml:"body"`
	Expect      struct {
		Status int `yaml:"status"`
		Fields []struct {
			Path  string      `yaml:"path"`
			Value interface{} `yaml:"value"`
		} `yaml:"fields"`
	} `yaml:"expect"`
	Record []struct {
		Name  string      `yaml:"name"`
		Path  string      `yaml:"path"`
		Value interface{} `yaml:"value"`
	} `yaml:"record"`
}

// LoadFile reads extra cases from a YAML file.
func LoadFile(path string) ([]models.Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}
	loaded, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return loaded, nil
}

// Load decodes and validates a YAML case document.
func Load(r io.Reader) ([]models.Case, error) {
	var file caseFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid case file: %w", err)
	}

	out := make([]models.Case, 0, len(file.Cases))
	seen := map[string]bool{}
	for i, fc := range file.Cases {
		c, err := fc.toCase()
		if err != nil {
			return nil, fmt.Errorf("case %d: %w", i+1, err)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("case %d: duplicate id %s", i+1, c.ID)
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out, nil
}

// CheckUnique fails on the first id shared by two cases, for example a
// loaded case that shadows a built-in one.
func CheckUnique(all []models.Case) error {
	seen := make(map[string]bool, len(all))
	for _, c := range all {
		if seen[c.ID] {
			return fmt.Errorf("duplicate case id %s", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

func (fc fileCase) toCase() (models.Case, error) {
	if fc.Name == "" {
		return models.Case{}, errors.New("name is required")
	}
	method := strings.ToUpper(strings.TrimSpace(fc.Method))
	if !lo.Contains(allowedMethods, method) {
		return models.Case{}, fmt.Errorf("%s: unsupported method %q", fc.Name, fc.Method)
	}
	if !strings.HasPrefix(fc.Path, "/") {
		return models.Case{}, fmt.Errorf("%s: path must start with /, got %q", fc.Name, fc.Path)
	}
	if fc.Expect.Status <= 0 {
		return models.Case{}, fmt.Errorf("%s: expect.status must be a positive HTTP status", fc.Name)
	}

	group := lo.Ternary(fc.Group == "", DefaultGroup, fc.Group)
	c := newCase(group, fc.Name, fc.Description, method, fc.Path)
	c.Body = fc.Body
	c.Expect.Status = fc.Expect.Status

	for _, f := range fc.Expect.Fields {
		if _, err := jsonpath.New(f.Path); err != nil {
			return models.Case{}, fmt.Errorf("%s: invalid field path %q: %w", fc.Name, f.Path, err)
		}
		c.Expect.Fields = append(c.Expect.Fields, models.FieldExpectation{Path: f.Path, Value: f.Value})
	}
	for _, r := range fc.Record {
		if r.Name == "" {
			return models.Case{}, fmt.Errorf("%s: recorded property needs a name", fc.Name)
		}
		if r.Path != "" {
			if _, err := jsonpath.New(r.Path); err != nil {
				return models.Case{}, fmt.Errorf("%s: invalid record path %q: %w", fc.Name, r.Path, err)
			}
		}
		c.Record = append(c.Record, models.PropertySource{Name: r.Name, Path: r.Path, Value: r.Value})
	}
	c.Card = lo.Filter(c.Record, func(p models.PropertySource, _ int) bool { return p.Path != "" })
	return c, nil
}
