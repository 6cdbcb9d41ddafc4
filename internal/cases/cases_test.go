package cases

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moamenhredeen/jptest/internal/generator"
	"github.com/moamenhredeen/jptest/internal/models"
	"github.com/moamenhredeen/jptest/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogShape(t *testing.T) {
	all := Catalog()
	require.Len(t, all, 17)

	counts := map[string]int{}
	ids := map[string]bool{}
	for _, c := range all {
		counts[c.Group]++
		assert.False(t, ids[c.ID], "duplicate id %s", c.ID)
		ids[c.ID] = true
		assert.Equal(t, c.Group+"/"+c.Param, c.ID)
		assert.NotZero(t, c.Expect.Status, c.ID)
	}

	assert.Equal(t, map[string]int{
		"get_post_by_id":                  2,
		"get_user_name_by_id":             2,
		"get_post_invalid_id_returns_404": 3,
		"create_new_post":                 3,
		"update_post":                     2,
		"delete_post":                     2,
		"delete_invalid_post":             3,
	}, counts)
}

func TestCatalogOrderAndValues(t *testing.T) {
	all := Catalog()

	assert.Equal(t, "get_post_by_id/1", all[0].ID)
	assert.Equal(t, "delete_invalid_post/zero_id", all[len(all)-1].ID)

	byID := map[string]models.Case{}
	for _, c := range all {
		byID[c.ID] = c
	}

	post := byID["get_post_by_id/2"]
	assert.Equal(t, "/posts/2", post.Path)
	assert.Contains(t, post.Expect.Fields, models.FieldExpectation{Path: "$.title", Value: "qui est esse"})

	user := byID["get_user_name_by_id/10"]
	assert.Contains(t, user.Expect.Fields, models.FieldExpectation{Path: "$.username", Value: "Moriah.Stanton"})

	notFound := byID["get_post_invalid_id_returns_404/-1"]
	assert.Equal(t, http.StatusNotFound, notFound.Expect.Status)
	assert.Empty(t, notFound.Expect.Fields)

	empty := byID["create_new_post/empty_body"]
	assert.Equal(t, http.MethodPost, empty.Method)
	assert.Equal(t, "", empty.Body["body"])
	assert.Equal(t, 3, empty.Body["userId"])
	assert.Contains(t, empty.Record, models.PropertySource{Name: "title_sent", Value: "empty title"})

	update := byID["update_post/update_post_2"]
	assert.Equal(t, "/posts/2", update.Path)
	assert.Equal(t, 2, update.Body["id"])

	del := byID["delete_invalid_post/negative_id"]
	assert.Equal(t, "/posts/-1", del.Path)
	assert.Equal(t, http.StatusOK, del.Expect.Status)
}

func TestCatalogReturnsFreshValues(t *testing.T) {
	a := Catalog()
	a[9].Body["title"] = "changed"
	b := Catalog()
	assert.NotEqual(t, "changed", b[9].Body["title"])
}

const sampleCases = `
cases:
  - name: first_post_author
    group: extra
    method: get
    path: /posts/1
    expect:
      status: 200
      fields:
        - path: $.userId
          value: 1
    record:
      - name: title
        path: $.title
  - name: list_posts
    method: GET
    path: /posts
    expect:
      status: 200
`

func TestLoad(t *testing.T) {
	loaded, err := Load(strings.NewReader(sampleCases))
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "extra/first_post_author", loaded[0].ID)
	assert.Equal(t, "GET", loaded[0].Method)
	assert.Equal(t, []models.FieldExpectation{{Path: "$.userId", Value: 1}}, loaded[0].Expect.Fields)
	assert.Equal(t, []models.PropertySource{{Name: "title", Path: "$.title"}}, loaded[0].Card)

	assert.Equal(t, DefaultGroup+"/list_posts", loaded[1].ID)
}

func TestLoadRejectsInvalidCases(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"bad method", "cases:\n  - {name: a, method: FETCH, path: /posts, expect: {status: 200}}", "unsupported method"},
		{"missing path", "cases:\n  - {name: a, method: GET, expect: {status: 200}}", "path must start with /"},
		{"zero status", "cases:\n  - {name: a, method: GET, path: /posts, expect: {status: 0}}", "positive HTTP status"},
		{"negative status", "cases:\n  - {name: a, method: GET, path: /posts, expect: {status: -1}}", "positive HTTP status"},
		{"no name", "cases:\n  - {method: GET, path: /posts, expect: {status: 200}}", "name is required"},
		{"duplicate", "cases:\n  - {name: a, method: GET, path: /posts, expect: {status: 200}}\n  - {name: a, method: GET, path: /posts, expect: {status: 200}}", "duplicate id"},
		{"unknown key", "cases:\n  - {name: a, verb: GET, path: /posts, expect: {status: 200}}", "invalid case file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestCheckUniqueAcrossSources(t *testing.T) {
	require.NoError(t, CheckUnique(Catalog()))

	shadow, err := Load(strings.NewReader("cases:\n  - {name: \"1\", group: get_post_by_id, method: GET, path: /posts/1, expect: {status: 200}}"))
	require.NoError(t, err)

	err = CheckUnique(append(Catalog(), shadow...))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate case id get_post_by_id/1")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCases), 0o644))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGenerated(t *testing.T) {
	p, err := parser.Default()
	require.NoError(t, err)

	generated, err := Generated(3, generator.NewGeneratorWithSeed(5), p)
	require.NoError(t, err)
	require.Len(t, generated, 3)

	for i, c := range generated {
		assert.Equal(t, GeneratedGroup, c.Group)
		assert.Equal(t, http.StatusCreated, c.Expect.Status)
		assert.Len(t, c.Expect.Fields, 3, c.ID)
		assert.Equal(t, "$.body", c.Expect.Fields[0].Path)
		assert.Equal(t, c.Body["body"], c.Expect.Fields[0].Value)
		if i == 0 {
			assert.Equal(t, GeneratedGroup+"/generated_1", c.ID)
		}
	}

	none, err := Generated(0, generator.NewGenerator(), p)
	require.NoError(t, err)
	assert.Empty(t, none)
}
