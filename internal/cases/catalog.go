// Package cases holds the built-in JSONPlaceholder checks and loaders for
// user supplied and schema generated ones.
package cases

import (
	"fmt"
	"net/http"

	"github.com/moamenhredeen/jptest/internal/models"
)

// Catalog returns the built-in cases in declaration order. Each call
// returns fresh values so callers may modify them.
func Catalog() []models.Case {
	var all []models.Case
	all = append(all, getPostByID()...)
	all = append(all, getUserNameByID()...)
	all = append(all, getPostInvalidID()...)
	all = append(all, createNewPost()...)
	all = append(all, updatePost()...)
	all = append(all, deletePost()...)
	all = append(all, deleteInvalidPost()...)
	return all
}

func newCase(group, param, description, method, path string) models.Case {
	return models.Case{
		ID:          models.CaseID(group, param),
		Group:       group,
		Param:       param,
		Description: description,
		Method:      method,
		Path:        path,
	}
}

func getPostByID() []models.Case {
	params := []struct {
		id    int
		title string
	}{
		{1, "sunt aut facere repellat provident occaecati excepturi optio reprehenderit"},
		{2, "qui est esse"},
	}

	var out []models.Case
	for _, p := range params {
		c := newCase("get_post_by_id", fmt.Sprint(p.id),
			"GET /posts/{id} returns the stored post",
			http.MethodGet, fmt.Sprintf("/posts/%d", p.id))
		c.Expect = models.Expectation{
			Status: http.StatusOK,
			Fields: []models.FieldExpectation{
				{Path: "$.id", Value: p.id},
				{Path: "$.title", Value: p.title},
			},
		}
		c.Record = []models.PropertySource{{Name: "title", Path: "$.title"}}
		c.Card = []models.PropertySource{{Name: "Title", Path: "$.title"}}
		out = append(out, c)
	}
	return out
}

func getUserNameByID() []models.Case {
	params := []struct {
		id       int
		username string
	}{
		{1, "Bret"},
		{10, "Moriah.Stanton"},
	}

	var out []models.Case
	for _, p := range params {
		c := newCase("get_user_name_by_id", fmt.Sprint(p.id),
			"GET /users/{id} returns the stored user",
			http.MethodGet, fmt.Sprintf("/users/%d", p.id))
		c.Expect = models.Expectation{
			Status: http.StatusOK,
			Fields: []models.FieldExpectation{
				{Path: "$.id", Value: p.id},
				{Path: "$.username", Value: p.username},
			},
		}
		c.Record = []models.PropertySource{{Name: "username", Path: "$.username"}}
		c.Card = []models.PropertySource{{Name: "Username", Path: "$.username"}}
		out = append(out, c)
	}
	return out
}

func getPostInvalidID() []models.Case {
	var out []models.Case
	for _, id := range []int{0, 9999, -1} {
		c := newCase("get_post_invalid_id_returns_404", fmt.Sprint(id),
			"GET /posts/{id} returns 404 for ids that do not exist",
			http.MethodGet, fmt.Sprintf("/posts/%d", id))
		c.Expect = models.Expectation{Status: http.StatusNotFound}
		out = append(out, c)
	}
	return out
}

func createNewPost() []models.Case {
	params := []struct {
		name   string
		title  string
		body   string
		userID int
	}{
		{"normal_post", "pytest demo post", "This is a test post created during API testing.", 1},
		{"another_post", "second post", "Another body for API testing", 2},
		{"empty_body", "empty title", "", 3},
	}

	var out []models.Case
	for _, p := range params {
		c := newCase("create_new_post", p.name,
			"POST /posts echoes the created post",
			http.MethodPost, "/posts")
		c.Body = map[string]interface{}{
			"title":  p.title,
			"body":   p.body,
			"userId": p.userID,
		}
		c.Expect = models.Expectation{
			Status: http.StatusCreated,
			Fields: []models.FieldExpectation{
				{Path: "$.title", Value: p.title},
				{Path: "$.body", Value: p.body},
				{Path: "$.userId", Value: p.userID},
			},
		}
		c.Record = []models.PropertySource{
			{Name: "response_id", Path: "$.id"},
			{Name: "title_sent", Value: p.title},
		}
		c.Card = []models.PropertySource{
			{Name: "Title", Path: "$.title"},
			{Name: "UserId", Path: "$.userId"},
			{Name: "Response ID", Path: "$.id"},
		}
		out = append(out, c)
	}
	return out
}

func updatePost() []models.Case {
	params := []struct {
		name  string
		id    int
		title string
		body  string
	}{
		{"update_post_1", 1, "Updated title", "Updated body content"},
		{"update_post_2", 2, "Another update", "Different content here"},
	}

	var out []models.Case
	for _, p := range params {
		c := newCase("update_post", p.name,
			"PUT /posts/{id} echoes the updated post",
			http.MethodPut, fmt.Sprintf("/posts/%d", p.id))
		c.Body = map[string]interface{}{
			"id":    p.id,
			"title": p.title,
			"body":  p.body,
		}
		c.Expect = models.Expectation{
			Status: http.StatusOK,
			Fields: []models.FieldExpectation{
				{Path: "$.title", Value: p.title},
				{Path: "$.body", Value: p.body},
				{Path: "$.id", Value: p.id},
			},
		}
		c.Record = []models.PropertySource{{Name: "updated_title", Path: "$.title"}}
		c.Card = []models.PropertySource{{Name: "Title after update", Path: "$.title"}}
		out = append(out, c)
	}
	return out
}

func deletePost() []models.Case {
	var out []models.Case
	for _, id := range []int{1, 2} {
		c := newCase("delete_post", fmt.Sprintf("delete_post_%d", id),
			"DELETE /posts/{id} removes the post",
			http.MethodDelete, fmt.Sprintf("/posts/%d", id))
		c.Expect = models.Expectation{Status: http.StatusOK}
		out = append(out, c)
	}
	return out
}

// JSONPlaceholder fakes deletion and answers 200 for any id.
func deleteInvalidPost() []models.Case {
	params := []struct {
		name string
		id   int
	}{
		{"non_existent_post", 9999},
		{"negative_id", -1},
		{"zero_id", 0},
	}

	var out []models.Case
	for _, p := range params {
		c := newCase("delete_invalid_post", p.name,
			"DELETE /posts/{id} on ids that do not exist still answers 200",
			http.MethodDelete, fmt.Sprintf("/posts/%d", p.id))
		c.Expect = models.Expectation{Status: http.StatusOK}
		out = append(out, c)
	}
	return out
}
