// Package filter selects which cases run based on -run/-skip patterns.
package filter

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Filter decides whether the case with the given ID should run.
type Filter func(id string) bool

// RegexFilters combines the patterns a case must match with those it must not.
type RegexFilters struct {
	MustMatch    RegexList
	MustNotMatch RegexList
}

// Match reports whether id is selected.
func (r RegexFilters) Match(id string) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(id)) &&
		!r.MustNotMatch.AnyMatch(id)
}

func (r RegexFilters) IsDefined() bool {
	return r.MustMatch.IsDefined() || r.MustNotMatch.IsDefined()
}

// Describe prints a short explanation of the active filters, if any.
func (r RegexFilters) Describe(w io.Writer) {
	if !r.IsDefined() {
		return
	}
	fmt.Fprintln(w, "Some cases will be skipped based on the filter criteria for this run:")
	if r.MustMatch.IsDefined() {
		fmt.Fprintf(w, "  skip any not matching %s\n", &r.MustMatch)
	}
	if r.MustNotMatch.IsDefined() {
		fmt.Fprintf(w, "  skip any matching %s\n", &r.MustNotMatch)
	}
	fmt.Fprintln(w)
}

// RegexList is a repeatable command line flag holding compiled patterns.
type RegexList struct {
	patterns []*regexp.Regexp
}

func (r *RegexList) String() string {
	var ss []string
	for _, p := range r.patterns {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (r *RegexList) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	r.patterns = append(r.patterns, rx)
	return nil
}

func (r *RegexList) Type() string {
	return "regex"
}

func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

func (r RegexList) AnyMatch(s string) bool {
	for _, p := range r.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// ExactID returns a pattern matching only the given case ID.
func ExactID(id string) string {
	return "^" + regexp.QuoteMeta(id) + "$"
}
