package models

// Case is one API check: a single request plus the expectations its
// response must meet.
type Case struct {
	ID          string                 `json:"id" yaml:"-"`
	Group       string                 `json:"group"`
	Param       string                 `json:"param"`
	Description string                 `json:"description,omitempty"`
	Method      string                 `json:"method"`
	Path        string                 `json:"path"`
	Body        map[string]interface{} `json:"body,omitempty"`
	Expect      Expectation            `json:"expect"`
	Record      []PropertySource       `json:"record,omitempty"`
	Card        []PropertySource       `json:"card,omitempty"`
}

// Expectation lists what a response must contain for the case to pass.
// A zero Status means the status code is not checked.
type Expectation struct {
	Status int                `json:"status"`
	Fields []FieldExpectation `json:"fields,omitempty"`
}

// FieldExpectation compares the value found at a JSONPath against Value.
type FieldExpectation struct {
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

// PropertySource names a value to record. The value comes from the decoded
// response body at Path, or is the literal Value when Path is empty.
type PropertySource struct {
	Name  string      `json:"name"`
	Path  string      `json:"path,omitempty"`
	Value interface{} `json:"value,omitempty"`
}

// CaseID joins a group and parameter label into the identifier used for
// filtering and reporting.
func CaseID(group, param string) string {
	if param == "" {
		return group
	}
	return group + "/" + param
}
