package models

// Operation is one method/path pair declared in the API description
type Operation struct {
	Path        string
	Method      string
	OperationID string
	Tags        []string
	ServerURL   string
	FullPath    string // ServerURL + Path, parameters unresolved
}
