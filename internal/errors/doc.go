// Package errors provides coded, actionable errors for the vtree command.
//
// Library packages return plain wrapped errors. The CLI converts the ones it
// reports into an *Error carrying a stable code, a category, a longer
// explanation and, for fixture problems, the file location that caused it.
//
// # Error Codes
//
//   - E1xx: patch application and host failures
//   - E2xx: fixture documents
//   - E3xx: configuration
//   - E4xx: snapshot stores
//
// # Usage
//
//	err := errors.New("E201").
//	    WithLocation("views/list.yaml", 12, 5).
//	    WithSuggestion("Give the node exactly one of text, tag, map or lazy")
//
//	fmt.Fprint(os.Stderr, err.Format())
package errors
