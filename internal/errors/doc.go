// Package errors provides structured, actionable error messages for the
// dippy command line.
//
// Library packages return plain Go errors. This package is used where an
// error reaches a person: configuration loading and CLI commands wrap the
// underlying error in an *Error carrying a stable code, a category, a
// longer explanation and a hint.
//
// # Error Categories
//
//   - protocol: wire frame errors
//   - sync: subscription and addressing errors
//   - cache: cache backend errors
//   - transport: connection errors
//   - config: configuration file and environment errors
//   - cli: command usage errors
//
// # Usage
//
//	err := errors.New("E121").
//	    WithDetail(`cache.backend "redis" is not supported`).
//	    WithSuggestion("Use one of: memory, sqlite, s3")
//
//	fmt.Print(err.Format())
//	// ERROR E121: Invalid configuration
//	//
//	//   cache.backend "redis" is not supported
//	//
//	//   Hint: Use one of: memory, sqlite, s3
package errors
