// Package errors defines the domain error kind shared across services and
// the HTTP boundary.
package errors

import "fmt"

// DomainError carries a machine-readable code alongside the message so the
// HTTP layer can map failures without string comparison.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
