package catalog

import (
	"fmt"
	"strings"
)

// CatalogError reports a malformed or inconsistent catalog document. It is
// fatal at load time and never produced at routing time; all validation
// issues found in one document are collected into a single error.
type CatalogError struct {
	// Path is the document source, or "inline" for in-memory parses.
	Path string

	// Issues lists every validation failure found.
	Issues []string
}

func (e *CatalogError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("catalog %s: %s", e.Path, e.Issues[0])
	}
	return fmt.Sprintf("catalog %s: %d issues:\n  - %s",
		e.Path, len(e.Issues), strings.Join(e.Issues, "\n  - "))
}
