package mapping

import "strings"

// ResourceIdentifier is the public-facing locator of a resource.
//
// A container identifier's path always ends with "/"; a document identifier's
// path never does. Every valid identifier lives under the configured base
// address.
type ResourceIdentifier struct {
	// Path is the full identifier path, including the base address
	Path string
}

// IsContainer reports whether the identifier denotes a container.
func (id ResourceIdentifier) IsContainer() bool {
	return strings.HasSuffix(id.Path, "/")
}

// MappingResult ties a public identifier to its internal storage location.
//
// Containers never carry a content type; documents always do. For a mapper
// configured with a fixed type set, a document's type is the resolved
// supported type.
type MappingResult struct {
	// Identifier is the public identifier this mapping describes
	Identifier ResourceIdentifier

	// FilePath is the internal storage path, rooted at the configured root
	FilePath string

	// ContentType is the resolved content type; empty for containers
	ContentType string
}
