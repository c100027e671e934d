package store

import "errors"

// Standard store errors. Handlers check for these with errors.Is and map
// them to the HTTP error taxonomy; implementations wrap them with path
// context.
var (
	// ErrNotFound indicates the requested resource does not exist on disk.
	ErrNotFound = errors.New("resource not found")

	// ErrExists indicates a resource with this identifier already exists.
	// Only returned by explicit "create new" operations; Set overwrites.
	ErrExists = errors.New("resource already exists")

	// ErrNotEmpty indicates a container cannot be deleted because it still
	// holds resources.
	ErrNotEmpty = errors.New("container is not empty")

	// ErrIsContainer indicates a document operation hit a container.
	ErrIsContainer = errors.New("resource is a container")

	// ErrNotContainer indicates a container operation hit a document.
	ErrNotContainer = errors.New("resource is not a container")
)
