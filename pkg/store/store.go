// Package store implements the file-backed resource store behind the
// resource handler.
//
// Resources are addressed by their public identifiers; the store consults
// the identifier mapper for every operation, so the on-disk layout always
// mirrors the container/document convention the mapper enforces. Containers
// map to directories, documents to regular files.
//
// Thread Safety:
// The underlying filesystem operations are thread-safe at the OS level, but
// concurrent writes to the same resource may interleave. Callers needing
// stronger guarantees must serialize access themselves.
package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shelfd/shelfd/pkg/mapping"
)

// Representation is the byte-stream view of a resource.
type Representation struct {
	// Data is the resource body. The caller must close it.
	Data io.ReadCloser

	// ContentType is the media type of Data
	ContentType string

	// Size is the body length in bytes, or -1 when unknown
	Size int64
}

// FileStore stores resources on the local filesystem under the mapper's
// root path.
type FileStore struct {
	mapper *mapping.Mapper
}

// NewFileStore creates a filesystem-backed resource store.
//
// The mapper's root directory is created if it does not exist. The context
// is checked before the filesystem call.
func NewFileStore(ctx context.Context, mapper *mapping.Mapper) (*FileStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(mapper.RootPath(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}

	return &FileStore{mapper: mapper}, nil
}

// Get returns the representation of the identified resource.
//
// For documents, preferredType is the client's content type preference and
// is validated by the mapper ("" means no preference). For containers the
// representation is a plain-text listing of the child identifiers, one per
// line.
func (s *FileStore) Get(ctx context.Context, id mapping.ResourceIdentifier, preferredType string) (*Representation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.mapper.MapURLToFilePath(id, preferredType)
	if err != nil {
		return nil, err
	}

	if id.IsContainer() {
		return s.listContainer(result.FilePath)
	}

	info, err := os.Stat(result.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", id.Path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", result.FilePath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: %w", id.Path, ErrIsContainer)
	}

	file, err := os.Open(result.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", result.FilePath, err)
	}

	return &Representation{
		Data:        file,
		ContentType: result.ContentType,
		Size:        info.Size(),
	}, nil
}

// listContainer builds the plain-text child listing of a container
// directory. Children are mapped back to public identifiers through the
// mapper; files the mapper cannot expose (e.g. missing the configured path
// suffix) are skipped.
func (s *FileStore) listContainer(dirPath string) (*Representation, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", dirPath, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read container %s: %w", dirPath, err)
	}

	var listing bytes.Buffer
	for _, entry := range entries {
		childPath := dirPath + entry.Name()
		if entry.IsDir() {
			childPath += "/"
		}

		child, err := s.mapper.MapFilePathToURL(childPath, entry.IsDir())
		if err != nil {
			continue
		}
		listing.WriteString(child.Identifier.Path)
		listing.WriteByte('\n')
	}

	return &Representation{
		Data:        io.NopCloser(bytes.NewReader(listing.Bytes())),
		ContentType: "text/plain",
		Size:        int64(listing.Len()),
	}, nil
}

// Set creates or replaces the identified resource.
//
// For documents, contentType must be accepted by the mapper and data is
// written as the new body; missing parent containers are created. For
// containers, data is ignored and the directory is created.
//
// Returns true when the resource did not exist before.
func (s *FileStore) Set(ctx context.Context, id mapping.ResourceIdentifier, contentType string, data io.Reader) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	result, err := s.mapper.MapURLToFilePath(id, contentType)
	if err != nil {
		return false, err
	}

	_, statErr := os.Stat(result.FilePath)
	created := os.IsNotExist(statErr)

	if id.IsContainer() {
		if err := os.MkdirAll(result.FilePath, 0755); err != nil {
			return false, fmt.Errorf("failed to create container %s: %w", result.FilePath, err)
		}
		return created, nil
	}

	if err := os.MkdirAll(filepath.Dir(result.FilePath), 0755); err != nil {
		return false, fmt.Errorf("failed to create parent containers for %s: %w", result.FilePath, err)
	}

	file, err := os.OpenFile(result.FilePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", result.FilePath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", result.FilePath, err)
	}

	return created, nil
}

// Exists reports whether the identified resource is present.
func (s *FileStore) Exists(ctx context.Context, id mapping.ResourceIdentifier) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	result, err := s.mapper.MapURLToFilePath(id, "")
	if err != nil {
		return false, err
	}

	info, err := os.Stat(result.FilePath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", result.FilePath, err)
	}
	return info.IsDir() == id.IsContainer(), nil
}

// Add creates a new document named name inside the given container and
// returns its identifier. Fails with ErrExists if the name is taken and
// ErrNotContainer if the target is not a container identifier.
func (s *FileStore) Add(ctx context.Context, container mapping.ResourceIdentifier, name, contentType string, data io.Reader) (mapping.ResourceIdentifier, error) {
	if !container.IsContainer() {
		return mapping.ResourceIdentifier{}, fmt.Errorf("%s: %w", container.Path, ErrNotContainer)
	}

	id := s.mapper.DocumentIdentifier(container, name)

	taken, err := s.Exists(ctx, id)
	if err != nil {
		return mapping.ResourceIdentifier{}, err
	}
	if taken {
		return mapping.ResourceIdentifier{}, fmt.Errorf("%s: %w", id.Path, ErrExists)
	}

	if _, err := s.Set(ctx, id, contentType, data); err != nil {
		return mapping.ResourceIdentifier{}, err
	}
	return id, nil
}

// Delete removes the identified resource. Containers must be empty.
func (s *FileStore) Delete(ctx context.Context, id mapping.ResourceIdentifier) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	result, err := s.mapper.MapURLToFilePath(id, "")
	if err != nil {
		return err
	}

	if id.IsContainer() {
		entries, err := os.ReadDir(result.FilePath)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%s: %w", id.Path, ErrNotFound)
			}
			return fmt.Errorf("failed to read container %s: %w", result.FilePath, err)
		}
		if len(entries) > 0 {
			return fmt.Errorf("%s: %w", id.Path, ErrNotEmpty)
		}
	}

	if err := os.Remove(result.FilePath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", id.Path, ErrNotFound)
		}
		return fmt.Errorf("failed to delete %s: %w", result.FilePath, err)
	}

	return nil
}
