// Package mapping translates between public resource identifiers and internal
// storage paths.
//
// The mapper is pure and stateless: its configuration is fixed at construction
// and never mutated, so a single instance is safe for concurrent use. It never
// performs I/O; consumers use the resulting storage paths against the store.
//
// Suffixes are two orthogonal knobs:
//   - PathSuffix is appended to internal storage paths and hidden from the
//     public identifier (e.g. always ".ttl" on disk).
//   - URLSuffix is appended to externally exposed identifiers and stripped
//     internally (e.g. extension-suffixed public URLs over bare files).
//
// Neither suffix applies to containers.
package mapping

import (
	"fmt"
	"strings"

	"github.com/shelfd/shelfd/pkg/httperror"
)

// Config holds the construction-time configuration of a Mapper.
type Config struct {
	// BaseAddress is the URL prefix under which all identifiers live.
	// Must end with "/".
	BaseAddress string

	// RootPath is the storage-path prefix corresponding to BaseAddress.
	// Must end with "/".
	RootPath string

	// PathSuffix is appended only to internal storage paths (optional)
	PathSuffix string

	// URLSuffix is appended only to public identifiers (optional)
	URLSuffix string
}

// Mapper is a bidirectional identifier-to-storage-path mapper.
//
// MapURLToFilePath and MapFilePathToURL are mutual inverses modulo suffix
// translation: applying one and then the other with the same configuration
// reproduces the original value.
type Mapper struct {
	cfg      Config
	resolver TypeResolver

	// base and root are the configured prefixes without their trailing
	// slash, precomputed for prefix checks
	base string
	root string
}

// New creates a Mapper from the given configuration and type resolver.
//
// Returns an error if the base address or root path does not end with "/",
// or if the resolver is nil. These are configuration faults, not client
// conditions.
func New(cfg Config, resolver TypeResolver) (*Mapper, error) {
	if !strings.HasSuffix(cfg.BaseAddress, "/") {
		return nil, fmt.Errorf("base address %q must end with a /", cfg.BaseAddress)
	}
	if !strings.HasSuffix(cfg.RootPath, "/") {
		return nil, fmt.Errorf("root path %q must end with a /", cfg.RootPath)
	}
	if resolver == nil {
		return nil, fmt.Errorf("a content type resolver is required")
	}

	return &Mapper{
		cfg:      cfg,
		resolver: resolver,
		base:     strings.TrimSuffix(cfg.BaseAddress, "/"),
		root:     strings.TrimSuffix(cfg.RootPath, "/"),
	}, nil
}

// BaseAddress returns the configured base address.
func (m *Mapper) BaseAddress() string {
	return m.cfg.BaseAddress
}

// RootPath returns the configured storage root path.
func (m *Mapper) RootPath() string {
	return m.cfg.RootPath
}

// DocumentIdentifier builds the public identifier of a document named name
// inside the given container, applying the configured URL suffix.
//
// This keeps suffix knowledge inside the mapper when callers create new
// documents (e.g. POST to a container).
func (m *Mapper) DocumentIdentifier(container ResourceIdentifier, name string) ResourceIdentifier {
	return ResourceIdentifier{Path: container.Path + name + m.cfg.URLSuffix}
}

// MapURLToFilePath translates a public identifier to its storage path,
// resolving the document's content type on the way.
//
// requestedType is the client's preferred content type; empty means no
// preference. For containers the content type is never set and the request
// type is ignored.
//
// Failure modes:
//   - identifier outside the base address, or a required URL suffix is
//     missing: NotFound
//   - no "/" at the base boundary, a ".." segment, or an unsupported
//     content type: BadRequest
func (m *Mapper) MapURLToFilePath(id ResourceIdentifier, requestedType string) (*MappingResult, error) {
	if !strings.HasPrefix(id.Path, m.base) {
		return nil, httperror.NewNotFound(fmt.Sprintf("URL %s is not part of %s", id.Path, m.cfg.BaseAddress))
	}

	// remainder keeps its leading "/"; identifiers that merely share a
	// string prefix with the base diverge here
	remainder := id.Path[len(m.base):]
	if !strings.HasPrefix(remainder, "/") {
		return nil, httperror.NewBadRequest("URL needs a / after the base")
	}

	for _, segment := range strings.Split(remainder, "/") {
		if segment == ".." {
			return nil, httperror.NewBadRequest("Disallowed /.. segment in URL")
		}
	}

	// Containers map directly to directories, with no suffixes or type
	if id.IsContainer() {
		return &MappingResult{
			Identifier: id,
			FilePath:   m.root + remainder,
		}, nil
	}

	relative := remainder
	if m.cfg.URLSuffix != "" {
		if !strings.HasSuffix(relative, m.cfg.URLSuffix) {
			return nil, httperror.NewNotFound(fmt.Sprintf("URL %s does not end with %s", id.Path, m.cfg.URLSuffix))
		}
		relative = strings.TrimSuffix(relative, m.cfg.URLSuffix)
	}

	contentType, err := m.resolver.Resolve(requestedType)
	if err != nil {
		return nil, err
	}

	return &MappingResult{
		Identifier:  id,
		FilePath:    m.root + relative + m.cfg.PathSuffix,
		ContentType: contentType,
	}, nil
}

// MapFilePathToURL translates a storage path back to its public identifier.
//
// A file path that does not start with the configured root is a programming
// or configuration fault, not a client condition, and is returned as an
// ordinary (non-HTTP) error. A document path missing a configured path
// suffix fails NotFound.
//
// The returned result carries the original file path unchanged.
func (m *Mapper) MapFilePathToURL(filePath string, isContainer bool) (*MappingResult, error) {
	if !strings.HasPrefix(filePath, m.cfg.RootPath) {
		return nil, fmt.Errorf("file path %s does not start with root path %s", filePath, m.cfg.RootPath)
	}

	relative := strings.TrimPrefix(filePath, m.cfg.RootPath)

	if isContainer {
		return &MappingResult{
			Identifier: ResourceIdentifier{Path: m.cfg.BaseAddress + relative},
			FilePath:   filePath,
		}, nil
	}

	if m.cfg.PathSuffix != "" {
		if !strings.HasSuffix(relative, m.cfg.PathSuffix) {
			return nil, httperror.NewNotFound(fmt.Sprintf("file path %s does not end with %s", filePath, m.cfg.PathSuffix))
		}
		relative = strings.TrimSuffix(relative, m.cfg.PathSuffix)
	}

	contentType, err := m.resolver.Resolve("")
	if err != nil {
		return nil, err
	}

	return &MappingResult{
		Identifier:  ResourceIdentifier{Path: m.cfg.BaseAddress + relative + m.cfg.URLSuffix},
		FilePath:    filePath,
		ContentType: contentType,
	}, nil
}
