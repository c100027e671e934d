package mapping

import (
	"fmt"
	"strings"

	"github.com/shelfd/shelfd/pkg/httperror"
)

// TypeResolver decides the content type of a document mapping.
//
// Resolution is a separate decision point from path translation so that
// mappers supporting different negotiation policies can be built by swapping
// the resolver only.
type TypeResolver interface {
	// Resolve validates the requested content type and returns the effective
	// type for the mapping. An empty request means "no preference" and
	// resolves to the mapper's default type. An unsupported request fails
	// with a BadRequest error naming the rejected type and the allowed set.
	Resolve(requested string) (string, error)
}

// supportedTypes resolves against a fixed, ordered set of content types.
// The first type in the set is the default.
type supportedTypes struct {
	types []string
}

// SupportedTypes creates a TypeResolver over a fixed type set.
//
// At least one type is required; the first is used when no type is requested.
func SupportedTypes(types ...string) TypeResolver {
	if len(types) == 0 {
		panic("at least one supported content type is required")
	}
	return &supportedTypes{types: types}
}

// Resolve implements TypeResolver.
func (r *supportedTypes) Resolve(requested string) (string, error) {
	if requested == "" {
		return r.types[0], nil
	}
	for _, t := range r.types {
		if t == requested {
			return requested, nil
		}
	}
	return "", httperror.NewBadRequest(fmt.Sprintf(
		"Unsupported content type %s, only %s is allowed",
		requested, strings.Join(r.types, ", ")))
}
