package catalog

import "errors"

// Errors returned while building or loading catalogs.
var (
	// ErrInvalidDefinition indicates a malformed parameter or recommendation.
	ErrInvalidDefinition = errors.New("invalid catalog definition")

	// ErrDuplicateRecommendation indicates two recommendations share an id.
	ErrDuplicateRecommendation = errors.New("duplicate recommendation id")

	// ErrDuplicateParameter indicates two parameters share a path.
	ErrDuplicateParameter = errors.New("duplicate parameter path")

	// ErrUnsupportedFormat indicates a catalog file with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported catalog format")
)
