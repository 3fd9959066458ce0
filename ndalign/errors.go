package ndalign

import "errors"

// Common errors
var (
	ErrInvalidJoin           = errors.New("invalid join mode")
	ErrConflictingIndexes    = errors.New("conflicting indexes")
	ErrExactJoinMismatch     = errors.New("indexes are not equal")
	ErrOverrideSizeMismatch  = errors.New("matching indexes have different sizes")
	ErrDimensionSizeConflict = errors.New("conflicting dimension sizes")
	ErrInvalidExclusion      = errors.New("cannot exclude dimension spanned by a wider index")
	ErrInvalidInputType      = errors.New("object is not alignable")
	ErrDuplicateLabels       = errors.New("cannot reindex from an index with duplicate labels")
	ErrIncompatibleIndexes   = errors.New("incompatible index types")
	ErrIndexerDimMismatch    = errors.New("indexer dimensions do not match")
	ErrUnsupported           = errors.New("unsupported feature")
)
