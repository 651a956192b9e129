package index

import "errors"

var (
	// ErrVectorLengthMismatch indicates two vectors have different dimensions.
	ErrVectorLengthMismatch = errors.New("vector length mismatch")

	// ErrDimMismatch indicates a query whose length differs from the store's dimension.
	ErrDimMismatch = errors.New("query dimension mismatch")

	// ErrZeroVector indicates a vector that cannot be normalized.
	ErrZeroVector = errors.New("zero vector")

	// ErrNotNormalized indicates a stored vector without unit L2 norm.
	ErrNotNormalized = errors.New("vector is not unit norm")

	// ErrDuplicateKey indicates a key stored twice.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrIndexLocked indicates another process holds the index build lock.
	ErrIndexLocked = errors.New("index build already in progress")
)
