package index

import (
	"fmt"
	"math"
	"sort"
)

// normTolerance bounds |norm-1| for stored vectors. float32 rounding of a
// normalized 2048-dim vector stays well inside it.
const normTolerance = 1e-3

// Store holds one unit-norm vector per catalog key, in a fixed enumeration
// order. It is immutable after construction and safe for concurrent reads.
type Store struct {
	keys    []string
	pos     map[string]int
	vectors []float32
	dim     int
	sources map[string]string
}

// NewStore validates and copies keys and their row-major vectors. Every
// vector must have length dim and unit L2 norm, and keys must be unique.
// An empty key set yields an empty store.
func NewStore(keys []string, vectors []float32, dim int) (*Store, error) {
	s := &Store{pos: make(map[string]int, len(keys)), dim: dim}
	if len(keys) == 0 {
		return s, nil
	}
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dim: %d", dim)
	}
	if len(vectors) != len(keys)*dim {
		return nil, fmt.Errorf("%w: got %d floats want %d (keys=%d dim=%d)",
			ErrVectorLengthMismatch, len(vectors), len(keys)*dim, len(keys), dim)
	}

	s.keys = make([]string, len(keys))
	copy(s.keys, keys)
	s.vectors = make([]float32, len(vectors))
	copy(s.vectors, vectors)

	for i, k := range s.keys {
		if _, dup := s.pos[k]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, k)
		}
		s.pos[k] = i
		if n := Norm(s.row(i)); math.Abs(n-1) > normTolerance {
			return nil, fmt.Errorf("%w: %s has norm %.6f", ErrNotNormalized, k, n)
		}
	}
	return s, nil
}

// NewStoreFromMap normalizes each vector and builds a store ordered by key.
func NewStoreFromMap(m map[string][]float32) (*Store, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		dim     int
		vectors []float32
	)
	for _, k := range keys {
		v := m[k]
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return nil, fmt.Errorf("%w: %s has %d dims, want %d", ErrVectorLengthMismatch, k, len(v), dim)
		}
		if Norm(v) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrZeroVector, k)
		}
		vectors = append(vectors, NormalizeL2(v)...)
	}
	return NewStore(keys, vectors, dim)
}

func (s *Store) row(i int) []float32 {
	return s.vectors[i*s.dim : (i+1)*s.dim]
}

// Len returns the number of stored vectors.
func (s *Store) Len() int { return len(s.keys) }

// Dim returns the vector dimensionality (0 for an empty store built without one).
func (s *Store) Dim() int { return s.dim }

// Keys returns the keys in enumeration order.
func (s *Store) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Vector returns a copy of the vector stored for key.
func (s *Store) Vector(key string) ([]float32, bool) {
	i, ok := s.pos[key]
	if !ok {
		return nil, false
	}
	out := make([]float32, s.dim)
	copy(out, s.row(i))
	return out, true
}

// Source returns the path of the image key was computed from, when known.
func (s *Store) Source(key string) (string, bool) {
	p, ok := s.sources[key]
	return p, ok
}
