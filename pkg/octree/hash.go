package octree

import "github.com/dolthub/maphash"

// brickHasher gives simplify a cheap way to rule out a collapse candidate
// before paying for a full per-cell brick comparison: two uniform bricks
// that collapse to the same value always hash equal, so a hash mismatch
// short-circuits the scan.
type brickHasher[T VoxelData] struct {
	h maphash.Hasher[T]
}

func newBrickHasher[T VoxelData]() brickHasher[T] {
	return brickHasher[T]{h: maphash.NewHasher[T]()}
}

func (bh brickHasher[T]) hashValue(v T) uint64 { return bh.h.Hash(v) }
