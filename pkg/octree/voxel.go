package octree

// VoxelData is the contract required of the type stored at each lattice
// point. Go's zero value and value-copy semantics already provide
// `default()`/`clone()`; `comparable` gives `==`. Only the
// emptiness-via-alpha contract needs an explicit method.
type VoxelData interface {
	comparable
	// Albedo returns the RGBA color of the voxel. The fourth channel
	// (alpha) must be zero iff the voxel is in its empty/default state.
	Albedo() [4]byte
}

// Scalar adapts a bare numeric type (as used directly as T in the
// original test scenarios) into a VoxelData: the zero value is treated
// as empty, any non-zero value as fully opaque.
type Scalar[T comparable] struct {
	Value T
}

// NewScalar wraps a raw numeric (or any comparable) value as a voxel.
func NewScalar[T comparable](v T) Scalar[T] { return Scalar[T]{Value: v} }

func (s Scalar[T]) Albedo() [4]byte {
	var zero T
	if s.Value == zero {
		return [4]byte{}
	}
	return [4]byte{0xff, 0xff, 0xff, 0xff}
}

// RGB is a ready-made voxel color, grounded on the example renderer's own
// VoxelData implementation. The zero value RGB{0, 0, 0} is the empty
// voxel (alpha 0); every other color is fully opaque.
type RGB struct {
	R, G, B uint8
}

func NewRGB(r, g, b uint8) RGB { return RGB{r, g, b} }

func (c RGB) Albedo() [4]byte {
	if c == (RGB{}) {
		return [4]byte{}
	}
	return [4]byte{c.R, c.G, c.B, 0xff}
}
