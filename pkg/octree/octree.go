// Package octree implements a sparse voxel octree: node-pool backed
// allocation, LOD-aware insertion/clearing, simplification, and a
// stackful ray-casting engine with brick-level marching.
package octree

import (
	"github.com/nerdachse/shocovox/pkg/pool"
	"github.com/nerdachse/shocovox/pkg/spatial"
)

// Octree is a sparse voxel tree over a cube of lattice positions
// [0, Size)^3, where Size = rootNodeDimension * brick dimension. Leaves
// store a brick of dim*dim*dim voxels rather than a single value,
// trading some memory for shallower trees.
type Octree[T VoxelData] struct {
	// AutoSimplify controls whether Insert/Clear attempt to collapse
	// uniform subtrees after every write. Defaults to true.
	AutoSimplify bool

	dim  uint32
	size uint32

	nodes       *pool.Pool[Content[T]]
	childArrays []Children
	hasher      brickHasher[T]
}

// New constructs an octree with single-voxel leaves (brick dimension 1)
// spanning rootNodeDimension^3 lattice positions. rootNodeDimension must
// be a positive power of two.
func New[T VoxelData](rootNodeDimension uint32) (*Octree[T], error) {
	return NewWithBrickSize[T](rootNodeDimension, 1)
}

// NewWithBrickSize constructs an octree whose leaves hold dim*dim*dim
// voxel bricks, spanning (rootNodeDimension*dim)^3 lattice positions.
// Both rootNodeDimension and dim must be positive powers of two.
func NewWithBrickSize[T VoxelData](rootNodeDimension, dim uint32) (*Octree[T], error) {
	if !isPowerOfTwo(rootNodeDimension) {
		return nil, &InvalidNodeSizeError{Size: rootNodeDimension}
	}
	if !isPowerOfTwo(dim) {
		return nil, &InvalidNodeSizeError{Size: dim}
	}

	o := &Octree[T]{
		AutoSimplify: true,
		dim:          dim,
		size:         rootNodeDimension * dim,
		nodes:        pool.New[Content[T]](),
		hasher:       newBrickHasher[T](),
	}
	root := o.pushNode(nothingContent[T]())
	if root != pool.RootKey {
		panic("octree: root push did not land on the reserved root slot")
	}
	return o, nil
}

// Size returns the edge length, in lattice units, of the octree's root cube.
func (o *Octree[T]) Size() uint32 { return o.size }

// BrickDim returns the edge length, in lattice units, of a single leaf's brick.
func (o *Octree[T]) BrickDim() uint32 { return o.dim }

func (o *Octree[T]) rootBounds() spatial.Cube {
	return spatial.Cube{MinPosition: spatial.Vec3U32{}, Size: o.size}
}

func (o *Octree[T]) pushNode(c Content[T]) pool.Key {
	k := o.nodes.Push(c)
	for len(o.childArrays) <= int(k) {
		o.childArrays = append(o.childArrays, Children{})
	}
	return k
}

func (o *Octree[T]) freeNode(k pool.Key) {
	o.childArrays[k].Clear()
	o.nodes.Free(k)
}

func (o *Octree[T]) node(k pool.Key) *Content[T] { return o.nodes.Get(k) }

func (o *Octree[T]) children(k pool.Key) *Children { return &o.childArrays[k] }

// matIndex maps a lattice position, known to lie within bounds, to its
// brick-local index in [0, dim)^3.
func (o *Octree[T]) matIndex(bounds spatial.Cube, pos spatial.Vec3U32) spatial.Vec3U32 {
	return pos.Sub(bounds.MinPosition).CutEachComponent(o.dim - 1)
}

func (o *Octree[T]) brickFlatIndex(i spatial.Vec3U32) int {
	return int((i.X*o.dim+i.Y)*o.dim + i.Z)
}

func (o *Octree[T]) newBrick() []T {
	return make([]T, o.dim*o.dim*o.dim)
}

func (o *Octree[T]) uniformBrick(value T) []T {
	b := o.newBrick()
	for i := range b {
		b[i] = value
	}
	return b
}

func containsPosition(bounds spatial.Cube, pos spatial.Vec3U32) bool {
	return bounds.ContainsPointU32(pos)
}
