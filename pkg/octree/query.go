package octree

import (
	"github.com/nerdachse/shocovox/internal/debug"
	"github.com/nerdachse/shocovox/pkg/opt"
	"github.com/nerdachse/shocovox/pkg/pool"
	"github.com/nerdachse/shocovox/pkg/spatial"
)

// Get returns the voxel at pos, or None if pos falls in an empty region
// or outside the tree.
func (o *Octree[T]) Get(pos spatial.Vec3U32) opt.Option[T] {
	debug.Log(nil, "Get", "%v", debug.Dict("pos", "x", pos.X, "y", pos.Y, "z", pos.Z))

	bounds := o.rootBounds()
	if !containsPosition(bounds, pos) {
		return opt.None[T]()
	}

	key := pool.RootKey
	for bounds.Size > o.dim {
		content := o.node(key)
		switch content.Kind {
		case KindNothing:
			return opt.None[T]()
		case KindLeaf:
			return emptyAsNone(content.Brick[0])
		default:
			octant := childOctantFor(bounds, pos)
			childKey := o.children(key).Get(octant)
			if !pool.MightBeValid(childKey) {
				return opt.None[T]()
			}
			key = childKey
			bounds = bounds.ChildBoundsFor(octant)
		}
	}

	content := o.node(key)
	if content.Kind != KindLeaf {
		return opt.None[T]()
	}
	return emptyAsNone(content.Brick[o.brickFlatIndex(o.matIndex(bounds, pos))])
}

// emptyAsNone turns a resolved cell value into None whenever its alpha
// channel marks it empty, per the absent-on-zero-alpha lookup contract.
func emptyAsNone[T VoxelData](v T) opt.Option[T] {
	if v.Albedo()[3] == 0 {
		return opt.None[T]()
	}
	return opt.Some(v)
}

// GetMut returns a pointer to the voxel at pos for in-place mutation,
// refining any coarser uniform region down to brick granularity first so
// the returned pointer addresses exactly one voxel. Callers that only
// need to overwrite a region, rather than read-modify-write it, should
// prefer InsertAtLOD: it avoids this refinement when the whole region is
// being replaced anyway.
func (o *Octree[T]) GetMut(pos spatial.Vec3U32) opt.Option[*T] {
	debug.Log(nil, "GetMut", "%v", debug.Dict("pos", "x", pos.X, "y", pos.Y, "z", pos.Z))

	bounds := o.rootBounds()
	if !containsPosition(bounds, pos) {
		return opt.None[*T]()
	}

	key := pool.RootKey
	for bounds.Size > o.dim {
		content := o.node(key)
		if content.Kind == KindNothing {
			return opt.None[*T]()
		}
		if content.Kind == KindLeaf {
			value := content.Brick[0]
			keys := o.makeUniformChildren(value)
			// Pushing the children may have moved the pool's slots.
			content = o.node(key)
			content.Kind = KindInternal
			content.Count = bounds.Size * bounds.Size * bounds.Size
			content.Brick = nil
			o.children(key).SetAll(keys)
		}

		octant := childOctantFor(bounds, pos)
		childKey := o.children(key).Get(octant)
		if !pool.MightBeValid(childKey) {
			return opt.None[*T]()
		}
		key = childKey
		bounds = bounds.ChildBoundsFor(octant)
	}

	content := o.node(key)
	if content.Kind != KindLeaf {
		return opt.None[*T]()
	}
	cell := &content.Brick[o.brickFlatIndex(o.matIndex(bounds, pos))]
	if cell.Albedo()[3] == 0 {
		return opt.None[*T]()
	}
	return opt.Some(cell)
}
