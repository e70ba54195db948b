package octree

import (
	"github.com/nerdachse/shocovox/internal/debug"
	"github.com/nerdachse/shocovox/pkg/pool"
	"github.com/nerdachse/shocovox/pkg/spatial"
)

type stackFrame struct {
	key    pool.Key
	bounds spatial.Cube
}

func childOctantFor(bounds spatial.Cube, pos spatial.Vec3U32) uint32 {
	rel := pos.Sub(bounds.MinPosition).ToF32()
	return spatial.HashRegion(rel, float32(bounds.Size))
}

// Insert writes a single voxel at pos.
func (o *Octree[T]) Insert(pos spatial.Vec3U32, data T) error {
	return o.InsertAtLOD(pos, 1, data)
}

// InsertAtLOD writes data into an insertSize^3 region containing pos,
// refining or coarsening the tree as needed. When insertSize is at least
// the brick dimension, the region is the octree-aligned node of that size
// containing pos; a smaller region starts at pos within its brick, moved
// back where needed so it stays inside the brick. insertSize must be a
// positive power of two.
func (o *Octree[T]) InsertAtLOD(pos spatial.Vec3U32, insertSize uint32, data T) error {
	debug.Log(nil, "InsertAtLOD", "%v", debug.Dict("insert", "pos", pos, "size", insertSize))

	if !isPowerOfTwo(insertSize) {
		return &InvalidNodeSizeError{Size: insertSize}
	}
	root := o.rootBounds()
	if !containsPosition(root, pos) {
		return &InvalidPositionError{Position: [3]uint32{pos.X, pos.Y, pos.Z}, Size: o.size}
	}

	target := max(insertSize, o.dim)
	stack := []stackFrame{{pool.RootKey, root}}
	noop := false

descend:
	for {
		top := stack[len(stack)-1]
		content := o.node(top.key)

		if top.bounds.Size > target {
			if content.Kind == KindLeaf {
				value := content.Brick[0]
				if value == data {
					noop = true
					break descend
				}
				keys := o.makeUniformChildren(value)
				// Pushing the children may have moved the pool's slots.
				content = o.node(top.key)
				content.Kind = KindInternal
				content.Count = 0
				content.Brick = nil
				o.children(top.key).SetAll(keys)

				octant := childOctantFor(top.bounds, pos)
				stack = append(stack, stackFrame{keys[octant], top.bounds.ChildBoundsFor(octant)})
				continue
			}

			octant := childOctantFor(top.bounds, pos)
			childBounds := top.bounds.ChildBoundsFor(octant)
			childKey := o.children(top.key).Get(octant)
			if !pool.MightBeValid(childKey) {
				if content.Kind == KindNothing {
					content.Kind = KindInternal
				}
				childKey = o.pushNode(nothingContent[T]())
				o.children(top.key).Set(octant, childKey)
			}
			stack = append(stack, stackFrame{childKey, childBounds})
			continue
		}

		if target == o.dim {
			if !content.IsLeaf() {
				content.Kind = KindLeaf
				content.Brick = o.newBrick()
			}
			if insertSize == o.dim {
				if content.IsAll(data) {
					noop = true
				} else {
					for i := range content.Brick {
						content.Brick[i] = data
					}
				}
			} else {
				local := pos.Sub(top.bounds.MinPosition).CutEachComponent(o.dim - insertSize)
				o.writeSubRegion(content.Brick, local, insertSize, data)
			}
		} else {
			if content.IsLeaf() && content.IsAll(data) {
				noop = true
			} else {
				o.deallocateChildrenOf(top.key)
				content.Kind = KindLeaf
				content.Count = 0
				content.Brick = o.uniformBrick(data)
			}
		}
		break descend
	}

	if !noop {
		o.fixupCounts(stack)
	}
	return nil
}

// fixupCounts walks stack bottom to top after a structural change,
// collapsing any newly-uniform subtree (while AutoSimplify holds and
// each level actually collapses) and recomputing each remaining
// Internal/Nothing node's cached count from its children, which are
// already correct by the time this reaches them.
func (o *Octree[T]) fixupCounts(stack []stackFrame) {
	simplifyable := o.AutoSimplify
	for i := len(stack) - 1; i >= 0; i-- {
		key := stack[i].key

		if simplifyable {
			if !o.simplify(key) {
				simplifyable = false
			}
		}

		content := o.node(key)
		if content.Kind == KindLeaf {
			continue
		}
		if c := o.countCachedChildren(key); c > 0 {
			content.Kind = KindInternal
			content.Count = c
		} else {
			content.Kind = KindNothing
			content.Count = 0
		}
	}
}

// Clear resets the single voxel at pos to its empty/default value.
func (o *Octree[T]) Clear(pos spatial.Vec3U32) error {
	return o.ClearAtLOD(pos, 1)
}

// ClearAtLOD empties a clearSize^3 region containing pos, chosen the same
// way as InsertAtLOD chooses its region. clearSize must be a positive
// power of two.
func (o *Octree[T]) ClearAtLOD(pos spatial.Vec3U32, clearSize uint32) error {
	debug.Log(nil, "ClearAtLOD", "%v", debug.Dict("clear", "pos", pos, "size", clearSize))

	if !isPowerOfTwo(clearSize) {
		return &InvalidNodeSizeError{Size: clearSize}
	}
	root := o.rootBounds()
	if !containsPosition(root, pos) {
		return &InvalidPositionError{Position: [3]uint32{pos.X, pos.Y, pos.Z}, Size: o.size}
	}

	target := max(clearSize, o.dim)
	stack := []stackFrame{{pool.RootKey, root}}
	noop := false
	rootCleared := false

descend:
	for {
		top := stack[len(stack)-1]
		content := o.node(top.key)

		if top.bounds.Size > target {
			switch content.Kind {
			case KindNothing:
				noop = true
				break descend
			case KindLeaf:
				value := content.Brick[0]
				keys := o.makeUniformChildren(value)
				// Pushing the children may have moved the pool's slots.
				content = o.node(top.key)
				content.Kind = KindInternal
				content.Count = 0
				content.Brick = nil
				o.children(top.key).SetAll(keys)

				octant := childOctantFor(top.bounds, pos)
				stack = append(stack, stackFrame{keys[octant], top.bounds.ChildBoundsFor(octant)})
			case KindInternal:
				octant := childOctantFor(top.bounds, pos)
				childKey := o.children(top.key).Get(octant)
				if !pool.MightBeValid(childKey) {
					noop = true
					break descend
				}
				stack = append(stack, stackFrame{childKey, top.bounds.ChildBoundsFor(octant)})
			}
			continue
		}

		if content.Kind == KindNothing {
			noop = true
			break descend
		}

		if target == o.dim {
			if !content.IsLeaf() {
				noop = true
				break descend
			}
			var zero T
			if clearSize == o.dim {
				if content.IsAll(zero) {
					noop = true
				} else {
					for i := range content.Brick {
						content.Brick[i] = zero
					}
				}
			} else {
				local := pos.Sub(top.bounds.MinPosition).CutEachComponent(o.dim - clearSize)
				o.writeSubRegion(content.Brick, local, clearSize, zero)
			}
		} else {
			o.deallocateChildrenOf(top.key)
			if top.key == pool.RootKey {
				content.Kind = KindNothing
				content.Count = 0
				content.Brick = nil
				rootCleared = true
			} else {
				o.freeNode(top.key)
				parent := stack[len(stack)-2]
				parentOctant := childOctantFor(parent.bounds, pos)
				o.children(parent.key).Set(parentOctant, pool.NoneKey)
				stack = stack[:len(stack)-1]
			}
		}
		break descend
	}

	if !noop && !rootCleared {
		o.fixupCounts(stack)
	}
	return nil
}

// simplify attempts to collapse key, if Internal, into a single uniform
// Leaf when all eight children are themselves uniform leaves of equal
// value. It reports whether the node is now in a maximally simplified
// state (true for Leaf/Nothing, or for an Internal node that was just
// collapsed); false means an ancestor calling this during the same pass
// can stop trying, since its own children check will fail too.
func (o *Octree[T]) simplify(key pool.Key) bool {
	content := o.node(key)
	if content.Kind != KindInternal {
		return true
	}

	kids := o.children(key)
	if kids.IsEmpty() {
		return false
	}
	all := kids.All()

	var value T
	var wantHash uint64
	for i, ck := range all {
		if !pool.MightBeValid(ck) {
			return false
		}
		child := o.node(ck)
		if child.Kind != KindLeaf {
			return false
		}
		h := o.hasher.hashValue(child.Brick[0])
		if i == 0 {
			value = child.Brick[0]
			wantHash = h
		} else if h != wantHash || child.Brick[0] != value {
			return false
		}
		if !brickIsUniform(child.Brick) {
			return false
		}
	}

	for _, ck := range all {
		o.freeNode(ck)
	}
	kids.Clear()
	content.Kind = KindLeaf
	content.Count = 0
	content.Brick = o.uniformBrick(value)

	debug.Log(nil, "simplify", "%v", debug.Dict("collapsed", "key", key, "value", value))
	return true
}

func brickIsUniform[T VoxelData](brick []T) bool {
	v := brick[0]
	for _, x := range brick {
		if x != v {
			return false
		}
	}
	return true
}

func (o *Octree[T]) countCachedChildren(key pool.Key) uint32 {
	kids := o.children(key)
	if kids.IsEmpty() {
		return 0
	}
	var total uint32
	for _, ck := range kids.All() {
		if !pool.MightBeValid(ck) {
			continue
		}
		c := o.node(ck)
		switch c.Kind {
		case KindLeaf:
			total++
		case KindInternal:
			total += c.Count
		}
	}
	return total
}

func (o *Octree[T]) deallocateChildrenOf(key pool.Key) {
	kids := o.children(key)
	if kids.IsEmpty() {
		return
	}
	for _, ck := range kids.All() {
		if pool.MightBeValid(ck) {
			o.deallocateChildrenOf(ck)
			o.freeNode(ck)
		}
	}
	kids.Clear()
}

func (o *Octree[T]) makeUniformChildren(value T) [8]pool.Key {
	var keys [8]pool.Key
	for i := range keys {
		keys[i] = o.pushNode(leafContent[T](o.uniformBrick(value)))
	}
	return keys
}

func (o *Octree[T]) writeSubRegion(brick []T, local spatial.Vec3U32, size uint32, value T) {
	for x := uint32(0); x < size; x++ {
		for y := uint32(0); y < size; y++ {
			for z := uint32(0); z < size; z++ {
				idx := o.brickFlatIndex(spatial.Vec3U32{X: local.X + x, Y: local.Y + y, Z: local.Z + z})
				brick[idx] = value
			}
		}
	}
}
