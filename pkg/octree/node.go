package octree

import "github.com/nerdachse/shocovox/pkg/pool"

// Kind tags the three possible states a node can be in.
type Kind uint8

const (
	KindNothing Kind = iota
	KindInternal
	KindLeaf
)

// Content is a tagged union over a node's possible states, represented
// as a plain struct rather than an interface so it can live inline in
// the node pool without boxing.
//
//   - Nothing:  Kind == KindNothing, no other field meaningful.
//   - Internal: Kind == KindInternal, Count caches an occupancy figure
//     for the subtree. fixupCounts sets it to the number of leaves
//     beneath this node (a leaf counts once, whatever its brick holds);
//     GetMut sets it to the node's voxel volume when it refines a leaf.
//     Only whether it is zero is read: GetByRay skips a subtree whose
//     count is zero.
//   - Leaf:     Kind == KindLeaf, Brick holds dim*dim*dim voxels in
//     x-major, then y, then z order.
type Content[T VoxelData] struct {
	Kind  Kind
	Count uint32
	Brick []T
}

func nothingContent[T VoxelData]() Content[T] {
	return Content[T]{Kind: KindNothing}
}

func internalContent[T VoxelData](count uint32) Content[T] {
	return Content[T]{Kind: KindInternal, Count: count}
}

func leafContent[T VoxelData](brick []T) Content[T] {
	return Content[T]{Kind: KindLeaf, Brick: brick}
}

// IsLeaf reports whether the node holds brick data.
func (c Content[T]) IsLeaf() bool { return c.Kind == KindLeaf }

// IsEmpty reports whether the node is in the Nothing state.
func (c Content[T]) IsEmpty() bool { return c.Kind == KindNothing }

// IsAll reports whether the node is a leaf whose every voxel equals value.
// It is false for non-leaf nodes.
func (c Content[T]) IsAll(value T) bool {
	if c.Kind != KindLeaf {
		return false
	}
	for _, v := range c.Brick {
		if v != value {
			return false
		}
	}
	return true
}

// Children is the compact per-node child-key array. It starts in a
// "NoChildren" zero-value state and only materializes its backing
// [8]pool.Key array (filled with NoneKey) on first Set, mirroring the
// source tree's auto-materializing index-assignment on its own
// children-array type.
type Children struct {
	has  bool
	keys [8]pool.Key
}

// IsEmpty reports whether no child slot has ever been set.
func (c *Children) IsEmpty() bool { return !c.has }

// Get returns the key stored at octant i, or pool.NoneKey if the
// children array has never been materialized or that octant is unset.
func (c *Children) Get(i uint32) pool.Key {
	if !c.has {
		return pool.NoneKey
	}
	return c.keys[i]
}

// Set stores k at octant i, materializing the backing array (with every
// other octant defaulting to NoneKey) on first use.
func (c *Children) Set(i uint32, k pool.Key) {
	if !c.has {
		for j := range c.keys {
			c.keys[j] = pool.NoneKey
		}
		c.has = true
	}
	c.keys[i] = k
}

// SetAll replaces the entire backing array at once, e.g. when a leaf is
// refined into eight uniform children in a single step.
func (c *Children) SetAll(ks [8]pool.Key) {
	c.keys = ks
	c.has = true
}

// All returns the full eight-slot array, with NoneKey entries standing
// in for a never-materialized array.
func (c *Children) All() [8]pool.Key {
	if !c.has {
		var none [8]pool.Key
		for i := range none {
			none[i] = pool.NoneKey
		}
		return none
	}
	return c.keys
}

// Clear resets the array to its NoChildren state.
func (c *Children) Clear() {
	c.has = false
	c.keys = [8]pool.Key{}
}
