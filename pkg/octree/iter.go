package octree

import (
	"iter"

	"github.com/nerdachse/shocovox/pkg/pool"
	"github.com/nerdachse/shocovox/pkg/spatial"
)

// All walks every non-empty voxel in the tree in depth-first order,
// yielding its lattice position and value. A coarse uniform leaf yields
// one (position, value) pair per brick cell it was decimated to, at
// that cell's own sub-cube resolution, rather than silently expanding
// to the finest lattice granularity.
func (o *Octree[T]) All() iter.Seq2[spatial.Vec3U32, T] {
	return func(yield func(spatial.Vec3U32, T) bool) {
		o.walk(pool.RootKey, o.rootBounds(), yield)
	}
}

func (o *Octree[T]) walk(key pool.Key, bounds spatial.Cube, yield func(spatial.Vec3U32, T) bool) bool {
	content := o.node(key)
	switch content.Kind {
	case KindNothing:
		return true
	case KindLeaf:
		cellSize := bounds.Size / o.dim
		for x := uint32(0); x < o.dim; x++ {
			for y := uint32(0); y < o.dim; y++ {
				for z := uint32(0); z < o.dim; z++ {
					cell := spatial.Vec3U32{X: x, Y: y, Z: z}
					v := content.Brick[o.brickFlatIndex(cell)]
					if v.Albedo()[3] == 0 {
						continue
					}
					pos := bounds.MinPosition.Add(cell.MulScalar(cellSize))
					if !yield(pos, v) {
						return false
					}
				}
			}
		}
		return true
	default:
		kids := o.children(key)
		if kids.IsEmpty() {
			return true
		}
		for octant, childKey := range kids.All() {
			if !pool.MightBeValid(childKey) {
				continue
			}
			childBounds := bounds.ChildBoundsFor(uint32(octant))
			if !o.walk(childKey, childBounds, yield) {
				return false
			}
		}
		return true
	}
}
