package octree

import (
	"math"

	"github.com/nerdachse/shocovox/internal/debug"
	"github.com/nerdachse/shocovox/pkg/opt"
	"github.com/nerdachse/shocovox/pkg/pool"
	"github.com/nerdachse/shocovox/pkg/spatial"
	"github.com/nerdachse/shocovox/pkg/tuple"
)

// nodeStackItem is one frame of the stackful ray-traversal loop: the
// node currently being visited, the bounds it was intersected against,
// and a running "child_center" used to re-derive which octant the ray
// is aimed at without re-deriving it from scratch on every step.
type nodeStackItem struct {
	bounds             spatial.Cube
	boundsIntersection spatial.CubeHit
	nodeKey            pool.Key
	targetOctant       uint32
	childCenter        spatial.Vec3F32
}

func newNodeStackItem(bounds spatial.Cube, hit spatial.CubeHit, nodeKey pool.Key, targetOctant uint32) nodeStackItem {
	quarter := float32(bounds.Size) / 4
	half := float32(bounds.Size) / 2
	center := bounds.MinPosition.ToF32().
		Add(spatial.UnitF32(quarter)).
		Add(spatial.OffsetRegion(targetOctant).ToF32().MulScalar(half))
	return nodeStackItem{bounds, hit, nodeKey, targetOctant, center}
}

func (s *nodeStackItem) addPoint(p spatial.Vec3F32) {
	s.childCenter = s.childCenter.Add(p)
	rel := s.childCenter.Sub(s.bounds.MinPosition.ToF32())
	s.targetOctant = spatial.HashRegion(rel, float32(s.bounds.Size))
}

func (s *nodeStackItem) targetBounds() spatial.Cube {
	return s.bounds.ChildBoundsFor(s.targetOctant)
}

func (s *nodeStackItem) containsTargetCenter() bool {
	return s.bounds.ContainsPoint(s.childCenter)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func copysign32(mag, sign float32) float32 {
	if sign < 0 {
		return -mag
	}
	return mag
}

// stepToNextSibling computes the displacement that moves a traversal
// point from inside bounds to just across the face it exits through
// along ray, by intersecting the ray against the three candidate exit
// planes and keeping the nearest one (ties within FloatErrorTolerance
// step on every tied axis at once, matching corner/edge exits).
func stepToNextSibling(bounds spatial.Cube, ray spatial.Ray) spatial.Vec3F32 {
	mid := bounds.Midpoint()
	half := float32(bounds.Size) / 2

	ref := spatial.Vec3F32{
		X: mid.X + copysign32(half, ray.Direction.X),
		Y: mid.Y + copysign32(half, ray.Direction.Y),
		Z: mid.Z + copysign32(half, ray.Direction.Z),
	}

	dx, okx := spatial.PlaneLineIntersection(spatial.Vec3F32{X: ref.X}, spatial.Vec3F32{X: 1}, ray.Origin, ray.Direction)
	dy, oky := spatial.PlaneLineIntersection(spatial.Vec3F32{Y: ref.Y}, spatial.Vec3F32{Y: 1}, ray.Origin, ray.Direction)
	dz, okz := spatial.PlaneLineIntersection(spatial.Vec3F32{Z: ref.Z}, spatial.Vec3F32{Z: 1}, ray.Origin, ray.Direction)

	min := float32(math.MaxFloat32)
	if okx && dx < min {
		min = dx
	}
	if oky && dy < min {
		min = dy
	}
	if okz && dz < min {
		min = dz
	}

	size := float32(bounds.Size)
	var step spatial.Vec3F32
	if okx && abs32(dx-min) < spatial.FloatErrorTolerance {
		step.X = copysign32(size, ray.Direction.X)
	}
	if oky && abs32(dy-min) < spatial.FloatErrorTolerance {
		step.Y = copysign32(size, ray.Direction.Y)
	}
	if okz && abs32(dz-min) < spatial.FloatErrorTolerance {
		step.Z = copysign32(size, ray.Direction.Z)
	}
	return step
}

func clampCellIndex(v int32, dim uint32) uint32 {
	if v < 0 {
		return 0
	}
	if uint32(v) >= dim {
		return dim - 1
	}
	return uint32(v)
}

func (o *Octree[T]) cellBoundsAt(bounds spatial.Cube, cell spatial.Vec3U32) spatial.Cube {
	cellSize := bounds.Size / o.dim
	return spatial.Cube{
		MinPosition: bounds.MinPosition.Add(cell.MulScalar(cellSize)),
		Size:        cellSize,
	}
}

// traverseMatrix marches cell by cell through a leaf's brick starting at
// entry, returning the brick-local index of the first non-empty voxel
// the ray passes through together with the world-space point where the
// ray enters that cell and the normal of the cell face it enters through
// (entry's normal when the ray starts inside the cell), or found=false if
// the ray exits the brick without hitting anything.
func (o *Octree[T]) traverseMatrix(brick []T, bounds spatial.Cube, ray spatial.Ray, entry spatial.CubeHit) (cell spatial.Vec3U32, point, normal spatial.Vec3F32, found bool) {
	cellSize := bounds.Size / o.dim

	entryDist := float32(0)
	if entry.ImpactDistance != nil {
		entryDist = *entry.ImpactDistance
	}
	p := ray.PointAt(entryDist)
	rel := p.Sub(bounds.MinPosition.ToF32()).DivScalar(float32(cellSize))
	idx := rel.ToI32Trunc()
	cell = spatial.Vec3U32{
		X: clampCellIndex(idx.X, o.dim),
		Y: clampCellIndex(idx.Y, o.dim),
		Z: clampCellIndex(idx.Z, o.dim),
	}

	for {
		if brick[o.brickFlatIndex(cell)].Albedo()[3] > 0 {
			cellBounds := o.cellBoundsAt(bounds, cell)
			cellHit, ok := cellBounds.IntersectRay(ray)
			d := float32(0)
			normal = entry.ImpactNormal
			if ok && cellHit.ImpactDistance != nil {
				d = *cellHit.ImpactDistance
				normal = cellHit.ImpactNormal
			}
			return cell, ray.PointAt(d), normal, true
		}

		cellBounds := o.cellBoundsAt(bounds, cell)
		step := stepToNextSibling(cellBounds, ray)
		if step.X == 0 && step.Y == 0 && step.Z == 0 {
			return spatial.Vec3U32{}, spatial.Vec3F32{}, spatial.Vec3F32{}, false
		}

		delta := spatial.Vec3I32{X: signOf(step.X), Y: signOf(step.Y), Z: signOf(step.Z)}
		next := cell.ToI32().Add(delta)
		if next.X < 0 || next.X >= int32(o.dim) ||
			next.Y < 0 || next.Y >= int32(o.dim) ||
			next.Z < 0 || next.Z >= int32(o.dim) {
			return spatial.Vec3U32{}, spatial.Vec3F32{}, spatial.Vec3F32{}, false
		}
		cell = next.ToU32()
	}
}

func signOf(v float32) int32 {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

// GetByRay casts ray through the tree and returns the first non-empty
// voxel it hits, together with the world-space point where the ray
// entered it and the surface normal of the face it entered through.
func (o *Octree[T]) GetByRay(ray spatial.Ray) opt.Option[tuple.Tuple3[T, spatial.Vec3F32, spatial.Vec3F32]] {
	debug.Log(nil, "GetByRay", "%v", debug.Dict("ray", "origin", ray.Origin, "dir", ray.Direction))

	none := opt.None[tuple.Tuple3[T, spatial.Vec3F32, spatial.Vec3F32]]()

	root := o.rootBounds()
	hit, ok := root.IntersectRay(ray)
	if !ok {
		return none
	}

	rootContent := o.node(pool.RootKey)
	if rootContent.Kind == KindNothing {
		return none
	}
	if rootContent.Kind == KindLeaf {
		if cell, point, normal, found := o.traverseMatrix(rootContent.Brick, root, ray, hit); found {
			return opt.Some(tuple.New3(rootContent.Brick[o.brickFlatIndex(cell)], point, normal))
		}
		return none
	}

	entryDist := float32(0)
	if hit.ImpactDistance != nil {
		entryDist = *hit.ImpactDistance
	}
	entryPoint := ray.PointAt(entryDist)
	initialOctant := spatial.HashRegion(entryPoint.Sub(root.MinPosition.ToF32()), float32(root.Size))

	stack := []nodeStackItem{newNodeStackItem(root, hit, pool.RootKey, initialOctant)}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		content := o.node(top.nodeKey)

		nodeIsEmpty := content.Kind == KindNothing || (content.Kind == KindInternal && content.Count == 0)
		if !top.containsTargetCenter() || nodeIsEmpty {
			popped := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				break
			}
			newTop := &stack[len(stack)-1]
			newTop.addPoint(stepToNextSibling(popped.bounds, ray))
			continue
		}

		if content.Kind == KindLeaf {
			if cell, point, normal, found := o.traverseMatrix(content.Brick, top.bounds, ray, top.boundsIntersection); found {
				return opt.Some(tuple.New3(content.Brick[o.brickFlatIndex(cell)], point, normal))
			}
			popped := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				break
			}
			newTop := &stack[len(stack)-1]
			newTop.addPoint(stepToNextSibling(popped.bounds, ray))
			continue
		}

		targetBounds := top.targetBounds()
		targetKey := o.children(top.nodeKey).Get(top.targetOctant)
		targetEmpty := !pool.MightBeValid(targetKey)
		if !targetEmpty {
			tc := o.node(targetKey)
			targetEmpty = tc.Kind == KindNothing || (tc.Kind == KindInternal && tc.Count == 0)
		}
		targetHit, targetOk := targetBounds.IntersectRay(ray)

		if !targetEmpty && targetOk {
			targetEntryDist := float32(0)
			if targetHit.ImpactDistance != nil {
				targetEntryDist = *targetHit.ImpactDistance
			}
			targetEntryPoint := ray.PointAt(targetEntryDist)
			childTargetOctant := spatial.HashRegion(
				targetEntryPoint.Sub(targetBounds.MinPosition.ToF32()), float32(targetBounds.Size),
			)
			stack = append(stack, newNodeStackItem(targetBounds, targetHit, targetKey, childTargetOctant))
		} else {
			top.addPoint(stepToNextSibling(targetBounds, ray))
		}
	}

	return none
}
