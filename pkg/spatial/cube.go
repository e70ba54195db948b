package spatial

import "math"

// Cube is an axis-aligned cube spanning the half-open lattice region
// [min, min+size).
type Cube struct {
	MinPosition Vec3U32
	Size        uint32
}

// CubeHit is the result of a ray/cube slab intersection. ImpactDistance is
// nil iff the ray origin lies strictly inside the cube.
type CubeHit struct {
	ImpactDistance *float32
	ExitDistance   float32
	ImpactNormal   Vec3F32
}

// ChildBoundsFor returns the bounds of the child at the given octant,
// per I2: min + offset_region(i)*size/2, size/2.
func (c Cube) ChildBoundsFor(octant uint32) Cube {
	half := c.Size / 2
	return Cube{
		MinPosition: c.MinPosition.Add(OffsetRegion(octant).MulScalar(half)),
		Size:        half,
	}
}

// Midpoint returns the cube's center.
func (c Cube) Midpoint() Vec3F32 {
	return c.MinPosition.ToF32().Add(UnitF32(float32(c.Size) / 2))
}

// ContainsPoint reports whether p lies within the cube, inclusive of the
// far boundary (matching the original's `bound_contains` convention).
func (c Cube) ContainsPoint(p Vec3F32) bool {
	min := c.MinPosition.ToF32()
	size := float32(c.Size)
	return p.X >= min.X && p.X <= min.X+size &&
		p.Y >= min.Y && p.Y <= min.Y+size &&
		p.Z >= min.Z && p.Z <= min.Z+size
}

// ContainsPointU32 is the integer-lattice counterpart of ContainsPoint,
// used to validate positions for lookup and insert/clear. Unlike
// ContainsPoint it treats the cube as the half-open region
// [min, min+size), so the far boundary is excluded.
func (c Cube) ContainsPointU32(p Vec3U32) bool {
	return p.X >= c.MinPosition.X && p.X < c.MinPosition.X+c.Size &&
		p.Y >= c.MinPosition.Y && p.Y < c.MinPosition.Y+c.Size &&
		p.Z >= c.MinPosition.Z && p.Z < c.MinPosition.Z+c.Size
}

// IntersectRay performs a ray/AABB slab test. It returns ok=false iff the
// ray misses the slab entirely (or the cube is entirely behind the ray
// origin).
func (c Cube) IntersectRay(ray Ray) (CubeHit, bool) {
	min := c.MinPosition.ToF32()
	size := float32(c.Size)
	max := Vec3F32{min.X + size, min.Y + size, min.Z + size}

	var tMin, tMax float32 = negInf, posInf
	var normalAxis int = -1
	var normalSign float32 = -1

	axes := [3]struct {
		o, d, lo, hi float32
	}{
		{ray.Origin.X, ray.Direction.X, min.X, max.X},
		{ray.Origin.Y, ray.Direction.Y, min.Y, max.Y},
		{ray.Origin.Z, ray.Direction.Z, min.Z, max.Z},
	}

	for i, a := range axes {
		if a.d == 0 {
			if a.o < a.lo || a.o > a.hi {
				return CubeHit{}, false
			}
			continue
		}

		t1 := (a.lo - a.o) / a.d
		t2 := (a.hi - a.o) / a.d
		sign := float32(-1)
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}

		if t1 > tMin {
			tMin = t1
			normalAxis = i
			normalSign = sign
		}
		if t2 < tMax {
			tMax = t2
		}
	}

	if tMin > tMax || tMax < 0 {
		return CubeHit{}, false
	}

	normal := Vec3F32{}
	switch normalAxis {
	case 0:
		normal = Vec3F32{X: normalSign}
	case 1:
		normal = Vec3F32{Y: normalSign}
	case 2:
		normal = Vec3F32{Z: normalSign}
	}

	hit := CubeHit{ExitDistance: tMax, ImpactNormal: normal}
	if tMin >= 0 {
		d := tMin
		hit.ImpactDistance = &d
	}
	return hit, true
}

var (
	posInf = float32(math.Inf(1))
	negInf = float32(math.Inf(-1))
)
