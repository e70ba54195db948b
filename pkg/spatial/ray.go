package spatial

// Ray is a half-line in world space. Direction is expected to be unit
// length; callers normalize before constructing one.
type Ray struct {
	Origin    Vec3F32
	Direction Vec3F32
}

// PointAt returns the point reached after traveling distance t along the
// ray from its origin.
func (r Ray) PointAt(t float32) Vec3F32 {
	return r.Origin.Add(r.Direction.MulScalar(t))
}

// PlaneLineIntersection returns the signed distance along the line from
// lineOrigin to the point where it crosses the plane through
// pointOnPlane with the given normal. ok is false iff the line is
// parallel to the plane.
func PlaneLineIntersection(pointOnPlane, planeNormal, lineOrigin, lineDir Vec3F32) (float32, bool) {
	denom := planeNormal.Dot(lineDir)
	if denom > -FloatErrorTolerance && denom < FloatErrorTolerance {
		return 0, false
	}
	t := planeNormal.Dot(pointOnPlane.Sub(lineOrigin)) / denom
	return t, true
}
