package octree_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/nerdachse/shocovox/internal/debug"
	"github.com/nerdachse/shocovox/pkg/octree"
	"github.com/nerdachse/shocovox/pkg/spatial"
	"github.com/nerdachse/shocovox/pkg/xerrors"
)

func TestNewValidation(t *testing.T) {
	Convey("Given octree construction", t, func() {
		Convey("A non-power-of-two root dimension is rejected", func() {
			_, err := octree.New[octree.RGB](3)
			So(err, ShouldNotBeNil)
		})

		Convey("A non-power-of-two brick dimension is rejected", func() {
			_, err := octree.NewWithBrickSize[octree.RGB](4, 3)
			So(err, ShouldNotBeNil)
		})

		Convey("Valid dimensions construct an empty tree", func() {
			tree, err := octree.New[octree.RGB](8)
			So(err, ShouldBeNil)
			So(tree.Size(), ShouldEqual, uint32(8))
			So(tree.Get(spatial.Vec3U32{X: 1, Y: 1, Z: 1}).IsNone(), ShouldBeTrue)
		})
	})
}

func TestErrorTypes(t *testing.T) {
	Convey("Given construction and mutation errors", t, func() {
		Convey("A bad root dimension surfaces as InvalidNodeSizeError", func() {
			_, err := octree.New[octree.RGB](3)
			sizeErr, ok := xerrors.AsA[*octree.InvalidNodeSizeError](err)
			So(ok, ShouldBeTrue)
			So(sizeErr.Size, ShouldEqual, uint32(3))
		})

		Convey("A bad insert size surfaces as InvalidNodeSizeError", func() {
			tree, _ := octree.New[octree.RGB](8)
			err := tree.InsertAtLOD(spatial.Vec3U32{}, 3, octree.NewRGB(1, 2, 3))
			_, ok := xerrors.AsA[*octree.InvalidNodeSizeError](err)
			So(ok, ShouldBeTrue)
		})

		Convey("An out-of-bounds position surfaces as InvalidPositionError", func() {
			tree, _ := octree.New[octree.RGB](8)
			err := tree.Insert(spatial.Vec3U32{X: 8, Y: 0, Z: 0}, octree.NewRGB(1, 2, 3))
			posErr, ok := xerrors.AsA[*octree.InvalidPositionError](err)
			So(ok, ShouldBeTrue)
			So(posErr.Position, ShouldResemble, [3]uint32{8, 0, 0})
		})
	})
}

func TestSimpleInsertAndGet(t *testing.T) {
	defer debug.WithTesting(t)()

	Convey("Given an empty octree with single-voxel leaves", t, func() {
		tree, _ := octree.New[octree.RGB](8)
		red := octree.NewRGB(255, 0, 0)

		Convey("A voxel written at a position reads back at that position only", func() {
			err := tree.Insert(spatial.Vec3U32{X: 3, Y: 5, Z: 2}, red)
			So(err, ShouldBeNil)

			got := tree.Get(spatial.Vec3U32{X: 3, Y: 5, Z: 2})
			So(got.IsSome(), ShouldBeTrue)
			So(got.Unwrap(), ShouldResemble, red)

			So(tree.Get(spatial.Vec3U32{X: 3, Y: 5, Z: 3}).IsNone(), ShouldBeTrue)
		})

		Convey("Out-of-bounds positions are rejected", func() {
			err := tree.Insert(spatial.Vec3U32{X: 8, Y: 0, Z: 0}, red)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestGetMut(t *testing.T) {
	Convey("Given an octree with one voxel set", t, func() {
		tree, _ := octree.New[octree.RGB](8)
		red := octree.NewRGB(255, 0, 0)
		_ = tree.Insert(spatial.Vec3U32{X: 1, Y: 1, Z: 1}, red)

		Convey("GetMut returns a pointer that mutates the stored value", func() {
			ptr := tree.GetMut(spatial.Vec3U32{X: 1, Y: 1, Z: 1})
			So(ptr.IsSome(), ShouldBeTrue)
			*ptr.Unwrap() = octree.NewRGB(0, 255, 0)

			So(tree.Get(spatial.Vec3U32{X: 1, Y: 1, Z: 1}).Unwrap(), ShouldResemble, octree.NewRGB(0, 255, 0))
		})

		Convey("GetMut on an empty position returns None", func() {
			So(tree.GetMut(spatial.Vec3U32{X: 6, Y: 6, Z: 6}).IsNone(), ShouldBeTrue)
		})
	})
}

func TestInsertAtLOD(t *testing.T) {
	Convey("Given an empty octree", t, func() {
		tree, _ := octree.New[octree.RGB](8)
		blue := octree.NewRGB(0, 0, 255)

		Convey("A coarse insert fills every lattice position in the region", func() {
			err := tree.InsertAtLOD(spatial.Vec3U32{}, 4, blue)
			So(err, ShouldBeNil)

			for x := uint32(0); x < 4; x++ {
				for y := uint32(0); y < 4; y++ {
					for z := uint32(0); z < 4; z++ {
						got := tree.Get(spatial.Vec3U32{X: x, Y: y, Z: z})
						So(got.IsSome(), ShouldBeTrue)
						So(got.Unwrap(), ShouldResemble, blue)
					}
				}
			}

			Convey("and leaves the rest of the tree untouched", func() {
				So(tree.Get(spatial.Vec3U32{X: 4, Y: 4, Z: 4}).IsNone(), ShouldBeTrue)
			})
		})
	})
}

func TestInsertAtLODWithSimplify(t *testing.T) {
	Convey("Given an octree with AutoSimplify on", t, func() {
		tree, _ := octree.New[octree.RGB](8)
		green := octree.NewRGB(0, 255, 0)
		So(tree.AutoSimplify, ShouldBeTrue)

		Convey("Filling every octant with the same value collapses back to one leaf", func() {
			_ = tree.InsertAtLOD(spatial.Vec3U32{}, 4, green)
			_ = tree.InsertAtLOD(spatial.Vec3U32{X: 4}, 4, green)
			_ = tree.InsertAtLOD(spatial.Vec3U32{Y: 4}, 4, green)
			_ = tree.InsertAtLOD(spatial.Vec3U32{Z: 4}, 4, green)
			_ = tree.InsertAtLOD(spatial.Vec3U32{X: 4, Y: 4}, 4, green)
			_ = tree.InsertAtLOD(spatial.Vec3U32{X: 4, Z: 4}, 4, green)
			_ = tree.InsertAtLOD(spatial.Vec3U32{Y: 4, Z: 4}, 4, green)
			_ = tree.InsertAtLOD(spatial.Vec3U32{X: 4, Y: 4, Z: 4}, 4, green)

			So(tree.Get(spatial.Vec3U32{X: 7, Y: 7, Z: 7}).Unwrap(), ShouldResemble, green)
			So(tree.Get(spatial.Vec3U32{X: 0, Y: 0, Z: 0}).Unwrap(), ShouldResemble, green)
		})
	})
}

func TestSimplifyableInsertAndGet(t *testing.T) {
	Convey("Given a tree filled uniformly then punctured", t, func() {
		tree, _ := octree.New[octree.RGB](8)
		white := octree.NewRGB(255, 255, 255)
		gray := octree.NewRGB(128, 128, 128)

		_ = tree.InsertAtLOD(spatial.Vec3U32{}, 8, white)
		So(tree.Get(spatial.Vec3U32{X: 5, Y: 5, Z: 5}).Unwrap(), ShouldResemble, white)

		Convey("Overwriting one voxel refines just enough of the tree to hold it", func() {
			_ = tree.Insert(spatial.Vec3U32{X: 5, Y: 5, Z: 5}, gray)

			So(tree.Get(spatial.Vec3U32{X: 5, Y: 5, Z: 5}).Unwrap(), ShouldResemble, gray)
			So(tree.Get(spatial.Vec3U32{X: 0, Y: 0, Z: 0}).Unwrap(), ShouldResemble, white)
			So(tree.Get(spatial.Vec3U32{X: 6, Y: 6, Z: 6}).Unwrap(), ShouldResemble, white)
		})
	})
}

func TestSimpleClear(t *testing.T) {
	Convey("Given an octree with a voxel set", t, func() {
		tree, _ := octree.New[octree.RGB](8)
		red := octree.NewRGB(255, 0, 0)
		_ = tree.Insert(spatial.Vec3U32{X: 2, Y: 2, Z: 2}, red)

		Convey("Clearing it removes exactly that voxel", func() {
			err := tree.Clear(spatial.Vec3U32{X: 2, Y: 2, Z: 2})
			So(err, ShouldBeNil)
			So(tree.Get(spatial.Vec3U32{X: 2, Y: 2, Z: 2}).IsNone(), ShouldBeTrue)
		})

		Convey("Clearing an already-empty voxel is a no-op", func() {
			err := tree.Clear(spatial.Vec3U32{X: 7, Y: 7, Z: 7})
			So(err, ShouldBeNil)
		})
	})
}

func TestSimplifyableClear(t *testing.T) {
	Convey("Given a uniformly filled tree", t, func() {
		tree, _ := octree.New[octree.RGB](8)
		white := octree.NewRGB(255, 255, 255)
		_ = tree.InsertAtLOD(spatial.Vec3U32{}, 8, white)

		Convey("Clearing one voxel refines the tree and leaves the rest intact", func() {
			_ = tree.Clear(spatial.Vec3U32{X: 3, Y: 3, Z: 3})

			So(tree.Get(spatial.Vec3U32{X: 3, Y: 3, Z: 3}).IsNone(), ShouldBeTrue)
			So(tree.Get(spatial.Vec3U32{X: 0, Y: 0, Z: 0}).Unwrap(), ShouldResemble, white)
		})
	})
}

func TestClearAtLOD(t *testing.T) {
	Convey("Given a uniformly filled tree", t, func() {
		tree, _ := octree.New[octree.RGB](8)
		white := octree.NewRGB(255, 255, 255)
		_ = tree.InsertAtLOD(spatial.Vec3U32{}, 8, white)

		Convey("Clearing a whole quadrant empties every voxel within it", func() {
			err := tree.ClearAtLOD(spatial.Vec3U32{X: 4, Y: 4, Z: 4}, 4)
			So(err, ShouldBeNil)

			for x := uint32(4); x < 8; x++ {
				for y := uint32(4); y < 8; y++ {
					for z := uint32(4); z < 8; z++ {
						So(tree.Get(spatial.Vec3U32{X: x, Y: y, Z: z}).IsNone(), ShouldBeTrue)
					}
				}
			}
			So(tree.Get(spatial.Vec3U32{X: 0, Y: 0, Z: 0}).Unwrap(), ShouldResemble, white)
		})
	})
}

func TestEdgeCaseVoxelAddedAgain(t *testing.T) {
	Convey("Given a voxel already set to a value", t, func() {
		tree, _ := octree.New[octree.RGB](8)
		red := octree.NewRGB(255, 0, 0)
		pos := spatial.Vec3U32{X: 1, Y: 1, Z: 1}
		_ = tree.Insert(pos, red)

		Convey("Inserting the same value again is a no-op that still reads back correctly", func() {
			err := tree.Insert(pos, red)
			So(err, ShouldBeNil)
			So(tree.Get(pos).Unwrap(), ShouldResemble, red)
		})
	})
}

func TestEdgeCaseOverlappingVoxels(t *testing.T) {
	Convey("Given a whole-tree fill followed by a coarse overwrite of one octant", t, func() {
		tree, _ := octree.New[octree.RGB](8)
		red := octree.NewRGB(255, 0, 0)
		blue := octree.NewRGB(0, 0, 255)

		_ = tree.InsertAtLOD(spatial.Vec3U32{}, 8, red)
		_ = tree.InsertAtLOD(spatial.Vec3U32{X: 4, Y: 4, Z: 4}, 4, blue)

		Convey("The later, overlapping insert wins within its region", func() {
			So(tree.Get(spatial.Vec3U32{X: 4, Y: 4, Z: 4}).Unwrap(), ShouldResemble, blue)
			So(tree.Get(spatial.Vec3U32{X: 7, Y: 7, Z: 7}).Unwrap(), ShouldResemble, blue)
		})

		Convey("The untouched part of the first insert survives", func() {
			So(tree.Get(spatial.Vec3U32{X: 0, Y: 0, Z: 0}).Unwrap(), ShouldResemble, red)
		})
	})
}

func TestGetByRayHitAndMiss(t *testing.T) {
	defer debug.WithTesting(t)()

	Convey("Given a single voxel placed at the tree's near corner", t, func() {
		tree, _ := octree.New[octree.RGB](8)
		white := octree.NewRGB(255, 255, 255)
		_ = tree.Insert(spatial.Vec3U32{X: 0, Y: 0, Z: 0}, white)

		Convey("A ray aimed straight at it hits", func() {
			ray := spatial.Ray{
				Origin:    spatial.Vec3F32{X: -5, Y: 0.5, Z: 0.5},
				Direction: spatial.Vec3F32{X: 1},
			}
			hit := tree.GetByRay(ray)
			So(hit.IsSome(), ShouldBeTrue)

			v, point, normal := hit.Unwrap().Unpack()
			So(v, ShouldResemble, white)
			So(point, ShouldResemble, spatial.Vec3F32{X: 0, Y: 0.5, Z: 0.5})
			So(normal, ShouldResemble, spatial.Vec3F32{X: -1})
		})

		Convey("A ray aimed away from it misses", func() {
			ray := spatial.Ray{
				Origin:    spatial.Vec3F32{X: -5, Y: 6, Z: 6},
				Direction: spatial.Vec3F32{X: 1},
			}
			So(tree.GetByRay(ray).IsNone(), ShouldBeTrue)
		})
	})
}

func TestAllIterator(t *testing.T) {
	Convey("Given a tree with two voxels set", t, func() {
		tree, _ := octree.New[octree.RGB](8)
		red := octree.NewRGB(255, 0, 0)
		blue := octree.NewRGB(0, 0, 255)
		_ = tree.Insert(spatial.Vec3U32{X: 1, Y: 1, Z: 1}, red)
		_ = tree.Insert(spatial.Vec3U32{X: 6, Y: 6, Z: 6}, blue)

		Convey("All yields exactly those two positions", func() {
			seen := map[spatial.Vec3U32]octree.RGB{}
			for pos, v := range tree.All() {
				seen[pos] = v
			}
			So(len(seen), ShouldEqual, 2)
			So(seen[spatial.Vec3U32{X: 1, Y: 1, Z: 1}], ShouldResemble, red)
			So(seen[spatial.Vec3U32{X: 6, Y: 6, Z: 6}], ShouldResemble, blue)
		})
	})
}
