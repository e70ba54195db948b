// A finite heterogeneous sequence, (T0, T1, ..).
package tuple

import "fmt"

type Tuple2[T0, T1 any] struct {
	V0 T0
	V1 T1
}

func New2[T0, T1 any](v0 T0, v1 T1) Tuple2[T0, T1] {
	return Tuple2[T0, T1]{v0, v1}
}

func (t Tuple2[T0, T1]) Unpack() (T0, T1) { return t.V0, t.V1 }
func (t Tuple2[T0, T1]) String() string   { return fmt.Sprintf("(%v, %v)", t.V0, t.V1) }

type Tuple3[T0, T1, T2 any] struct {
	V0 T0
	V1 T1
	V2 T2
}

func New3[T0, T1, T2 any](v0 T0, v1 T1, v2 T2) Tuple3[T0, T1, T2] {
	return Tuple3[T0, T1, T2]{v0, v1, v2}
}

func (t Tuple3[T0, T1, T2]) Unpack() (T0, T1, T2)       { return t.V0, t.V1, t.V2 }
func (t Tuple3[T0, T1, T2]) Head() (T0, Tuple2[T1, T2]) { return t.V0, Tuple2[T1, T2]{t.V1, t.V2} }
func (t Tuple3[T0, T1, T2]) Tail() (Tuple2[T0, T1], T2) { return Tuple2[T0, T1]{t.V0, t.V1}, t.V2 }
func (t Tuple3[T0, T1, T2]) String() string             { return fmt.Sprintf("(%v, %v, %v)", t.V0, t.V1, t.V2) }
