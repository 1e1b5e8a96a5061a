package math

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{2, 3, 6}
	if got := v.Length(); got != 7 {
		t.Errorf("Vec3.Length() = %v, want 7", got)
	}
	if got := v.Distance(Vec3{2, 3, 0}); got != 6 {
		t.Errorf("Vec3.Distance() = %v, want 6", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 4, 0}.Normalize()
	if l := n.Length(); l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("zero Vec3.Normalize() = %v, want zero", got)
	}
}

func TestVec3FromR3(t *testing.T) {
	got := Vec3FromR3(r3.Vec{X: 1.5, Y: -2, Z: 0.25})
	if got != (Vec3{1.5, -2, 0.25}) {
		t.Errorf("Vec3FromR3() = %v", got)
	}
	if a := got.Array(); a != [3]float32{1.5, -2, 0.25} {
		t.Errorf("Array() = %v", a)
	}
}
