package obstacle

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func almostEqualVec3(a, b mgl64.Vec3, eps float64) bool {
	return math.Abs(a[0]-b[0]) < eps && math.Abs(a[1]-b[1]) < eps && math.Abs(a[2]-b[2]) < eps
}

func TestFromZRotation_AppliesRotationThenTranslation(t *testing.T) {
	tr := FromZRotation(mgl64.Vec3{10, 0, 0}, math.Pi/2)
	got := tr.Apply(mgl64.Vec3{1, 0, 0})
	want := mgl64.Vec3{10, 1, 0}
	if !almostEqualVec3(got, want, 1e-9) {
		t.Fatalf("Apply = %v, want %v", got, want)
	}
}

func TestFromZRotation_InverseRoundTrips(t *testing.T) {
	tr := FromZRotation(mgl64.Vec3{4, -2, 1}, 0.7)
	p := mgl64.Vec3{3, -5, 2}
	w := tr.Apply(p)
	back, ok := tr.Inverse(w)
	if !ok {
		t.Fatal("expected an invertible transform")
	}
	if !almostEqualVec3(back, p, 1e-9) {
		t.Fatalf("round trip = %v, want %v", back, p)
	}
}

func TestFromQuaternion_IdentityIsPureTranslation(t *testing.T) {
	tr := FromQuaternion(mgl64.Vec3{1, 2, 3}, mgl64.QuatIdent())
	got := tr.Apply(mgl64.Vec3{1, 0, 0})
	want := mgl64.Vec3{2, 2, 3}
	if !almostEqualVec3(got, want, 1e-9) {
		t.Fatalf("Apply = %v, want %v", got, want)
	}
}

func TestFromQuaternion_NormalizesInput(t *testing.T) {
	// A non-unit quaternion scaled by 2 should produce the same rotation
	// as its normalized form once composed with the identity translation.
	q := mgl64.Quat{W: 2, V: mgl64.Vec3{0, 0, 0}}
	tr := FromQuaternion(mgl64.Vec3{0, 0, 0}, q)
	got := tr.Apply(mgl64.Vec3{1, 0, 0})
	want := mgl64.Vec3{1, 0, 0}
	if !almostEqualVec3(got, want, 1e-9) {
		t.Fatalf("Apply = %v, want %v", got, want)
	}
}

func TestNewTransform_DegenerateRotationHasNoInverse(t *testing.T) {
	// A zero-scale matrix (all rows collapsed) has a zero determinant.
	degenerate := mgl64.Mat4{}
	tr := newTransform(degenerate)
	if _, ok := tr.Inverse(mgl64.Vec3{1, 2, 3}); ok {
		t.Fatal("expected a degenerate transform to report no inverse")
	}
}
