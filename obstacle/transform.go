// Package obstacle models a placed doodad/WMO instance: its rigid
// transform into world space, its source mesh, and the ModelStore
// abstraction that resolves a model reference to geometry. Transform
// composition follows common/math.go's vector/matrix helpers, ported
// to github.com/go-gl/mathgl/mgl64 for the double-precision transform
// math a world-space obstacle placement needs.
package obstacle

import "github.com/go-gl/mathgl/mgl64"

// RigidTransform is T(position) * R(rotation): a pure rotation
// followed by a translation, with no scale. It is built either from a
// Z-axis angle (FromZRotation) or from a full quaternion
// (FromQuaternion); the ingest path accepts both forms for doodads.
type RigidTransform struct {
	matrix    mgl64.Mat4
	inverse   mgl64.Mat4
	hasInverse bool
}

// FromZRotation builds T(position) * Rz(angleRadians).
func FromZRotation(position mgl64.Vec3, angleRadians float64) RigidTransform {
	r := mgl64.HomogRotate3DZ(angleRadians)
	t := mgl64.Translate3D(position[0], position[1], position[2])
	return newTransform(t.Mul4(r))
}

// FromQuaternion builds T(position) * R(rotation).
func FromQuaternion(position mgl64.Vec3, rotation mgl64.Quat) RigidTransform {
	r := rotation.Normalize().Mat4()
	t := mgl64.Translate3D(position[0], position[1], position[2])
	return newTransform(t.Mul4(r))
}

func newTransform(m mgl64.Mat4) RigidTransform {
	if det := m.Det(); det > -1e-12 && det < 1e-12 {
		return RigidTransform{matrix: m, hasInverse: false}
	}
	return RigidTransform{matrix: m, inverse: m.Inv(), hasInverse: true}
}

// Apply maps a model-space point into world space.
func (t RigidTransform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	v := t.matrix.Mul4x1(mgl64.Vec4{p[0], p[1], p[2], 1})
	return mgl64.Vec3{v[0], v[1], v[2]}
}

// Inverse maps a world-space point back into model space. ok is false
// if the transform was not invertible (degenerate rotation input).
func (t RigidTransform) Inverse(p mgl64.Vec3) (mgl64.Vec3, bool) {
	if !t.hasInverse {
		return mgl64.Vec3{}, false
	}
	v := t.inverse.Mul4x1(mgl64.Vec4{p[0], p[1], p[2], 1})
	return mgl64.Vec3{v[0], v[1], v[2]}, true
}

// Matrix exposes the forward transform, e.g. for bounds computation.
func (t RigidTransform) Matrix() mgl64.Mat4 { return t.matrix }
