package obstacle

import "github.com/go-gl/mathgl/mgl64"

// TriangleMesh is a model's raw geometry in model space, keyed by
// ModelStore on a caller-defined model reference (display id, file
// path, whatever the ingest boundary uses).
type TriangleMesh struct {
	Verts   []mgl64.Vec3
	Indices []int // triples
}

// ModelStore resolves a model reference to its triangle mesh. Asset
// loading itself (disk, archive, network) is out of scope here; this
// interface is the seam ingest.Ingestor depends on.
type ModelStore interface {
	Get(modelRef string) (TriangleMesh, bool)
}

// Instance is one placed obstacle: its source model, the rigid
// transform from model space into world space, and the world-space
// geometry and bounds that transform produces (computed once at
// placement time so tile overlap tests don't re-transform per query).
type Instance struct {
	GUID      uint64
	ModelRef  string
	Transform RigidTransform

	WorldVerts   []mgl64.Vec3
	WorldIndices []int
	BMin, BMax   mgl64.Vec3
}

// NewInstance transforms mesh into world space under t and computes
// its AABB.
func NewInstance(guid uint64, modelRef string, t RigidTransform, mesh TriangleMesh) Instance {
	inst := Instance{GUID: guid, ModelRef: modelRef, Transform: t, WorldIndices: mesh.Indices}
	inst.WorldVerts = make([]mgl64.Vec3, len(mesh.Verts))

	for i, v := range mesh.Verts {
		w := t.Apply(v)
		inst.WorldVerts[i] = w
		if i == 0 {
			inst.BMin, inst.BMax = w, w
			continue
		}
		for k := 0; k < 3; k++ {
			if w[k] < inst.BMin[k] {
				inst.BMin[k] = w[k]
			}
			if w[k] > inst.BMax[k] {
				inst.BMax[k] = w[k]
			}
		}
	}

	return inst
}

// OverlapsAABB2D reports whether inst's world bounds intersect the
// given 2D (x, y) rectangle, i.e. whether its footprint touches it.
// World z is up and is ignored.
func (inst Instance) OverlapsAABB2D(minX, minY, maxX, maxY float64) bool {
	return inst.BMin[0] <= maxX && inst.BMax[0] >= minX &&
		inst.BMin[1] <= maxY && inst.BMax[1] >= minY
}
