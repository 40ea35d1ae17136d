// Package mesher turns a 2D elevation grid into a closed, watertight
// triangulated solid: a relief top surface, a flat bottom, and four
// vertical side walls, sized to a physical model footprint in
// millimeters. The output is ready for STL export and CNC toolpathing.
package mesher

import (
	"errors"
	"math"
)

var (
	// ErrGridTooSmall is returned for grids that cannot form one quad.
	ErrGridTooSmall = errors.New("mesher: grid needs at least 2 rows and 2 columns")
	// ErrNonFinite is returned when a sample is NaN or infinite. Voids
	// must be repaired by conditioning before meshing.
	ErrNonFinite = errors.New("mesher: grid contains non-finite samples")
	// ErrEmptyMesh is returned when assembly produces no geometry.
	ErrEmptyMesh = errors.New("mesher: empty vertex or face buffer")
)

// Vec3 is a point or direction in model space, in millimeters.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns the unit vector, or the zero vector for zero input.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return v.Scale(1 / n)
}

// Mesh is an indexed triangle mesh representing one closed solid.
// Faces index into Vertices; windings are counterclockwise seen from
// outside the solid. Normals are populated by the repair pass.
type Mesh struct {
	Vertices []Vec3
	Faces    [][3]int

	// FaceNormals[i] is the unit normal of Faces[i].
	FaceNormals []Vec3
	// VertexNormals[i] is the area-averaged unit normal at Vertices[i].
	VertexNormals []Vec3
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Faces) }

// IsEmpty reports whether the mesh has no geometry.
func (m *Mesh) IsEmpty() bool { return len(m.Vertices) == 0 || len(m.Faces) == 0 }

// faceNormal returns the (unnormalized) normal of face f; its length is
// twice the triangle area.
func (m *Mesh) faceNormal(f [3]int) Vec3 {
	a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
	return b.Sub(a).Cross(c.Sub(a))
}

// SignedVolume computes the enclosed volume via the divergence theorem.
// Positive means the windings face outward.
func (m *Mesh) SignedVolume() float64 {
	vol := 0.0
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		vol += a.Dot(b.Cross(c))
	}
	return vol / 6
}

// edgeKey is an undirected edge between two vertex indices.
type edgeKey struct {
	lo, hi int
}

func makeEdgeKey(a, b int) edgeKey {
	if a < b {
		return edgeKey{a, b}
	}
	return edgeKey{b, a}
}

// IsClosed reports whether every edge is shared by exactly two faces,
// i.e. the mesh is a watertight manifold surface.
func (m *Mesh) IsClosed() bool {
	if m.IsEmpty() {
		return false
	}
	counts := make(map[edgeKey]int, len(m.Faces)*3/2)
	for _, f := range m.Faces {
		counts[makeEdgeKey(f[0], f[1])]++
		counts[makeEdgeKey(f[1], f[2])]++
		counts[makeEdgeKey(f[2], f[0])]++
	}
	for _, n := range counts {
		if n != 2 {
			return false
		}
	}
	return true
}

// BoundingBox returns the axis-aligned bounding box of the mesh.
func (m *Mesh) BoundingBox() (min, max Vec3) {
	if len(m.Vertices) == 0 {
		return Vec3{}, Vec3{}
	}
	min = m.Vertices[0]
	max = m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		min.X = math.Min(min.X, v.X)
		min.Y = math.Min(min.Y, v.Y)
		min.Z = math.Min(min.Z, v.Z)
		max.X = math.Max(max.X, v.X)
		max.Y = math.Max(max.Y, v.Y)
		max.Z = math.Max(max.Z, v.Z)
	}
	return min, max
}
