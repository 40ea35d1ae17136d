package mesher

// Repair runs the mesh consistency pass, in place:
//
//  1. coincident vertices are merged and faces reindexed
//  2. degenerate (zero-area or repeated-index) triangles are dropped
//  3. the global orientation is flipped if the signed volume is negative
//  4. per-face and per-vertex normals are recomputed
//
// It returns ErrEmptyMesh if nothing usable remains.
func (m *Mesh) Repair() error {
	if m.IsEmpty() {
		return ErrEmptyMesh
	}
	m.dedupVertices()
	m.dropDegenerate()
	if len(m.Faces) == 0 {
		return ErrEmptyMesh
	}
	if m.SignedVolume() < 0 {
		m.flip()
	}
	m.computeNormals()
	return nil
}

// dedupVertices merges exactly coincident vertices, keeping first-seen
// order so vertex indices stay deterministic.
func (m *Mesh) dedupVertices() {
	remap := make([]int, len(m.Vertices))
	seen := make(map[Vec3]int, len(m.Vertices))
	kept := m.Vertices[:0]

	for i, v := range m.Vertices {
		if j, ok := seen[v]; ok {
			remap[i] = j
			continue
		}
		j := len(kept)
		kept = append(kept, v)
		seen[v] = j
		remap[i] = j
	}
	m.Vertices = kept

	for i, f := range m.Faces {
		m.Faces[i] = [3]int{remap[f[0]], remap[f[1]], remap[f[2]]}
	}
}

// dropDegenerate removes zero-area triangles and triangles that collapsed
// onto fewer than three distinct vertices.
func (m *Mesh) dropDegenerate() {
	kept := m.Faces[:0]
	for _, f := range m.Faces {
		if f[0] == f[1] || f[1] == f[2] || f[2] == f[0] {
			continue
		}
		if m.faceNormal(f).Norm() == 0 {
			continue
		}
		kept = append(kept, f)
	}
	m.Faces = kept
}

// flip reverses the winding of every face.
func (m *Mesh) flip() {
	for i, f := range m.Faces {
		m.Faces[i] = [3]int{f[0], f[2], f[1]}
	}
}

// computeNormals fills FaceNormals and VertexNormals. Vertex normals are
// the area-weighted average of adjacent face normals, which is what the
// unnormalized cross product sums to.
func (m *Mesh) computeNormals() {
	m.FaceNormals = make([]Vec3, len(m.Faces))
	m.VertexNormals = make([]Vec3, len(m.Vertices))

	for i, f := range m.Faces {
		n := m.faceNormal(f)
		m.FaceNormals[i] = n.Normalize()
		for _, vi := range f {
			m.VertexNormals[vi] = m.VertexNormals[vi].Add(n)
		}
	}
	for i, n := range m.VertexNormals {
		m.VertexNormals[i] = n.Normalize()
	}
}
