// Package export serializes pipeline output for fabrication: the solid
// mesh as binary STL and the road polylines as a DXF sketch scaled to the
// model footprint for CAM toolpath tracing.
package export

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/topocut/pkg/mesher"
)

// SaveSTL writes the mesh as a binary STL file. Triangles are emitted in
// face order, so identical meshes produce identical files.
func SaveSTL(path string, m *mesher.Mesh) error {
	if m == nil || m.IsEmpty() {
		return fmt.Errorf("export: refusing to write empty mesh to %s", path)
	}

	triangles := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for _, f := range m.Faces {
		var tri sdf.Triangle3
		for i, vi := range f {
			v := m.Vertices[vi]
			tri[i] = v3.Vec{X: v.X, Y: v.Y, Z: v.Z}
		}
		triangles = append(triangles, &tri)
	}

	if err := render.SaveSTL(path, triangles); err != nil {
		return fmt.Errorf("export: save stl %s: %w", path, err)
	}
	return nil
}
