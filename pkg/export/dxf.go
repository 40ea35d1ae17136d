package export

import (
	"fmt"

	"github.com/yofu/dxf"

	"github.com/chazu/topocut/pkg/geo"
	"github.com/chazu/topocut/pkg/roads"
)

// roadLayer is the DXF layer road polylines are written to, so CAM
// software can select them in one pick.
const roadLayer = "ROADS"

// SaveRoadDXF writes the road set as 2D polylines in model millimeters,
// scaled from the geographic bounds to the target footprint with the
// origin at the model's southwest corner. The result imports into CAD as
// sketch geometry aligned with the carved terrain model.
func SaveRoadDXF(path string, rs roads.RoadSet, bounds geo.Bounds, widthMM, heightMM float64) error {
	if err := bounds.Validate(); err != nil {
		return err
	}
	if widthMM <= 0 || heightMM <= 0 {
		return fmt.Errorf("export: footprint must be positive, got %gx%g mm", widthMM, heightMM)
	}

	scaleX := widthMM / bounds.Width()
	scaleY := heightMM / bounds.Height()

	d := dxf.NewDrawing()
	if _, err := d.AddLayer(roadLayer, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("export: dxf layer: %w", err)
	}

	written := 0
	for _, pl := range rs.Lines {
		if len(pl.Line) < 2 {
			continue
		}
		vertices := make([][]float64, 0, len(pl.Line))
		for _, pt := range pl.Line {
			vertices = append(vertices, []float64{
				(pt[0] - bounds.West) * scaleX,
				(pt[1] - bounds.South) * scaleY,
			})
		}
		if _, err := d.LwPolyline(false, vertices...); err != nil {
			return fmt.Errorf("export: dxf polyline: %w", err)
		}
		written++
	}
	if written == 0 {
		return fmt.Errorf("export: no road polylines to write to %s", path)
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("export: save dxf %s: %w", path, err)
	}
	return nil
}
