package subdiv

// gridUVTessellator fills the dwidth x dheight sub-grid starting at (x0, y0)
// of a swidth x sheight grid over [0,1]^2, row-major.
func gridUVTessellator(swidth, sheight, x0, y0, dwidth, dheight int, u, v []float32) {
	su := 1 / float32(swidth-1)
	sv := 1 / float32(sheight-1)
	for y := 0; y < dheight; y++ {
		fv := float32(y0+y) * sv
		if y0+y == sheight-1 {
			fv = 1
		}
		for x := 0; x < dwidth; x++ {
			fu := float32(x0+x) * su
			if x0+x == swidth-1 {
				fu = 1
			}
			u[y*dwidth+x] = fu
			v[y*dwidth+x] = fv
		}
	}
}

func stitch(x, fine, coarse int) int {
	return (2*x + 1) * coarse / (2 * fine)
}

// stitchGridEdges snaps the samples x0..x1 of an edge with highRate samples
// onto the lowRate samples of the neighbouring coarser edge.
func stitchGridEdges(lowRate, highRate, x0, x1 int, uv []float32, offset, step int) {
	inv := 1 / float32(lowRate-1)
	for x := x0; x <= x1; x++ {
		uv[offset+(x-x0)*step] = float32(stitch(x, highRate-1, lowRate-1)) * inv
	}
	if x1 == highRate-1 {
		uv[offset+(x1-x0)*step] = 1
	}
}

// stitchUVGrid snaps the boundary rows and columns of the sub-grid whose
// edge level is coarser than the grid resolution. Edge 0 is v=0, edge 1
// u=1, edge 2 v=1 and edge 3 u=0.
func stitchUVGrid(level [4]float32, swidth, sheight, x0, y0, dwidth, dheight int, u, v []float32) {
	x1 := x0 + dwidth - 1
	y1 := y0 + dheight - 1
	if y0 == 0 {
		if low := int(level[0]) + 1; low < swidth {
			stitchGridEdges(low, swidth, x0, x1, u, 0, 1)
		}
	}
	if y1 == sheight-1 {
		if low := int(level[2]) + 1; low < swidth {
			stitchGridEdges(low, swidth, x0, x1, u, (dheight-1)*dwidth, 1)
		}
	}
	if x0 == 0 {
		if low := int(level[3]) + 1; low < sheight {
			stitchGridEdges(low, sheight, y0, y1, v, 0, dwidth)
		}
	}
	if x1 == swidth-1 {
		if low := int(level[1]) + 1; low < sheight {
			stitchGridEdges(low, sheight, y0, y1, v, dwidth-1, dwidth)
		}
	}
}
