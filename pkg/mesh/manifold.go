package mesh

// ComputeNonManifoldEdges classifies faces and vertices of F over nVerts
// vertices. A face is non-manifold when one of its edges is shared by more
// than two faces; a vertex is non-manifold when it lies on such an edge or
// when its incident faces do not form a single edge-connected fan. manifold is
// true when nothing was flagged. F is not modified.
func ComputeNonManifoldEdges(F *MatrixI, nVerts int) (faceNM, vertNM []bool, manifold bool) {
	faceNM = make([]bool, F.Rows)
	vertNM = make([]bool, nVerts)
	manifold = true

	edges := edgeFaces(F)
	for e, faces := range edges {
		if len(faces) <= 2 {
			continue
		}
		manifold = false
		for _, f := range faces {
			faceNM[f] = true
		}
		vertNM[e[0]] = true
		vertNM[e[1]] = true
	}

	incident := make([][]int, nVerts)
	for f := 0; f < F.Rows; f++ {
		for _, v := range F.Row(f) {
			incident[v] = append(incident[v], f)
		}
	}
	for v, faces := range incident {
		if len(faces) < 2 || vertNM[v] {
			continue
		}
		if !isSingleFan(F, v, faces, edges) {
			vertNM[v] = true
			manifold = false
		}
	}
	return faceNM, vertNM, manifold
}

// isSingleFan reports whether the faces around v are connected through edges
// that contain v.
func isSingleFan(F *MatrixI, v int, faces []int, edges map[edgeKey][]int) bool {
	local := make(map[int]int, len(faces))
	for i, f := range faces {
		local[f] = i
	}
	ds := newDisjointSet(len(faces))
	for i, f := range faces {
		for _, w := range F.Row(f) {
			if w == v {
				continue
			}
			for _, g := range edges[makeEdgeKey(v, w)] {
				if j, ok := local[g]; ok {
					ds.union(i, j)
				}
			}
		}
	}
	root := ds.find(0)
	for i := 1; i < len(faces); i++ {
		if ds.find(i) != root {
			return false
		}
	}
	return true
}

// ComputeNonManifold runs ComputeNonManifoldEdges on the mesh faces.
func (m *Mesh) ComputeNonManifold() (faceNM, vertNM []bool, manifold bool) {
	return ComputeNonManifoldEdges(&m.F, m.V.Rows)
}
