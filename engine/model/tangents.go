package model

import "github.com/go-gl/mathgl/mgl32"

// ComputeTangents fills in the tangent and bitangent of every vertex referenced by indices. Each triangle contributes
// its tangent basis to its three corners and every vertex ends with the average over the triangles that use it.
// Triangles with degenerate UVs and trailing indices that do not form a triangle are skipped.
//
// Parameters:
//   - vertices: the vertices, updated in place
//   - indices: the triangle list indices into vertices
func ComputeTangents(vertices []Vertex, indices []uint32) {
	tangents := make([]mgl32.Vec3, len(vertices))
	bitangents := make([]mgl32.Vec3, len(vertices))
	counts := make([]int, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		c := [3]uint32{indices[i], indices[i+1], indices[i+2]}
		if int(c[0]) >= len(vertices) || int(c[1]) >= len(vertices) || int(c[2]) >= len(vertices) {
			continue
		}
		v0, v1, v2 := vertices[c[0]], vertices[c[1]], vertices[c[2]]

		pos0 := mgl32.Vec3(v0.Position)
		deltaPos1 := mgl32.Vec3(v1.Position).Sub(pos0)
		deltaPos2 := mgl32.Vec3(v2.Position).Sub(pos0)

		uv0 := mgl32.Vec2(v0.TexCoords)
		deltaUV1 := mgl32.Vec2(v1.TexCoords).Sub(uv0)
		deltaUV2 := mgl32.Vec2(v2.TexCoords).Sub(uv0)

		det := deltaUV1.X()*deltaUV2.Y() - deltaUV1.Y()*deltaUV2.X()
		if det == 0 {
			continue
		}
		r := 1 / det
		tangent := deltaPos1.Mul(deltaUV2.Y()).Sub(deltaPos2.Mul(deltaUV1.Y())).Mul(r)
		bitangent := deltaPos2.Mul(deltaUV1.X()).Sub(deltaPos1.Mul(deltaUV2.X())).Mul(-r)

		for _, idx := range c {
			tangents[idx] = tangents[idx].Add(tangent)
			bitangents[idx] = bitangents[idx].Add(bitangent)
			counts[idx]++
		}
	}

	for i, n := range counts {
		if n == 0 {
			continue
		}
		denom := 1 / float32(n)
		vertices[i].Tangent = tangents[i].Mul(denom)
		vertices[i].Bitangent = bitangents[i].Mul(denom)
	}
}
