package model

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// defaultColor is used for primitives without a material.
var defaultColor = [3]float32{0.8, 0.8, 0.8}

// meshBuilder accumulates primitives into one indexed mesh.
type meshBuilder struct {
	mesh Mesh
}

func newMeshBuilder() *meshBuilder {
	return &meshBuilder{
		mesh: Mesh{
			Bounds: Bounds{
				Min: [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
				Max: [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
			},
		},
	}
}

// primitive is one decoded triangle list.
type primitive struct {
	positions [][3]float32
	normals   [][3]float32
	uvs       [][2]float32
	indices   []uint32
	color     [3]float32
	texture   int
}

// add appends one triangle-list primitive transformed by m. Missing normals
// are generated per face; missing indices mean sequential triangles.
func (b *meshBuilder) add(m mgl32.Mat4, p primitive) {
	positions, normals, indices := p.positions, p.normals, p.indices
	if len(positions) == 0 {
		return
	}
	uvs := p.uvs
	if len(uvs) != len(positions) {
		uvs = nil
	}
	if indices == nil {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	// Drop a trailing partial triangle.
	indices = indices[:len(indices)-len(indices)%3]

	normalMat := m.Mat3().Inv().Transpose()
	if len(normals) != len(positions) {
		normals = faceNormals(positions, indices)
	}

	base := uint32(len(b.mesh.Vertices))
	for i, pos := range positions {
		wp := mgl32.TransformCoordinate(mgl32.Vec3(pos), m)
		n := normalMat.Mul3x1(mgl32.Vec3(normals[i]))
		if n.Len() > 0 {
			n = n.Normalize()
		}
		v := Vertex{
			Position: wp,
			Normal:   n,
			Color:    p.color,
		}
		if uvs != nil {
			v.UV = uvs[i]
		}
		b.mesh.Vertices = append(b.mesh.Vertices, v)
		b.grow(wp)
	}

	first := uint32(len(b.mesh.Indices))

	// Negative determinant flips winding.
	flip := m.Mat3().Det() < 0
	for i := 0; i+2 < len(indices); i += 3 {
		a, c := indices[i], indices[i+2]
		if flip {
			a, c = c, a
		}
		if int(a) >= len(positions) || int(indices[i+1]) >= len(positions) || int(c) >= len(positions) {
			continue
		}
		b.mesh.Indices = append(b.mesh.Indices, base+a, base+indices[i+1], base+c)
	}

	count := uint32(len(b.mesh.Indices)) - first
	if count == 0 {
		return
	}
	texture := p.texture
	if uvs == nil {
		texture = NoTexture
	}
	// Consecutive primitives sharing a texture draw as one part.
	if n := len(b.mesh.Parts); n > 0 && b.mesh.Parts[n-1].Texture == texture {
		b.mesh.Parts[n-1].Count += count
		return
	}
	b.mesh.Parts = append(b.mesh.Parts, Part{First: first, Count: count, Texture: texture})
}

func (b *meshBuilder) grow(p [3]float32) {
	for k := 0; k < 3; k++ {
		if p[k] < b.mesh.Bounds.Min[k] {
			b.mesh.Bounds.Min[k] = p[k]
		}
		if p[k] > b.mesh.Bounds.Max[k] {
			b.mesh.Bounds.Max[k] = p[k]
		}
	}
}

func (b *meshBuilder) build() *Mesh {
	if len(b.mesh.Vertices) == 0 {
		b.mesh.Bounds = Bounds{}
	}
	m := b.mesh
	return &m
}

// faceNormals averages face normals onto the vertices that share them.
func faceNormals(positions [][3]float32, indices []uint32) [][3]float32 {
	acc := make([]mgl32.Vec3, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		ia, ib, ic := indices[i], indices[i+1], indices[i+2]
		if int(ia) >= len(positions) || int(ib) >= len(positions) || int(ic) >= len(positions) {
			continue
		}
		a, b, c := mgl32.Vec3(positions[ia]), mgl32.Vec3(positions[ib]), mgl32.Vec3(positions[ic])
		n := b.Sub(a).Cross(c.Sub(a))
		acc[ia] = acc[ia].Add(n)
		acc[ib] = acc[ib].Add(n)
		acc[ic] = acc[ic].Add(n)
	}

	out := make([][3]float32, len(positions))
	for i, n := range acc {
		if n.Len() < 1e-8 {
			out[i] = [3]float32{0, 1, 0}
			continue
		}
		out[i] = n.Normalize()
	}
	return out
}

// Center returns the centre of the bounds.
func (b Bounds) Center() mgl32.Vec3 {
	return mgl32.Vec3{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Size returns the extent of the bounds on each axis.
func (b Bounds) Size() mgl32.Vec3 {
	return mgl32.Vec3{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}
