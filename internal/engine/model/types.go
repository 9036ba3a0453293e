// Package model decodes glTF/GLB files into flat, GPU-ready meshes.
package model

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex represents a mesh vertex with position, normal, base colour and
// base colour texture coordinate.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Color    [3]float32
	UV       [2]float32
}

// NoTexture marks a part drawn with vertex colour only.
const NoTexture = -1

// Part is a run of indices drawn with one base colour texture.
type Part struct {
	First   uint32
	Count   uint32
	Texture int // index into Model.Images, or NoTexture
}

// Mesh holds the complete model mesh data ready for GPU upload.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Parts    []Part
	Bounds   Bounds
}

// Image is a texture referenced by a model. Embedded images carry their
// bytes; external ones carry a URI relative to the model file. Pixels is
// filled in once the image is decoded and stays nil if decoding failed.
type Image struct {
	Name     string
	URI      string
	MimeType string
	Data     []byte
	Pixels   *image.RGBA
}

// External reports whether the image lives in its own file.
func (i *Image) External() bool {
	return len(i.Data) == 0 && i.URI != ""
}

// Bounds holds the axis-aligned bounding box of the mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Transform is a translation/rotation/scale triple.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// IdentityTransform returns a transform that leaves points unchanged.
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Matrix returns T * R * S.
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z()).
		Mul4(t.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// Model is a decoded model: the root node's geometry, in the root's local
// space, plus the root's own transform.
type Model struct {
	Name     string
	Path     string
	RootName string
	Root     Transform
	Mesh     *Mesh
	Images   []*Image
}
