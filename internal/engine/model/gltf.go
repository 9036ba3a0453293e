package model

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ErrNoRoot is returned when a file has no scene node to use as the model root.
var ErrNoRoot = errors.New("model: file has no root node")

// LoadGLTF decodes a .gltf or .glb file. The model root is the first node of
// the default scene; its subtree is flattened into one mesh in the root's
// local space.
func LoadGLTF(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	m, err := FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	m.Path = path
	m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return m, nil
}

// DecodeGLB decodes a self-contained binary glTF already read into memory.
// name is recorded as the model path.
func DecodeGLB(name string, data []byte) (*Model, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	m, err := FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	m.Path = name
	m.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return m, nil
}

// FromDocument builds a Model from an already decoded glTF document.
func FromDocument(doc *gltf.Document) (*Model, error) {
	rootIdx, err := rootNode(doc)
	if err != nil {
		return nil, err
	}
	root := doc.Nodes[rootIdx]

	b := newMeshBuilder()
	if err := walk(doc, rootIdx, mgl32.Ident4(), b, 0); err != nil {
		return nil, err
	}

	return &Model{
		RootName: root.Name,
		Root:     nodeTransform(root),
		Mesh:     b.build(),
		Images:   readImages(doc),
	}, nil
}

func rootNode(doc *gltf.Document) (int, error) {
	if len(doc.Scenes) == 0 {
		if len(doc.Nodes) == 0 {
			return 0, ErrNoRoot
		}
		return 0, nil
	}
	sceneIdx := 0
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		sceneIdx = *doc.Scene
	}
	scene := doc.Scenes[sceneIdx]
	if len(scene.Nodes) == 0 || scene.Nodes[0] >= len(doc.Nodes) {
		return 0, ErrNoRoot
	}
	return scene.Nodes[0], nil
}

// maxDepth bounds recursion on malformed (cyclic) node graphs.
const maxDepth = 64

// walk flattens a node subtree. The node at depth 0 contributes geometry
// but not its own transform.
func walk(doc *gltf.Document, idx int, parent mgl32.Mat4, b *meshBuilder, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("node hierarchy deeper than %d", maxDepth)
	}
	node := doc.Nodes[idx]

	world := parent
	if depth > 0 {
		world = parent.Mul4(nodeMatrix(node))
	}

	if node.Mesh != nil && *node.Mesh < len(doc.Meshes) {
		if err := addMesh(doc, doc.Meshes[*node.Mesh], world, b); err != nil {
			return fmt.Errorf("mesh %d: %w", *node.Mesh, err)
		}
	}

	for _, child := range node.Children {
		if child >= len(doc.Nodes) {
			continue
		}
		if err := walk(doc, child, world, b, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range (%d accessors)", idx, len(doc.Accessors))
	}
	return doc.Accessors[idx], nil
}

func addMesh(doc *gltf.Document, mesh *gltf.Mesh, m mgl32.Mat4, b *meshBuilder) error {
	for _, prim := range mesh.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		acc, err := accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("positions: %w", err)
		}
		p := primitive{color: primitiveColor(doc, prim), texture: primitiveTexture(doc, prim)}
		if p.positions, err = modeler.ReadPosition(doc, acc, nil); err != nil {
			return fmt.Errorf("positions: %w", err)
		}

		if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
			if acc, err = accessor(doc, idx); err != nil {
				return fmt.Errorf("normals: %w", err)
			}
			if p.normals, err = modeler.ReadNormal(doc, acc, nil); err != nil {
				return fmt.Errorf("normals: %w", err)
			}
		}

		if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok && p.texture != NoTexture {
			if acc, err = accessor(doc, idx); err != nil {
				return fmt.Errorf("texcoords: %w", err)
			}
			if p.uvs, err = modeler.ReadTextureCoord(doc, acc, nil); err != nil {
				return fmt.Errorf("texcoords: %w", err)
			}
		}

		if prim.Indices != nil {
			if acc, err = accessor(doc, *prim.Indices); err != nil {
				return fmt.Errorf("indices: %w", err)
			}
			if p.indices, err = modeler.ReadIndices(doc, acc, nil); err != nil {
				return fmt.Errorf("indices: %w", err)
			}
		}

		b.add(m, p)
	}
	return nil
}

func primitiveColor(doc *gltf.Document, prim *gltf.Primitive) [3]float32 {
	if prim.Material == nil || *prim.Material >= len(doc.Materials) {
		return defaultColor
	}
	pbr := doc.Materials[*prim.Material].PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorFactor == nil {
		if pbr != nil && pbr.BaseColorTexture != nil {
			return [3]float32{1, 1, 1}
		}
		return defaultColor
	}
	c := *pbr.BaseColorFactor
	return [3]float32{float32(c[0]), float32(c[1]), float32(c[2])}
}

// primitiveTexture returns the image index of the primitive's base colour texture.
func primitiveTexture(doc *gltf.Document, prim *gltf.Primitive) int {
	if prim.Material == nil || *prim.Material >= len(doc.Materials) {
		return NoTexture
	}
	pbr := doc.Materials[*prim.Material].PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorTexture == nil {
		return NoTexture
	}
	ti := pbr.BaseColorTexture.Index
	if ti < 0 || ti >= len(doc.Textures) {
		return NoTexture
	}
	src := doc.Textures[ti].Source
	if src == nil || *src < 0 || *src >= len(doc.Images) {
		return NoTexture
	}
	return *src
}

// readImages collects the document's images without decoding them.
// Images that cannot be located are kept as empty entries so that
// texture indices stay aligned.
func readImages(doc *gltf.Document) []*Image {
	images := make([]*Image, len(doc.Images))
	for i, img := range doc.Images {
		out := &Image{Name: img.Name, MimeType: img.MimeType}
		images[i] = out

		switch {
		case img.BufferView != nil:
			out.Data = bufferViewBytes(doc, *img.BufferView)
		case img.IsEmbeddedResource():
			if data, err := img.MarshalData(); err == nil {
				out.Data = data
			}
		default:
			if uri, err := url.PathUnescape(img.URI); err == nil {
				out.URI = uri
			} else {
				out.URI = img.URI
			}
		}
		if out.Name == "" {
			out.Name = out.URI
		}
	}
	return images
}

func bufferViewBytes(doc *gltf.Document, idx int) []byte {
	if idx < 0 || idx >= len(doc.BufferViews) {
		return nil
	}
	bv := doc.BufferViews[idx]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil
	}
	data := doc.Buffers[bv.Buffer].Data
	end := bv.ByteOffset + bv.ByteLength
	if bv.ByteOffset < 0 || end > len(data) {
		return nil
	}
	return data[bv.ByteOffset:end]
}

func nodeTransform(n *gltf.Node) Transform {
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	return Transform{
		Translation: mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])},
		Rotation:    mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}},
		Scale:       mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])},
	}
}

func nodeMatrix(n *gltf.Node) mgl32.Mat4 {
	mat := n.MatrixOrDefault()
	if mat != gltf.DefaultMatrix {
		var out mgl32.Mat4
		for i := range mat {
			out[i] = float32(mat[i])
		}
		return out
	}
	return nodeTransform(n).Matrix()
}
