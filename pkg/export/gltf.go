package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/egm-tools/pkg/egm"
)

// ErrNoMeshes is returned when there is nothing to export.
var ErrNoMeshes = errors.New("no meshes to export")

// corner identifies one unwelded glTF vertex.
type corner struct {
	vertex int
	uv     mgl32.Vec2
	normal mgl32.Vec3
}

// primitiveKey groups faces sharing a material and a group pair.
type primitiveKey struct {
	material   int
	transform  int
	luminosity int
}

type primitiveData struct {
	key       primitiveKey
	corners   map[corner]uint32
	positions [][3]float32
	normals   [][3]float32
	uvs       [][2]float32
	indices   []uint32
}

// GLTF builds a document with one material per palette entry and one node
// per mesh. N-gons are triangulated as fans. Every node carries its LOD and
// whether it starts hidden in its extras; group indices go into the extras
// of the primitives using them.
func GLTF(meshes []*egm.Mesh, name string) (*gltf.Document, error) {
	if len(meshes) == 0 {
		return nil, ErrNoMeshes
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "egmtool"
	doc.Scenes[0].Name = name

	for i, c := range meshes[0].Palette {
		color := new([4]float32)
		*color = [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}
		mat := &gltf.Material{
			Name:        MaterialName(i),
			DoubleSided: true,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: color,
				MetallicFactor:  gltf.Float(0),
				RoughnessFactor: gltf.Float(1),
			},
		}
		if c.Transparent() {
			mat.AlphaMode = gltf.AlphaBlend
		}
		doc.Materials = append(doc.Materials, mat)
	}

	for _, mesh := range meshes {
		node := &gltf.Node{
			Name:  mesh.Name,
			Scale: mgl32.Vec3{float32(mesh.Scale), float32(mesh.Scale), float32(mesh.Scale)},
			Extras: map[string]any{
				"lod":    mesh.LOD,
				"hidden": mesh.Hidden,
			},
		}

		if len(mesh.Faces) > 0 {
			gm, err := buildMesh(doc, mesh)
			if err != nil {
				return nil, err
			}
			doc.Meshes = append(doc.Meshes, gm)
			node.Mesh = gltf.Index(uint32(len(doc.Meshes) - 1))
		}

		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
		doc.Nodes = append(doc.Nodes, node)
	}
	return doc, nil
}

func buildMesh(doc *gltf.Document, mesh *egm.Mesh) (*gltf.Mesh, error) {
	var prims []*primitiveData
	byKey := make(map[primitiveKey]*primitiveData)

	for fi, f := range mesh.Faces {
		if f.Material < 0 || f.Material >= len(doc.Materials) {
			return nil, fmt.Errorf("mesh %s face %d: material %d has no palette entry", mesh.Name, fi, f.Material)
		}
		key := primitiveKey{material: f.Material, transform: f.Transform, luminosity: f.Luminosity}
		pd, ok := byKey[key]
		if !ok {
			pd = &primitiveData{key: key, corners: make(map[corner]uint32)}
			byKey[key] = pd
			prims = append(prims, pd)
		}

		idx := make([]uint32, len(f.Vertices))
		for i, v := range f.Vertices {
			idx[i] = pd.add(mesh, f, i, v)
		}
		for i := 1; i+1 < len(idx); i++ {
			pd.indices = append(pd.indices, idx[0], idx[i], idx[i+1])
		}
	}

	gm := &gltf.Mesh{Name: mesh.Name}
	for _, pd := range prims {
		attributes := make(map[string]uint32)
		attributes[gltf.POSITION] = modeler.WritePosition(doc, pd.positions)
		attributes[gltf.NORMAL] = modeler.WriteNormal(doc, pd.normals)
		attributes[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, pd.uvs)
		indices := modeler.WriteIndices(doc, pd.indices)

		prim := &gltf.Primitive{
			Indices:    gltf.Index(indices),
			Attributes: attributes,
			Material:   gltf.Index(uint32(pd.key.material)),
		}
		if pd.key.transform != 0 || pd.key.luminosity != 0 {
			prim.Extras = map[string]any{
				egm.GroupTransform:  pd.key.transform,
				egm.GroupLuminosity: pd.key.luminosity,
			}
		}
		gm.Primitives = append(gm.Primitives, prim)
	}
	return gm, nil
}

// add returns the index of the glTF vertex for corner i of f, creating it
// on first use.
func (pd *primitiveData) add(mesh *egm.Mesh, f egm.Face, i, v int) uint32 {
	p := mesh.Positions[v]
	// glTF puts the texture origin at the top left.
	uv := f.UV[i].FlipV()
	n := f.Normals[i]

	normal := mgl32.Vec3{float32(n.X), float32(n.Y), float32(n.Z)}
	if normal.Len() > 0.5 {
		normal = normal.Normalize()
	}
	c := corner{vertex: v, uv: mgl32.Vec2{float32(uv.X), float32(uv.Y)}, normal: normal}
	if idx, ok := pd.corners[c]; ok {
		return idx
	}

	idx := uint32(len(pd.positions))
	pd.corners[c] = idx
	pd.positions = append(pd.positions, p.Float32())
	pd.normals = append(pd.normals, [3]float32(c.normal))
	pd.uvs = append(pd.uvs, [2]float32(c.uv))
	return idx
}

// WriteGLTF encodes doc to w, as a binary .glb when binary is set and as a
// .gltf with embedded buffers otherwise.
func WriteGLTF(w io.Writer, doc *gltf.Document, binary bool) error {
	if !binary {
		for _, b := range doc.Buffers {
			if len(b.Data) > 0 && !b.IsEmbeddedResource() {
				b.EmbeddedResource()
			}
		}
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = binary
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding glTF: %w", err)
	}
	return nil
}
