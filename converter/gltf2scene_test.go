package converter

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"log"
	"math"
	"testing"

	"github.com/binzume/gltfscene/geom"
	"github.com/binzume/gltfscene/gltfutil"
	"github.com/binzume/gltfscene/scene"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func newTestConverter(options *GLTFToSceneOption) *gltfToScene {
	if options == nil {
		options = &GLTFToSceneOption{}
	}
	options.Logger = log.New(ioutil.Discard, "", 0)
	return NewGLTFToSceneConverter(options)
}

// newMeshDocument returns a document with one node referencing a mesh with one primitive.
func newMeshDocument(mode gltf.PrimitiveMode, indexCount int) *gltf.Document {
	doc := gltf.NewDocument()
	pos := make([][3]float32, indexCount)
	indices := make([]uint16, indexCount)
	for i := range pos {
		pos[i] = [3]float32{float32(i), 0, 0}
		indices[i] = uint16(i)
	}
	doc.Meshes = []*gltf.Mesh{{
		Name: "mesh",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]uint32{"POSITION": modeler.WritePosition(doc, pos)},
			Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
			Mode:       mode,
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "node", Mesh: gltf.Index(0)}}
	doc.Scenes = []*gltf.Scene{{Name: "test", Nodes: []uint32{0}}}
	doc.Scene = gltf.Index(0)
	return doc
}

func TestPrimitiveCounts(t *testing.T) {
	cases := []struct {
		mode  gltf.PrimitiveMode
		n     int
		typ   scene.PrimitiveType
		count int
	}{
		{gltf.PrimitiveTriangles, 9, scene.PrimitiveTriangles, 3},
		{gltf.PrimitiveTriangleStrip, 9, scene.PrimitiveTriangleStrip, 7},
		{gltf.PrimitiveLines, 8, scene.PrimitiveLine, 4},
		{gltf.PrimitiveLineLoop, 8, scene.PrimitiveLineStrip, 8},
		{gltf.PrimitivePoints, 5, scene.PrimitivePoint, 5},
	}
	for _, c := range cases {
		s, err := newTestConverter(nil).Convert(newMeshDocument(c.mode, c.n), "")
		if err != nil {
			t.Fatal(err)
		}
		node := s.FindByName("node")
		if node == nil || len(node.Children) != 1 || node.Children[0].Geometry == nil {
			t.Fatal("primitive node not found")
		}
		g := node.Children[0].Geometry
		e := g.Elements[0]
		if e.PrimitiveType != c.typ || e.PrimitiveCount != c.count {
			t.Errorf("mode %d x%d: %s x%d", c.mode, c.n, e.PrimitiveType, e.PrimitiveCount)
		}
		if len(e.Indices) != c.n || e.BytesPerIndex == 0 {
			t.Error("indices: ", len(e.Indices), e.BytesPerIndex)
		}
		if src := g.Source(scene.SemanticVertex); src == nil || src.VectorCount != c.n || !src.FloatComponents {
			t.Error("POSITION source: ", src)
		}
		if len(g.Materials) != 1 || g.Materials[0].Name != "default" {
			t.Error("default material: ", g.Materials)
		}
	}
}

func TestNonIndexedPrimitive(t *testing.T) {
	doc := newMeshDocument(gltf.PrimitiveTriangles, 6)
	doc.Meshes[0].Primitives[0].Indices = nil
	s, err := newTestConverter(nil).Convert(doc, "")
	if err != nil {
		t.Fatal(err)
	}
	e := s.FindByName("node").Children[0].Geometry.Elements[0]
	if e.Indices != nil || e.PrimitiveCount != 2 {
		t.Error("non indexed: ", e.PrimitiveCount)
	}
}

func TestNodeTransform(t *testing.T) {
	n := &gltf.Node{Matrix: gltf.DefaultMatrix, Translation: [3]float32{1, 0, 0}, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}}
	m := nodeTransform(n)
	p := m.ApplyTo(&geom.Vector3{})
	if *p != (geom.Vector3{X: 1, Y: 0, Z: 0}) {
		t.Error("translation: ", p)
	}
	if *m != *geom.NewTranslateMatrix4(1, 0, 0) {
		t.Error("pure translation expected: ", m)
	}

	// zero values mean the defaults
	if !nodeTransform(&gltf.Node{}).IsIdentity() {
		t.Error("default transform should be identity")
	}

	s := float32(math.Sqrt(0.5))
	n = &gltf.Node{Translation: [3]float32{0, 1, 0}, Rotation: [4]float32{0, 0, s, s}, Scale: [3]float32{2, 2, 2}}
	p = nodeTransform(n).ApplyTo(&geom.Vector3{X: 1})
	if math.Abs(float64(p.X)) > 1e-5 || math.Abs(float64(p.Y-3)) > 1e-5 {
		t.Error("TRS: ", p)
	}
}

func TestSceneReferences(t *testing.T) {
	doc := newMeshDocument(gltf.PrimitiveTriangles, 3)
	doc.Scenes[0].Nodes = []uint32{uint32(len(doc.Nodes))}
	if _, err := newTestConverter(nil).Convert(doc, ""); !errors.Is(err, gltfutil.ErrInvalidReference) {
		t.Error("node index == node count: ", err)
	}

	doc = newMeshDocument(gltf.PrimitiveTriangles, 3)
	doc.Scene = gltf.Index(3)
	if _, err := newTestConverter(nil).Convert(doc, ""); !errors.Is(err, gltfutil.ErrInvalidReference) {
		t.Error("scene index: ", err)
	}

	// no scenes: nodes that are nobody's child become roots
	doc = newMeshDocument(gltf.PrimitiveTriangles, 3)
	doc.Scene = nil
	doc.Scenes = nil
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "parent", Children: []uint32{0}})
	s, err := newTestConverter(nil).Convert(doc, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Root.Children) != 1 || s.Root.Children[0].Name != "parent" || len(s.Nodes) != 2 {
		t.Error("implicit roots: ", s.Root.Children)
	}
}

func TestNodeCycle(t *testing.T) {
	doc := &gltf.Document{
		Nodes:  []*gltf.Node{{Name: "a", Children: []uint32{1}}, {Name: "b", Children: []uint32{0}}},
		Scenes: []*gltf.Scene{{Nodes: []uint32{0}}},
	}
	if _, err := newTestConverter(nil).Convert(doc, ""); !errors.Is(err, ErrNodeCycle) {
		t.Error("cycle: ", err)
	}
}

func TestSharedNode(t *testing.T) {
	doc := newMorphDocument(3)
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "p1", Children: []uint32{0}}, &gltf.Node{Name: "p2", Children: []uint32{0}})
	doc.Scenes[0].Nodes = []uint32{1, 2}
	addChannel(doc, 0, gltf.TRSWeights, keys(2), make([]float32, 6), gltf.InterpolationLinear)
	if _, err := newTestConverter(nil).Convert(doc, ""); !errors.Is(err, gltfutil.ErrInvalidReference) {
		t.Error("node with two parents: ", err)
	}

	doc = newMeshDocument(gltf.PrimitiveTriangles, 3)
	doc.Scenes[0].Nodes = []uint32{0, 0}
	if _, err := newTestConverter(nil).Convert(doc, ""); !errors.Is(err, gltfutil.ErrInvalidReference) {
		t.Error("root listed twice: ", err)
	}
}

func TestNodeNames(t *testing.T) {
	doc := newMeshDocument(gltf.PrimitiveTriangles, 3)
	doc.Nodes[0].Name = ""
	doc.Meshes[0].Name = "e\u0301"
	s, err := newTestConverter(nil).Convert(doc, "")
	if err != nil {
		t.Fatal(err)
	}
	if s.Nodes[0].Name != "\u00e9" {
		t.Errorf("mesh name fallback with NFC: %q", s.Nodes[0].Name)
	}
}

func TestCamera(t *testing.T) {
	far := float32(100)
	doc := &gltf.Document{
		Cameras: []*gltf.Camera{
			{Name: "persp", Perspective: &gltf.Perspective{Yfov: math.Pi / 2, Znear: 0.1, Zfar: &far}},
			{Name: "ortho", Orthographic: &gltf.Orthographic{Xmag: 2, Ymag: 3, Znear: 0.5, Zfar: 10}},
		},
		Nodes: []*gltf.Node{{Name: "a", Camera: gltf.Index(0)}, {Name: "b", Camera: gltf.Index(1)}, {Name: "c", Camera: gltf.Index(9)}},
	}
	s, err := newTestConverter(nil).Convert(doc, "")
	if err != nil {
		t.Fatal(err)
	}
	a := s.FindByName("a").Camera
	if a.Projection != scene.PerspectiveProjection || math.Abs(float64(a.FieldOfView-90)) > 1e-4 || a.ZFar != 100 {
		t.Error("perspective: ", a)
	}
	b := s.FindByName("b").Camera
	if b.Projection != scene.OrthographicProjection || b.XMag != 2 || b.YMag != 3 || b.ZFar != 10 {
		t.Error("orthographic: ", b)
	}
	if s.FindByName("c").Camera != nil || len(s.Warnings) != 1 {
		t.Error("invalid camera should be absent with a warning")
	}
}

func TestRot180(t *testing.T) {
	doc := newMeshDocument(gltf.PrimitiveTriangles, 3)
	doc.Nodes[0].Translation = [3]float32{1, 0, 0}
	s, err := newTestConverter(&GLTFToSceneOption{Rot180: true}).Convert(doc, "")
	if err != nil {
		t.Fatal(err)
	}
	p := s.Root.Children[0].Transform.Position()
	if math.Abs(float64(p.X+1)) > 1e-5 {
		t.Error("rot180: ", p)
	}
}

func TestMissingBuffer(t *testing.T) {
	doc := newMeshDocument(gltf.PrimitiveTriangles, 3)
	doc.Buffers[0].Data = nil
	doc.Buffers[0].URI = "missing.bin"
	calls := 0
	loader := gltfutil.LoaderFunc(func(uri, dir string) ([]byte, error) {
		calls++
		return nil, errors.New("not found")
	})
	s, err := newTestConverter(&GLTFToSceneOption{Loader: loader}).Convert(doc, "")
	if err != nil {
		t.Fatal(err)
	}
	node := s.FindByName("node")
	if len(node.Children) != 1 || len(node.Children[0].Geometry.Sources) != 0 {
		t.Error("primitive should be empty")
	}
	if len(s.Warnings) != 1 || !errors.Is(s.Warnings[0], gltfutil.ErrResourceUnavailable) {
		t.Error("warnings: ", s.Warnings)
	}
	if calls != 1 {
		t.Error("loader calls: ", calls)
	}
}

func TestMaterial(t *testing.T) {
	doc := newMeshDocument(gltf.PrimitiveTriangles, 3)
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{0, 100, 200, 255})
	var w bytes.Buffer
	png.Encode(&w, img)
	imgIndex, err := modeler.WriteImage(doc, "mr.png", "image/png", &w)
	if err != nil {
		t.Fatal(err)
	}
	doc.Samplers = []*gltf.Sampler{{MagFilter: gltf.MagNearest, MinFilter: gltf.MinLinearMipMapNearest, WrapS: gltf.WrapClampToEdge, WrapT: gltf.WrapMirroredRepeat}}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(imgIndex), Sampler: gltf.Index(0)}}
	strength := float32(0.5)
	doc.Materials = []*gltf.Material{
		{
			Name:                 "pbr",
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{MetallicRoughnessTexture: &gltf.TextureInfo{Index: 0}},
			OcclusionTexture:     &gltf.OcclusionTexture{Index: gltf.Index(0), Strength: &strength},
			EmissiveFactor:       [3]float32{1, 0.5, 0},
		},
		{Name: "plain"},
	}
	doc.Meshes[0].Primitives[0].Material = gltf.Index(0)
	doc.Meshes[0].Primitives = append(doc.Meshes[0].Primitives, &gltf.Primitive{
		Attributes: doc.Meshes[0].Primitives[0].Attributes,
		Material:   gltf.Index(0),
	})

	s, err := newTestConverter(&GLTFToSceneOption{SplitMetallicRoughness: true}).Convert(doc, "")
	if err != nil {
		t.Fatal(err)
	}
	children := s.FindByName("node").Children
	mat := children[0].Geometry.Materials[0]
	if mat != children[1].Geometry.Materials[0] {
		t.Error("material should be cached")
	}
	if mat.LightingModel != scene.LightingPhysicallyBased || *mat.Diffuse.Color != [4]float32{1, 1, 1, 1} {
		t.Error("pbr defaults: ", mat.LightingModel, mat.Diffuse.Color)
	}
	if *mat.Emission.Color != [4]float32{1, 0.5, 0, 1} {
		t.Error("emission: ", mat.Emission.Color)
	}
	if !mat.AmbientOcclusion.HasTexture() || mat.AmbientOcclusion.Intensity != 0.5 || mat.AmbientOcclusion.Image == nil {
		t.Error("occlusion: ", mat.AmbientOcclusion)
	}
	r := mat.Roughness
	if r.WrapS != scene.WrapClamp || r.WrapT != scene.WrapMirror || r.MagFilter != scene.FilterNearest ||
		r.MinFilter != scene.FilterLinear || r.MipFilter != scene.FilterNearest {
		t.Error("sampler: ", r)
	}
	if g, ok := r.Image.(*image.Gray); !ok || g.GrayAt(0, 0).Y != 100 {
		t.Error("roughness channel: ", r.Image)
	}
	if g, ok := mat.Metalness.Image.(*image.Gray); !ok || g.GrayAt(0, 0).Y != 200 {
		t.Error("metalness channel: ", mat.Metalness.Image)
	}

	plain := newTestConverter(nil)
	doc.Meshes[0].Primitives[0].Material = gltf.Index(1)
	s, _ = plain.Convert(doc, "")
	mat = s.FindByName("node").Children[0].Geometry.Materials[0]
	if mat.LightingModel != scene.LightingBlinn || mat.Metalness.HasTexture() {
		t.Error("blinn: ", mat)
	}
}

func TestMaterialPacked(t *testing.T) {
	doc := newMeshDocument(gltf.PrimitiveTriangles, 3)
	metallic, roughness := float32(0.25), float32(0.75)
	doc.Materials = []*gltf.Material{{PBRMetallicRoughness: &gltf.PBRMetallicRoughness{MetallicFactor: &metallic, RoughnessFactor: &roughness}}}
	doc.Meshes[0].Primitives[0].Material = gltf.Index(0)
	s, _ := newTestConverter(nil).Convert(doc, "")
	mat := s.FindByName("node").Children[0].Geometry.Materials[0]
	if mat.Metalness.Intensity != 0.25 || mat.Roughness.Intensity != 0.75 || mat.Metalness.HasTexture() {
		t.Error("factors: ", mat.Metalness, mat.Roughness)
	}
}

func TestImageCache(t *testing.T) {
	doc := newMeshDocument(gltf.PrimitiveTriangles, 3)
	doc.Images = []*gltf.Image{{URI: "tex.png"}}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(0)}}
	doc.Materials = []*gltf.Material{
		{PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorTexture: &gltf.TextureInfo{Index: 0}}},
		{EmissiveTexture: &gltf.TextureInfo{Index: 0}},
	}
	doc.Meshes[0].Primitives[0].Material = gltf.Index(0)
	doc.Meshes[0].Primitives = append(doc.Meshes[0].Primitives, &gltf.Primitive{
		Attributes: doc.Meshes[0].Primitives[0].Attributes,
		Material:   gltf.Index(1),
	})

	var w bytes.Buffer
	png.Encode(&w, image.NewGray(image.Rect(0, 0, 1, 1)))
	calls := 0
	loader := gltfutil.LoaderFunc(func(uri, dir string) ([]byte, error) {
		calls++
		return w.Bytes(), nil
	})
	s, err := newTestConverter(&GLTFToSceneOption{Loader: loader}).Convert(doc, "")
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Error("image should be loaded once: ", calls)
	}
	children := s.FindByName("node").Children
	if children[0].Geometry.Materials[0].Diffuse.Image == nil || children[1].Geometry.Materials[0].Emission.Image == nil {
		t.Error("image not bound")
	}
}
