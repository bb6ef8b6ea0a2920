package converter

import (
	"image"
	"log"
	"math"
	"os"

	"github.com/binzume/gltfscene/geom"
	"github.com/binzume/gltfscene/gltfutil"
	"github.com/binzume/gltfscene/scene"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrChannelDataCountMismatch = errors.New("animation channel data count mismatch")
	ErrNodeCycle                = errors.New("node hierarchy has a cycle")
	ErrUnsortedKeyTimes         = errors.New("animation key times are not sorted")
	ErrNoMorphTargets           = errors.New("weights animation target has no morph targets")
)

type GLTFToSceneOption struct {
	Logger       *log.Logger           `yaml:"-"`
	Loader       gltfutil.Loader       `yaml:"-"`
	ImageDecoder gltfutil.ImageDecoder `yaml:"-"`

	// SplitMetallicRoughness extracts the metalness (B) and roughness (G) channels
	// into separate grayscale images.
	SplitMetallicRoughness bool `yaml:"splitMetallicRoughness"`
	TextureResolutionLimit int  `yaml:"textureResolutionLimit"`

	// Rot180 rotates each root node 180 degrees around the Y axis, turning
	// glTF's +Z forward into -Z forward. It is off by default, so nodes keep
	// their glTF orientation unless a caller opts in.
	Rot180 bool `yaml:"rot180"`
}

type gltfToScene struct {
	options *GLTFToSceneOption
}

func NewGLTFToSceneConverter(options *GLTFToSceneOption) *gltfToScene {
	if options == nil {
		options = &GLTFToSceneOption{}
	}
	opt := *options
	if opt.Logger == nil {
		opt.Logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	if opt.Loader == nil {
		opt.Loader = gltfutil.FileLoader{}
	}
	if opt.ImageDecoder == nil {
		opt.ImageDecoder = &gltfutil.DefaultImageDecoder{ResolutionLimit: opt.TextureResolutionLimit}
	}
	return &gltfToScene{
		options: &opt,
	}
}

type imageEntry struct {
	img image.Image
	err error
}

// sceneBuilder holds the state of a single Convert call.
type sceneBuilder struct {
	options *GLTFToSceneOption
	doc     *gltf.Document
	dir     string
	buffers *gltfutil.BufferResolver
	scene   *scene.Scene

	nodes       map[uint32]*scene.Node
	inProgress  map[uint32]bool
	weightPaths map[uint32][]scene.MorphWeightPath
	groups      map[uint32]*scene.AnimationGroup
	maxDuration float64

	images          map[uint32]*imageEntry
	materials       map[uint32]*scene.Material
	defaultMaterial *scene.Material
}

// Convert builds a scene graph from doc. dir is used to resolve relative URIs.
func (c *gltfToScene) Convert(doc *gltf.Document, dir string) (*scene.Scene, error) {
	b := &sceneBuilder{
		options:     c.options,
		doc:         doc,
		dir:         dir,
		buffers:     gltfutil.NewBufferResolver(doc, dir, c.options.Loader),
		scene:       &scene.Scene{},
		nodes:       map[uint32]*scene.Node{},
		inProgress:  map[uint32]bool{},
		weightPaths: map[uint32][]scene.MorphWeightPath{},
		groups:      map[uint32]*scene.AnimationGroup{},
		images:      map[uint32]*imageEntry{},
		materials:   map[uint32]*scene.Material{},
	}

	roots, name, err := b.rootNodes()
	if err != nil {
		return nil, err
	}
	b.scene.Name = normalizeName(name)
	b.scene.Root = scene.NewNode(b.scene.Name, -1)
	for _, i := range roots {
		n, err := b.buildNode(i)
		if err != nil {
			return nil, err
		}
		if c.options.Rot180 {
			n.Transform = *geom.NewYRotationMatrix4(math.Pi).Mul(&n.Transform)
		}
		b.scene.Root.AddChild(n)
	}

	b.buildAnimations()
	return b.scene, nil
}

func (b *sceneBuilder) warn(err error) {
	b.scene.Warnings = append(b.scene.Warnings, err)
	b.options.Logger.Print("warning: ", err)
}

func (b *sceneBuilder) rootNodes() ([]uint32, string, error) {
	doc := b.doc
	if doc.Scene != nil {
		if int(*doc.Scene) >= len(doc.Scenes) {
			return nil, "", errors.Wrapf(gltfutil.ErrInvalidReference, "scene %d", *doc.Scene)
		}
		s := doc.Scenes[*doc.Scene]
		return s.Nodes, s.Name, nil
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0].Nodes, doc.Scenes[0].Name, nil
	}

	isChild := map[uint32]bool{}
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	var roots []uint32
	for i := range doc.Nodes {
		if !isChild[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots, "", nil
}

func normalizeName(name string) string {
	return norm.NFC.String(name)
}

// nodeTransform returns Matrix * T * R * S.
func nodeTransform(n *gltf.Node) *geom.Matrix4 {
	m := geom.NewMatrix4()
	if n.Matrix != ([16]float32{}) {
		m = geom.NewMatrix4FromSlice(n.Matrix[:])
	}
	rot := n.Rotation
	if rot == ([4]float32{}) {
		rot = [4]float32{0, 0, 0, 1}
	}
	scale := n.Scale
	if scale == ([3]float32{}) {
		scale = [3]float32{1, 1, 1}
	}
	return m.Translate(n.Translation[0], n.Translation[1], n.Translation[2]).
		Rotate(geom.NewQuaternionFromArray(rot)).
		Scale(scale[0], scale[1], scale[2])
}

func (b *sceneBuilder) buildNode(index uint32) (*scene.Node, error) {
	if int(index) >= len(b.doc.Nodes) {
		return nil, errors.Wrapf(gltfutil.ErrInvalidReference, "node %d", index)
	}
	if b.inProgress[index] {
		return nil, errors.Wrapf(ErrNodeCycle, "node %d", index)
	}
	if _, ok := b.nodes[index]; ok {
		// glTF nodes have at most one parent
		return nil, errors.Wrapf(gltfutil.ErrInvalidReference, "node %d is referenced more than once", index)
	}
	b.inProgress[index] = true
	defer delete(b.inProgress, index)

	src := b.doc.Nodes[index]
	node := scene.NewNode(normalizeName(src.Name), int(index))
	node.Transform = *nodeTransform(src)

	if src.Camera != nil {
		cam, err := b.camera(*src.Camera)
		if err != nil {
			b.warn(errors.Wrapf(err, "node %d", index))
		}
		node.Camera = cam
	}
	if src.Skin != nil {
		node.SkinIndex = int(*src.Skin)
	}
	if src.Mesh != nil {
		b.buildMesh(index, node, *src.Mesh)
	}

	b.nodes[index] = node
	b.scene.Nodes = append(b.scene.Nodes, node)

	for _, c := range src.Children {
		child, err := b.buildNode(c)
		if err != nil {
			return nil, err
		}
		node.AddChild(child)
	}
	return node, nil
}

func (b *sceneBuilder) camera(index uint32) (*scene.Camera, error) {
	if int(index) >= len(b.doc.Cameras) {
		return nil, errors.Wrapf(gltfutil.ErrInvalidReference, "camera %d", index)
	}
	c := b.doc.Cameras[index]
	cam := &scene.Camera{Name: normalizeName(c.Name)}
	if p := c.Perspective; p != nil {
		cam.Projection = scene.PerspectiveProjection
		cam.ZNear = p.Znear
		if p.Zfar != nil {
			cam.ZFar = *p.Zfar
		}
		cam.YFov = p.Yfov
		cam.FieldOfView = geom.RadToDeg(p.Yfov)
		if p.AspectRatio != nil {
			cam.AspectRatio = *p.AspectRatio
		}
	} else if o := c.Orthographic; o != nil {
		cam.Projection = scene.OrthographicProjection
		cam.ZNear = o.Znear
		cam.ZFar = o.Zfar
		cam.XMag = o.Xmag
		cam.YMag = o.Ymag
	}
	return cam, nil
}

// buildMesh emits one child node per primitive and records the morph weight paths of nodeIndex.
func (b *sceneBuilder) buildMesh(nodeIndex uint32, node *scene.Node, meshIndex uint32) {
	if int(meshIndex) >= len(b.doc.Meshes) {
		b.warn(errors.Wrapf(gltfutil.ErrInvalidReference, "node %d mesh %d", nodeIndex, meshIndex))
		return
	}
	mesh := b.doc.Meshes[meshIndex]
	if node.Name == "" {
		node.Name = normalizeName(mesh.Name)
	}
	for i, p := range mesh.Primitives {
		g, morpher, err := b.buildGeometry(mesh, p)
		if err != nil {
			b.warn(errors.Wrapf(err, "mesh %d primitive %d", meshIndex, i))
			if !errors.Is(err, gltfutil.ErrResourceUnavailable) {
				continue
			}
			g, morpher = &scene.Geometry{Name: normalizeName(mesh.Name)}, nil
		}
		child := scene.NewNode(g.Name, -1)
		child.Geometry = g
		child.Morpher = morpher
		c := len(node.Children)
		node.AddChild(child)
		if morpher != nil {
			for t := range morpher.Targets {
				b.weightPaths[nodeIndex] = append(b.weightPaths[nodeIndex], scene.MorphWeightPath{Child: c, Target: t})
			}
		}
	}
}
