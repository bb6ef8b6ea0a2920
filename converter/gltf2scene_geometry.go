package converter

import (
	"sort"
	"strings"

	"github.com/binzume/gltfscene/gltfutil"
	"github.com/binzume/gltfscene/scene"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

func primitiveType(mode gltf.PrimitiveMode) scene.PrimitiveType {
	switch mode {
	case gltf.PrimitiveTriangleStrip:
		return scene.PrimitiveTriangleStrip
	case gltf.PrimitiveTriangleFan:
		return scene.PrimitiveTriangleFan
	case gltf.PrimitiveLines:
		return scene.PrimitiveLine
	case gltf.PrimitiveLineStrip, gltf.PrimitiveLineLoop:
		return scene.PrimitiveLineStrip
	case gltf.PrimitivePoints:
		return scene.PrimitivePoint
	default:
		return scene.PrimitiveTriangles
	}
}

func semanticOf(attr string) scene.Semantic {
	switch {
	case attr == "NORMAL":
		return scene.SemanticNormal
	case attr == "TANGENT":
		return scene.SemanticTangent
	case strings.HasPrefix(attr, "COLOR_"):
		return scene.SemanticColor
	case strings.HasPrefix(attr, "TEXCOORD_"):
		return scene.SemanticTexcoord
	case attr == "JOINTS_0":
		return scene.SemanticBoneIndices
	case attr == "WEIGHTS_0":
		return scene.SemanticBoneWeights
	default:
		return scene.SemanticVertex
	}
}

func (b *sceneBuilder) geometrySources(attrs gltf.Attribute) ([]*scene.GeometrySource, error) {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	var sources []*scene.GeometrySource
	for _, name := range names {
		data, err := b.buffers.ReadAccessor(attrs[name])
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %s", name)
		}
		acr := b.doc.Accessors[attrs[name]]
		sources = append(sources, &scene.GeometrySource{
			Name:                name,
			Semantic:            semanticOf(name),
			Data:                data,
			VectorCount:         gltfutil.ElementCount(data),
			ComponentsPerVector: int(gltfutil.Components(acr.Type)),
			BytesPerComponent:   int(gltfutil.BytesPerComponent(acr.ComponentType)),
			FloatComponents:     acr.ComponentType == gltf.ComponentFloat,
			Normalized:          acr.Normalized,
		})
	}
	return sources, nil
}

func (b *sceneBuilder) buildGeometry(mesh *gltf.Mesh, p *gltf.Primitive) (*scene.Geometry, *scene.Morpher, error) {
	g := &scene.Geometry{Name: normalizeName(mesh.Name)}
	sources, err := b.geometrySources(p.Attributes)
	if err != nil {
		return nil, nil, err
	}
	g.Sources = sources

	elem := &scene.GeometryElement{PrimitiveType: primitiveType(p.Mode)}
	if p.Indices != nil {
		data, err := b.buffers.ReadAccessor(*p.Indices)
		if err != nil {
			return nil, nil, errors.Wrap(err, "indices")
		}
		indices, err := gltfutil.Uint32s(data)
		if err != nil {
			return nil, nil, errors.Wrap(err, "indices")
		}
		elem.Indices = indices
		elem.BytesPerIndex = int(gltfutil.BytesPerComponent(b.doc.Accessors[*p.Indices].ComponentType))
		elem.PrimitiveCount = elem.PrimitiveType.PrimitiveCount(len(indices))
	} else {
		for _, src := range sources {
			if src.Name == "POSITION" {
				elem.PrimitiveCount = elem.PrimitiveType.PrimitiveCount(src.VectorCount)
			}
		}
	}
	g.Elements = []*scene.GeometryElement{elem}
	g.Materials = []*scene.Material{b.material(p.Material)}

	if len(p.Targets) == 0 {
		return g, nil, nil
	}
	morpher := &scene.Morpher{CalculationMode: scene.MorphAdditive}
	for i, target := range p.Targets {
		srcs, err := b.geometrySources(target)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "morph target %d", i)
		}
		morpher.Targets = append(morpher.Targets, srcs)
	}
	morpher.Weights = make([]float32, len(p.Targets))
	copy(morpher.Weights, mesh.Weights)
	return g, morpher, nil
}
