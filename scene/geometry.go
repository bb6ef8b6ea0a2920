package scene

type Semantic int

const (
	SemanticVertex Semantic = iota
	SemanticNormal
	SemanticTangent
	SemanticColor
	SemanticTexcoord
	SemanticBoneIndices
	SemanticBoneWeights
)

func (s Semantic) String() string {
	switch s {
	case SemanticNormal:
		return "normal"
	case SemanticTangent:
		return "tangent"
	case SemanticColor:
		return "color"
	case SemanticTexcoord:
		return "texcoord"
	case SemanticBoneIndices:
		return "boneIndices"
	case SemanticBoneWeights:
		return "boneWeights"
	default:
		return "vertex"
	}
}

type PrimitiveType int

const (
	PrimitiveTriangles PrimitiveType = iota
	PrimitiveTriangleStrip
	PrimitiveTriangleFan
	PrimitiveLine
	PrimitiveLineStrip
	PrimitivePoint
)

func (p PrimitiveType) String() string {
	switch p {
	case PrimitiveTriangleStrip:
		return "triangleStrip"
	case PrimitiveTriangleFan:
		return "triangleFan"
	case PrimitiveLine:
		return "line"
	case PrimitiveLineStrip:
		return "lineStrip"
	case PrimitivePoint:
		return "point"
	default:
		return "triangles"
	}
}

// PrimitiveCount derives the number of primitives from an index (or vertex) count.
func (p PrimitiveType) PrimitiveCount(n int) int {
	switch p {
	case PrimitiveTriangles:
		return n / 3
	case PrimitiveTriangleStrip, PrimitiveTriangleFan:
		if n < 2 {
			return 0
		}
		return n - 2
	case PrimitiveLine:
		return n / 2
	default:
		return n
	}
}

// GeometrySource is one vertex attribute stream.
type GeometrySource struct {
	Name     string // glTF attribute name
	Semantic Semantic

	// Data holds the decoded values, e.g. [][3]float32 or [][4]uint16.
	Data interface{}

	VectorCount         int
	ComponentsPerVector int
	BytesPerComponent   int
	FloatComponents     bool
	Normalized          bool
}

// GeometryElement is an index stream plus topology.
type GeometryElement struct {
	// Indices is nil for non-indexed geometry.
	Indices        []uint32
	BytesPerIndex  int
	PrimitiveType  PrimitiveType
	PrimitiveCount int
}

type Geometry struct {
	Name      string
	Sources   []*GeometrySource
	Elements  []*GeometryElement
	Materials []*Material
}

// Source returns the first source with the given semantic.
func (g *Geometry) Source(s Semantic) *GeometrySource {
	for _, src := range g.Sources {
		if src.Semantic == s {
			return src
		}
	}
	return nil
}

type MorphCalculationMode int

const (
	MorphNormalized MorphCalculationMode = iota
	MorphAdditive
)

type Morpher struct {
	// Targets holds one source set per morph target (attribute deltas).
	Targets         [][]*GeometrySource
	CalculationMode MorphCalculationMode
	Weights         []float32
}
