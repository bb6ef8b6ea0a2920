package scene

import "image"

type LightingModel int

const (
	LightingBlinn LightingModel = iota
	LightingPhysicallyBased
)

func (l LightingModel) String() string {
	if l == LightingPhysicallyBased {
		return "physicallyBased"
	}
	return "blinn"
}

type WrapMode int

const (
	WrapRepeat WrapMode = iota
	WrapClamp
	WrapMirror
)

type FilterMode int

const (
	FilterNone FilterMode = iota
	FilterNearest
	FilterLinear
)

// ColorComponent selects which texture channel a property samples.
type ColorComponent int

const (
	ComponentAll ColorComponent = iota
	ComponentRed
	ComponentGreen
	ComponentBlue
	ComponentAlpha
)

type AlphaMode int

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

// MaterialProperty holds either a texture image or a constant color.
type MaterialProperty struct {
	Image        image.Image
	TextureIndex int // -1 if no texture is bound
	TexCoord     int
	Color        *[4]float32

	Intensity        float32
	TextureComponent ColorComponent

	WrapS     WrapMode
	WrapT     WrapMode
	MagFilter FilterMode
	MinFilter FilterMode
	MipFilter FilterMode
}

func NewMaterialProperty() *MaterialProperty {
	return &MaterialProperty{TextureIndex: -1, Intensity: 1}
}

func (p *MaterialProperty) HasTexture() bool {
	return p.TextureIndex >= 0
}

type Material struct {
	Name          string
	DoubleSided   bool
	LightingModel LightingModel
	AlphaMode     AlphaMode
	AlphaCutoff   float32

	Diffuse          *MaterialProperty
	Metalness        *MaterialProperty
	Roughness        *MaterialProperty
	Normal           *MaterialProperty
	AmbientOcclusion *MaterialProperty
	Emission         *MaterialProperty
}

func NewMaterial(name string) *Material {
	return &Material{
		Name:             name,
		AlphaCutoff:      0.5,
		Diffuse:          NewMaterialProperty(),
		Metalness:        NewMaterialProperty(),
		Roughness:        NewMaterialProperty(),
		Normal:           NewMaterialProperty(),
		AmbientOcclusion: NewMaterialProperty(),
		Emission:         NewMaterialProperty(),
	}
}
